package trimet

import (
	"fmt"
	"strings"
)

// UpstreamError reports a transport failure or non-200 response from a
// TriMet web service.
type UpstreamError struct {
	Service    string
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error calling TriMet API service: %s (%s): %v", e.Service, e.URL, e.Err)
	}
	return fmt.Sprintf("error calling TriMet API service: %s (%s): HTTP %d", e.Service, e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// APIError is a service-level error TriMet embedded in a successful response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return "TriMet API error: " + e.Message }

// StopNotFoundError means TriMet does not know one of the requested stops.
type StopNotFoundError struct {
	StopID string
}

func (e *StopNotFoundError) Error() string {
	return fmt.Sprintf("stop ID %s does not exist", e.StopID)
}

type APIErrorKind int

const (
	APIErrorNone APIErrorKind = iota
	APIErrorStopNotFound
	APIErrorOther
)

// APIErrorClass is the result of classifying an embedded error message.
type APIErrorClass struct {
	Kind    APIErrorKind
	StopID  string
	Message string
}

const stopNotFoundPrefix = "location id not found"

// ClassifyAPIError sorts the free-text content of an embedded error. The
// wording is TriMet's, e.g. "Location id not found: 99999".
func ClassifyAPIError(content string) APIErrorClass {
	content = strings.TrimSpace(content)
	if content == "" {
		return APIErrorClass{Kind: APIErrorOther, Message: "Unknown"}
	}
	lower := strings.ToLower(content)
	if strings.HasPrefix(lower, stopNotFoundPrefix) {
		fields := strings.Fields(lower[len(stopNotFoundPrefix):])
		if len(fields) > 0 {
			if id := strings.Trim(fields[len(fields)-1], ":.,"); id != "" {
				return APIErrorClass{Kind: APIErrorStopNotFound, StopID: id, Message: content}
			}
		}
	}
	return APIErrorClass{Kind: APIErrorOther, Message: content}
}

// ClassifyResultError classifies an optional embedded error. A missing
// error is APIErrorNone.
func ClassifyResultError(re *ResultError) APIErrorClass {
	if re == nil {
		return APIErrorClass{Kind: APIErrorNone}
	}
	return ClassifyAPIError(re.Content)
}

// CheckResultError converts an embedded error into a typed error, or
// returns nil when there is none.
func CheckResultError(re *ResultError) error {
	class := ClassifyResultError(re)
	switch class.Kind {
	case APIErrorStopNotFound:
		return &StopNotFoundError{StopID: class.StopID}
	case APIErrorOther:
		return &APIError{Message: class.Message}
	}
	return nil
}
