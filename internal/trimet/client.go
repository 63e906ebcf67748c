// Package trimet talks to the TriMet web services. It only deals with
// transport; payload interpretation belongs to the callers.
package trimet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://developer.trimet.org/ws"

const (
	ServiceArrivals = "arrivals"
	ServiceStops    = "stops"
)

// RequestMetrics receives one observation per upstream call.
type RequestMetrics interface {
	UpstreamObserve(service string, ok bool, d time.Duration)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    RequestMetrics
}

func NewClient(baseURL, apiKey string, timeout time.Duration, m RequestMetrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// Arrivals requests arrivals for the given stops from the v2 arrivals
// service and returns the raw JSON body.
func (c *Client) Arrivals(ctx context.Context, stopIDs []int) ([]byte, error) {
	ids := make([]string, len(stopIDs))
	for i, id := range stopIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{}
	params.Set("locIDs", strings.Join(ids, ","))
	return c.get(ctx, ServiceArrivals, 2, params)
}

// StopDirectory requests every stop within radiusFeet of center, with
// routes and route directions expanded, from the v1 stops service.
func (c *Client) StopDirectory(ctx context.Context, center Point, radiusFeet int) ([]byte, error) {
	params := url.Values{}
	params.Set("ll", fmt.Sprintf("%s,%s",
		strconv.FormatFloat(center.Lon, 'f', -1, 64),
		strconv.FormatFloat(center.Lat, 'f', -1, 64)))
	params.Set("feet", strconv.Itoa(radiusFeet))
	params.Set("showRoutes", "true")
	params.Set("showRouteDirs", "true")
	return c.get(ctx, ServiceStops, 1, params)
}

func (c *Client) get(ctx context.Context, service string, version int, params url.Values) ([]byte, error) {
	params.Set("appID", c.apiKey)
	params.Set("json", "true")
	u := fmt.Sprintf("%s/v%d/%s?%s", c.baseURL, version, service, params.Encode())

	start := time.Now()
	body, err := c.fetch(ctx, service, u)
	if c.metrics != nil {
		c.metrics.UpstreamObserve(service, err == nil, time.Since(start))
	}
	return body, err
}

func (c *Client) fetch(ctx context.Context, service, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UpstreamError{Service: service, URL: redact(u), Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, key included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, &UpstreamError{Service: service, URL: redact(u), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Service: service, URL: redact(u), StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Service: service, URL: redact(u), StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// redact hides the application key so URLs can be logged and returned.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("appID") {
		q.Set("appID", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
