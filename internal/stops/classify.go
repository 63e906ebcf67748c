package stops

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type RouteType string

const (
	RouteTypeBus          RouteType = "bus"
	RouteTypeShuttle      RouteType = "shuttle"
	RouteTypeLightRail    RouteType = "light-rail"
	RouteTypeStreetcar    RouteType = "streetcar"
	RouteTypeAerialTram   RouteType = "aerial-tram"
	RouteTypeCommuterRail RouteType = "commuter-rail"
)

// Upstream route type codes.
const (
	codeBus  = "B"
	codeRail = "R"
)

// ClassificationError means a route could not be given a type. It aborts
// the whole extraction: a new service needs a code change, not a guess.
type ClassificationError struct {
	RouteID int
	Code    string
	Name    string
}

func (e *ClassificationError) Error() string {
	if e.Code == codeRail {
		return fmt.Sprintf("could not determine fixed route type for %d: %s (%q)", e.RouteID, e.Code, e.Name)
	}
	return fmt.Sprintf("unexpected route type for %d: %q", e.RouteID, e.Code)
}

var railPrefixes = []struct {
	prefix string
	typ    RouteType
}{
	{"MAX", RouteTypeLightRail},
	{"Portland Streetcar", RouteTypeStreetcar},
	{"Aerial Tram", RouteTypeAerialTram},
	{"WES", RouteTypeCommuterRail},
}

// ClassifyRoute derives a route type from the upstream type code and the
// route's display name.
func ClassifyRoute(id int, code, name string) (RouteType, error) {
	switch code {
	case codeBus:
		if strings.HasSuffix(name, "Shuttle") {
			return RouteTypeShuttle, nil
		}
		return RouteTypeBus, nil
	case codeRail:
		for _, p := range railPrefixes {
			if strings.HasPrefix(name, p.prefix) {
				return p.typ, nil
			}
		}
	}
	return "", &ClassificationError{RouteID: id, Code: code, Name: name}
}

var (
	maxPrefix  = regexp.MustCompile(`^MAX\s+`)
	lineSuffix = regexp.MustCompile(`\s+Line$`)
)

// ShortName returns the compact label shown for a route, e.g. "72" or
// "Blue". The type must come from ClassifyRoute.
func ShortName(id int, typ RouteType, name string) string {
	switch typ {
	case RouteTypeBus:
		return strconv.Itoa(id)
	case RouteTypeShuttle, RouteTypeStreetcar:
		if parts := strings.Split(name, " - "); len(parts) > 1 {
			return parts[1]
		}
		return name
	case RouteTypeLightRail:
		return lineSuffix.ReplaceAllString(maxPrefix.ReplaceAllString(name, ""), "")
	case RouteTypeAerialTram:
		return "Aerial Tram"
	case RouteTypeCommuterRail:
		return "WES"
	}
	panic(fmt.Sprintf("stops: no short name rule for route %d of type %q", id, typ))
}
