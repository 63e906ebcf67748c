// Package stops extracts stops, routes and their associations from the
// TriMet stop directory.
package stops

import (
	"encoding/json"
	"fmt"
	"sort"

	"mystops/internal/trimet"
)

type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// DirectionFromCode maps TriMet's binary direction code.
func DirectionFromCode(code int) Direction {
	if code == 0 {
		return Outbound
	}
	return Inbound
}

// RouteRef is a stop's reference to one direction of a route.
type RouteRef struct {
	ID        int       `json:"id"`
	Direction Direction `json:"direction"`
}

type Stop struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Direction *string    `json:"direction"`
	Location  [2]float64 `json:"location"`
	Routes    []RouteRef `json:"routes"`
}

// Route is one direction of a route; (ID, Direction) is unique.
type Route struct {
	ID          int       `json:"id"`
	Direction   Direction `json:"direction"`
	Type        RouteType `json:"type"`
	Name        string    `json:"name"`
	ShortName   string    `json:"short_name"`
	Description string    `json:"description"`
}

type StopRoute struct {
	StopID    int
	RouteID   int
	Direction Direction
}

type Extraction struct {
	Retrieved  int64
	Stops      []Stop
	Routes     []Route
	StopRoutes []StopRoute
}

type routeKey struct {
	id  int
	dir Direction
}

// Extract parses a stop directory payload. Any route that cannot be
// classified fails the whole extraction.
func Extract(body []byte) (*Extraction, error) {
	var resp trimet.StopsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode stops: %w", err)
	}
	root := resp.ResultSet
	if err := trimet.CheckResultError(root.Error); err != nil {
		return nil, err
	}

	ex := &Extraction{
		Retrieved: root.QueryTime,
		Stops:     make([]Stop, 0, len(root.Locations)),
	}
	seenRoutes := make(map[routeKey]bool)

	for _, loc := range root.Locations {
		stop := Stop{
			ID:       loc.LocID,
			Name:     loc.Desc,
			Location: [2]float64{loc.Lng, loc.Lat},
			Routes:   []RouteRef{},
		}
		if loc.Dir != "" {
			dir := loc.Dir
			stop.Direction = &dir
		}

		seenStopRoutes := make(map[routeKey]bool)
		for _, r := range loc.Routes {
			for _, d := range r.Dirs {
				key := routeKey{r.Route, DirectionFromCode(d.Dir)}
				if !seenRoutes[key] {
					typ, err := ClassifyRoute(r.Route, r.Type, r.Desc)
					if err != nil {
						return nil, err
					}
					seenRoutes[key] = true
					ex.Routes = append(ex.Routes, Route{
						ID:          r.Route,
						Direction:   key.dir,
						Type:        typ,
						Name:        r.Desc,
						ShortName:   ShortName(r.Route, typ, r.Desc),
						Description: d.Desc,
					})
				}
				if !seenStopRoutes[key] {
					seenStopRoutes[key] = true
					stop.Routes = append(stop.Routes, RouteRef{ID: key.id, Direction: key.dir})
					ex.StopRoutes = append(ex.StopRoutes, StopRoute{StopID: stop.ID, RouteID: key.id, Direction: key.dir})
				}
			}
		}
		ex.Stops = append(ex.Stops, stop)
	}

	sort.SliceStable(ex.Stops, func(i, j int) bool { return ex.Stops[i].ID < ex.Stops[j].ID })
	sort.SliceStable(ex.Routes, func(i, j int) bool { return ex.Routes[i].ID < ex.Routes[j].ID })
	sort.SliceStable(ex.StopRoutes, func(i, j int) bool {
		a, b := ex.StopRoutes[i], ex.StopRoutes[j]
		if a.StopID != b.StopID {
			return a.StopID < b.StopID
		}
		if a.RouteID != b.RouteID {
			return a.RouteID < b.RouteID
		}
		return a.Direction < b.Direction
	})
	return ex, nil
}

// Associations flattens the route references of stops, as read back from
// stops.json, into stop-route associations.
func Associations(stops []Stop) []StopRoute {
	var out []StopRoute
	for _, s := range stops {
		for _, r := range s.Routes {
			out = append(out, StopRoute{StopID: s.ID, RouteID: r.ID, Direction: r.Direction})
		}
	}
	return out
}
