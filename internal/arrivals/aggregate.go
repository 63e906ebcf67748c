package arrivals

import (
	"log"
	"strings"

	"mystops/internal/trimet"
)

type routeBuilder struct {
	id       int
	name     string
	arrivals []Arrival
}

type stopBuilder struct {
	stop   Stop
	routes map[int]*routeBuilder
	order  []int
}

// aggregator groups arrivals by stop and then by route in a single pass.
type aggregator struct {
	stops   map[int]*stopBuilder
	order   []int
	count   int
	dropped int
}

// newAggregator seeds one stop per location so that requested stops
// without arrivals still appear on the board.
func newAggregator(locations []trimet.ArrivalLocation) *aggregator {
	a := &aggregator{stops: make(map[int]*stopBuilder, len(locations))}
	for _, loc := range locations {
		if _, ok := a.stops[loc.ID]; ok {
			continue
		}
		a.stops[loc.ID] = &stopBuilder{
			stop: Stop{
				ID:          loc.ID,
				Name:        loc.Desc,
				Coordinates: [2]float64{loc.Lng, loc.Lat},
			},
			routes: make(map[int]*routeBuilder),
		}
		a.order = append(a.order, loc.ID)
	}
	return a
}

func (a *aggregator) add(rec trimet.RawArrival, arrival Arrival) {
	sb, ok := a.stops[rec.LocID]
	if !ok {
		log.Printf("arrival for stop %d has no matching location", rec.LocID)
		sb = &stopBuilder{stop: Stop{ID: rec.LocID}, routes: make(map[int]*routeBuilder)}
		a.stops[rec.LocID] = sb
		a.order = append(a.order, rec.LocID)
	}
	rb, ok := sb.routes[rec.Route]
	if !ok {
		rb = &routeBuilder{id: rec.Route, name: signText(rec.FullSign)}
		sb.routes[rec.Route] = rb
		sb.order = append(sb.order, rec.Route)
	}
	rb.arrivals = append(rb.arrivals, arrival)
	a.count++
}

func (a *aggregator) board() *Board {
	b := &Board{Count: a.count, Stops: make([]Stop, 0, len(a.order)), dropped: a.dropped}
	for _, id := range a.order {
		sb := a.stops[id]
		stop := sb.stop
		stop.Routes = make([]Route, 0, len(sb.order))
		for _, rid := range sb.order {
			rb := sb.routes[rid]
			stop.Routes = append(stop.Routes, Route{ID: rb.id, Name: rb.name, Arrivals: rb.arrivals})
		}
		b.Stops = append(b.Stops, stop)
	}
	return b
}

func signText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
