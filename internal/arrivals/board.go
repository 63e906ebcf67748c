// Package arrivals turns TriMet arrival predictions into a sorted board of
// stops, routes and arrivals.
package arrivals

import (
	"sort"
	"strings"
	"time"

	"mystops/internal/distance"
)

type Designation string

const (
	DesignationRed    Designation = "red"
	DesignationOrange Designation = "orange"
	DesignationYellow Designation = "yellow"
)

type Arrival struct {
	Estimated    *time.Time           `json:"estimated"`
	Scheduled    *time.Time           `json:"scheduled"`
	Status       string               `json:"status"`
	Designation  *Designation         `json:"designation"`
	DistanceAway distance.Measurement `json:"distanceAway"`
}

// Route groups the arrivals of one route at one stop. Name is the sign
// text of the first arrival seen.
type Route struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Arrivals []Arrival `json:"arrivals"`
}

type Stop struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Coordinates [2]float64 `json:"coordinates"`
	Routes      []Route    `json:"routes"`
}

// Board is the arrival board for a set of stops. Count is the number of
// arrivals across all stops.
type Board struct {
	Count      int    `json:"count"`
	UpdateTime string `json:"updateTime"`
	Stops      []Stop `json:"stops"`

	dropped int
}

// SortBoard orders stops by id, routes by case-insensitive name and
// arrivals by time. Ties keep their input order.
func SortBoard(b *Board) {
	sort.SliceStable(b.Stops, func(i, j int) bool { return b.Stops[i].ID < b.Stops[j].ID })
	for i := range b.Stops {
		routes := b.Stops[i].Routes
		sort.SliceStable(routes, func(i, j int) bool {
			return strings.ToLower(routes[i].Name) < strings.ToLower(routes[j].Name)
		})
		for k := range routes {
			arrivals := routes[k].Arrivals
			sort.SliceStable(arrivals, func(i, j int) bool {
				return arrivals[i].sortKey() < arrivals[j].sortKey()
			})
		}
	}
}

// sortKey is the estimated time, falling back to scheduled; arrivals
// with neither sort first.
func (a Arrival) sortKey() int64 {
	switch {
	case a.Estimated != nil:
		return a.Estimated.UnixMilli()
	case a.Scheduled != nil:
		return a.Scheduled.UnixMilli()
	}
	return 0
}
