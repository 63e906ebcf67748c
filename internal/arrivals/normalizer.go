package arrivals

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"mystops/internal/distance"
	"mystops/internal/localtime"
	"mystops/internal/trimet"
)

const (
	StatusEstimated = "estimated"
	StatusScheduled = "scheduled"
	StatusDelayed   = "delayed"
	StatusCanceled  = "canceled"
)

const (
	// Estimates further out than this show the scheduled time instead.
	relativeHorizon = time.Hour
	// Estimated and scheduled must differ by more than this to be
	// called early or late.
	onTimeToleranceMillis = 60000
)

type Normalizer struct {
	clock *localtime.Clock
}

func NewNormalizer(clock *localtime.Clock) *Normalizer {
	return &Normalizer{clock: clock}
}

// Normalize parses a v2 arrivals payload into a sorted Board. When routeIDs
// is non-empty only arrivals for those routes are kept.
func (n *Normalizer) Normalize(body []byte, routeIDs []int) (*Board, error) {
	var resp trimet.ArrivalsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode arrivals: %w", err)
	}
	root := resp.ResultSet
	if err := trimet.CheckResultError(root.Error); err != nil {
		return nil, err
	}

	var routeFilter map[int]bool
	if len(routeIDs) > 0 {
		routeFilter = make(map[int]bool, len(routeIDs))
		for _, id := range routeIDs {
			routeFilter[id] = true
		}
	}

	agg := newAggregator(root.Locations)
	for _, rec := range root.Arrivals {
		if routeFilter != nil && !routeFilter[rec.Route] {
			continue
		}
		status, ok := n.Status(rec)
		if !ok {
			log.Printf("dropping arrival at stop %d for route %d: no status", rec.LocID, rec.Route)
			agg.dropped++
			continue
		}
		estimated := n.clock.FromMillis(rec.Estimated)
		agg.add(rec, Arrival{
			Estimated:    estimated,
			Scheduled:    n.clock.FromMillis(rec.Scheduled),
			Status:       status,
			Designation:  n.designate(estimated),
			DistanceAway: distance.FromFeet(rec.Feet),
		})
	}

	board := agg.board()
	if qt := n.clock.FromMillis(root.QueryTime); qt != nil {
		board.UpdateTime = n.clock.NiceTime(*qt, true)
	}
	SortBoard(board)
	return board, nil
}

// Status derives the rider-facing status text for a raw arrival. It
// reports false when neither the status code nor the timestamps say
// anything usable.
func (n *Normalizer) Status(rec trimet.RawArrival) (string, bool) {
	status := rec.Status
	if status == "" {
		log.Printf("status not set for arrival at stop %d for route %d", rec.LocID, rec.Route)
		switch {
		case rec.Estimated != 0:
			status = StatusEstimated
		case rec.Scheduled != 0:
			status = StatusScheduled
		default:
			return "", false
		}
	}

	switch status {
	case StatusEstimated:
		if rec.Estimated != 0 {
			estimated := n.clock.FromMillis(rec.Estimated)
			if estimated.Sub(n.clock.Now()) < relativeHorizon {
				return n.relativeStatus(*estimated, rec), true
			}
		}
		return n.scheduledStatus(rec)
	case StatusScheduled:
		return n.scheduledStatus(rec)
	case StatusDelayed:
		return withReason("Delayed", rec.Reason), true
	case StatusCanceled:
		return withReason("Canceled", rec.Reason), true
	}
	return "N/A", true
}

func (n *Normalizer) relativeStatus(estimated time.Time, rec trimet.RawArrival) string {
	value := n.clock.NiceDelta(estimated, false)
	if rec.Scheduled == 0 {
		return value
	}
	diff := rec.Estimated - rec.Scheduled
	switch {
	case diff > onTimeToleranceMillis:
		return value + " (late)"
	case diff < -onTimeToleranceMillis:
		return value + " (early)"
	}
	return value
}

func (n *Normalizer) scheduledStatus(rec trimet.RawArrival) (string, bool) {
	scheduled := n.clock.FromMillis(rec.Scheduled)
	if scheduled == nil {
		return "", false
	}
	return "Scheduled: " + n.clock.NiceTime(*scheduled, false), true
}

func withReason(label, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return label + ": " + reason
	}
	return label
}

// designate buckets the time until an estimated arrival into an urgency
// color. Only estimated arrivals get one.
func (n *Normalizer) designate(estimated *time.Time) *Designation {
	if estimated == nil {
		return nil
	}
	var d Designation
	switch secs := localtime.SecondsUntil(n.clock.Now(), *estimated); {
	case secs <= 60:
		d = DesignationRed
	case secs <= 180:
		d = DesignationOrange
	case secs <= 300:
		d = DesignationYellow
	default:
		return nil
	}
	return &d
}
