package main

import (
	"fmt"
	"io"

	"mystops/internal/arrivals"
	"mystops/internal/distance"
)

func renderBoard(w io.Writer, b *arrivals.Board) {
	if b.Count == 0 {
		fmt.Fprintln(w, "No arrivals found")
		return
	}
	fmt.Fprintf(w, "Updated %s\n", b.UpdateTime)
	for _, s := range b.Stops {
		fmt.Fprintf(w, "\n%s (%d)\n", s.Name, s.ID)
		for _, r := range s.Routes {
			fmt.Fprintf(w, "  %s\n", r.Name)
			for _, a := range r.Arrivals {
				line := "    " + a.Status
				if a.Designation != nil {
					line += fmt.Sprintf(" [%s]", *a.Designation)
				}
				line += "  " + formatDistance(a.DistanceAway)
				fmt.Fprintln(w, line)
			}
		}
	}
}

func formatDistance(m distance.Measurement) string {
	if m.Miles < 0.1 {
		return fmt.Sprintf("%.0f ft", m.Feet)
	}
	return fmt.Sprintf("%.1f mi", m.Miles)
}
