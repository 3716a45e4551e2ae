package main

import (
	"fmt"
	"io"

	"astrolabe.space/chart"
)

func printChart(w io.Writer, c chart.Chart) {
	fmt.Fprintf(w, "Chart for %s at %.4f, %.4f (%s)\n",
		c.Instant.UTC().Format("2006-01-02 15:04 MST"), c.Observer.Latitude, c.Observer.Longitude, c.Path)

	fmt.Fprintf(w, "\n--- Bodies ---\n")
	fmt.Fprintf(w, "%-10s | %-18s | %-5s | %-10s | %-9s | %s\n",
		"Body", "Sign", "House", "Longitude", "Distance", "Source")
	fmt.Fprintln(w, "--------------------------------------------------------------------------")
	for _, s := range c.Bodies {
		fmt.Fprintf(w, "%-10s | %-18s | %-5d | %9.4f° | %9.4f | %s\n",
			s.Body, s.Placement.Sign.Glyph()+" "+s.Placement.String(), s.House+1,
			s.Position.Longitude, s.Position.Distance, s.Source)
	}

	fmt.Fprintf(w, "\n--- Aspects ---\n")
	if len(c.Aspects) == 0 {
		fmt.Fprintln(w, "none")
		return
	}
	for _, a := range c.Aspects {
		fmt.Fprintf(w, "%-10s %-12s %-10s  %7.3f° (orb %.3f°, %s)\n",
			a.A, a.Angle.Name(), a.B, a.Separation, a.Deviation, a.Angle.Color().Hex())
	}
}
