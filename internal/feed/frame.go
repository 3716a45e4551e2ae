package feed

import (
	"time"

	"astrolabe.space/chart"
	"astrolabe.space/ephemeris"
)

// Frame is the JSON message renderers receive for every chart.
type Frame struct {
	Instant  time.Time          `json:"instant"`
	Observer ephemeris.Observer `json:"observer"`
	Path     ephemeris.Path     `json:"path"`
	Bodies   []BodyFrame        `json:"bodies"`
	Aspects  []AspectFrame      `json:"aspects"`
}

type BodyFrame struct {
	Body      ephemeris.Body `json:"body"`
	Longitude float64        `json:"longitude"`
	Latitude  float64        `json:"latitude"`
	Distance  float64        `json:"distance"`
	Sign      string         `json:"sign"`
	Glyph     string         `json:"glyph"`
	Label     string         `json:"label"` // e.g. "Aquarius 5°0′"
	House     int            `json:"house"`
	Source    ephemeris.Path `json:"source"`
}

type AspectFrame struct {
	A          ephemeris.Body `json:"a"`
	B          ephemeris.Body `json:"b"`
	Name       string         `json:"name"`
	Angle      float64        `json:"angle"`
	Separation float64        `json:"separation"`
	Deviation  float64        `json:"deviation"`
	Color      string         `json:"color"`
}

func NewFrame(c chart.Chart) Frame {
	f := Frame{
		Instant:  c.Instant,
		Observer: c.Observer,
		Path:     c.Path,
		Bodies:   make([]BodyFrame, 0, len(c.Bodies)),
		Aspects:  make([]AspectFrame, 0, len(c.Aspects)),
	}
	for _, s := range c.Bodies {
		f.Bodies = append(f.Bodies, BodyFrame{
			Body:      s.Body,
			Longitude: s.Position.Longitude,
			Latitude:  s.Position.Latitude,
			Distance:  s.Position.Distance,
			Sign:      s.Placement.Sign.String(),
			Glyph:     s.Placement.Sign.Glyph(),
			Label:     s.Placement.String(),
			House:     s.House,
			Source:    s.Source,
		})
	}
	for _, a := range c.Aspects {
		f.Aspects = append(f.Aspects, AspectFrame{
			A:          a.A,
			B:          a.B,
			Name:       a.Angle.Name(),
			Angle:      float64(a.Angle),
			Separation: a.Separation,
			Deviation:  a.Deviation,
			Color:      a.Angle.Color().Hex(),
		})
	}
	return f
}
