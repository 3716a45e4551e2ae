// Package zodiac maps ecliptic longitude onto zodiac signs and houses.
package zodiac

import (
	"fmt"
	"math"
)

// Sign is one of the twelve 30-degree sectors of ecliptic longitude.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

const (
	// SectorWidth is the span of one sign or house in degrees.
	SectorWidth = 30.0
	// Sectors is the number of signs, and of houses.
	Sectors = 12
)

var signNames = [Sectors]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signGlyphs = [Sectors]string{"♈", "♉", "♊", "♋", "♌", "♍", "♎", "♏", "♐", "♑", "♒", "♓"}

func (s Sign) String() string {
	if s < 0 || s >= Sectors {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// Glyph returns the Unicode symbol of the sign.
func (s Sign) Glyph() string {
	if s < 0 || s >= Sectors {
		return "?"
	}
	return signGlyphs[s]
}

// Signs returns the twelve signs in order from Aries.
func Signs() []Sign {
	signs := make([]Sign, Sectors)
	for i := range signs {
		signs[i] = Sign(i)
	}
	return signs
}

// Placement locates a longitude within its sign.
type Placement struct {
	Sign   Sign `json:"sign"`
	Degree int  `json:"degree"` // 0..29
	Minute int  `json:"minute"` // 0..59
}

// Place converts a longitude normalised to [0, 360) into a placement.
func Place(longitude float64) Placement {
	within := math.Mod(longitude, SectorWidth)
	degree := int(math.Floor(within))
	minute := int(math.Floor((within - float64(degree)) * 60))

	return Placement{
		Sign:   Sign(sector(longitude)),
		Degree: clamp(degree, 0, int(SectorWidth)-1),
		Minute: clamp(minute, 0, 59),
	}
}

// String renders the placement as "Aquarius 5°0′".
func (p Placement) String() string {
	return fmt.Sprintf("%s %d°%d′", p.Sign, p.Degree, p.Minute)
}

// House returns the house index 0..11 for a longitude. Houses are a fixed
// geometric partition of twelve equal sectors starting at 0 degrees.
func House(longitude float64) int {
	return sector(longitude)
}

func sector(longitude float64) int {
	return clamp(int(math.Floor(longitude/SectorWidth)), 0, Sectors-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
