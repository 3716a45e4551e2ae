package zodiac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlace(t *testing.T) {
	tests := []struct {
		name      string
		longitude float64
		expected  Placement
	}{
		{"Start of Aries", 0, Placement{Sign: Aries, Degree: 0, Minute: 0}},
		{"End of Pisces", 359.9999999, Placement{Sign: Pisces, Degree: 29, Minute: 59}},
		{"Exactly Taurus", 30, Placement{Sign: Taurus, Degree: 0, Minute: 0}},
		{"Sun at the reference epoch", 305, Placement{Sign: Aquarius, Degree: 5, Minute: 0}},
		{"Half a degree", 45.5, Placement{Sign: Taurus, Degree: 15, Minute: 30}},
		{"Last minute of Aries", 29.99, Placement{Sign: Aries, Degree: 29, Minute: 59}},
		{"Libra", 187.25, Placement{Sign: Libra, Degree: 7, Minute: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Place(tt.longitude))
		})
	}
}

func TestPlacementRanges(t *testing.T) {
	for lon := 0.0; lon < 360; lon += 0.37 {
		p := Place(lon)
		assert.GreaterOrEqual(t, int(p.Sign), 0)
		assert.LessOrEqual(t, int(p.Sign), 11)
		assert.GreaterOrEqual(t, p.Degree, 0)
		assert.LessOrEqual(t, p.Degree, 29)
		assert.GreaterOrEqual(t, p.Minute, 0)
		assert.LessOrEqual(t, p.Minute, 59)
	}
}

func TestPlacementString(t *testing.T) {
	assert.Equal(t, "Aquarius 5°0′", Place(305).String())
	assert.Equal(t, "Taurus 15°30′", Place(45.5).String())
}

func TestHouse(t *testing.T) {
	tests := []struct {
		longitude float64
		expected  int
	}{
		{0, 0},
		{29.999, 0},
		{30, 1},
		{185, 6},
		{359.999, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, House(tt.longitude), "longitude %v", tt.longitude)
	}
}

func TestSigns(t *testing.T) {
	signs := Signs()
	assert.Len(t, signs, 12)
	assert.Equal(t, "Aries", signs[0].String())
	assert.Equal(t, "Pisces", signs[11].String())
	assert.Equal(t, "♒", Aquarius.Glyph())
	assert.Equal(t, "Sign(12)", Sign(12).String())
	assert.Equal(t, "?", Sign(-1).Glyph())
}
