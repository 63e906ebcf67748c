package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFeetMile(t *testing.T) {
	m := FromFeet(5280)
	assert.Equal(t, 5280.0, m.Feet)
	assert.Equal(t, 1.0, m.Miles)
	assert.InDelta(t, 1609.344, m.Meters, 1e-9)
	assert.InDelta(t, 1.609344, m.Kilometers, 1e-12)
}

func TestFromFeetIdentities(t *testing.T) {
	for _, feet := range []float64{0, 1, 12.5, 528, 5280, 10560, 123456.789} {
		m := FromFeet(feet)
		assert.Equal(t, feet/5280, m.Miles, "miles for %v", feet)
		assert.Equal(t, feet*0.3048, m.Meters, "meters for %v", feet)
		assert.Equal(t, m.Meters/1000, m.Kilometers, "kilometers for %v", feet)
	}
}

func TestFromFeetNegative(t *testing.T) {
	assert.Equal(t, Measurement{}, FromFeet(-10))
}
