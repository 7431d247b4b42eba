package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveBMI(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		height   float64
		expected float64
	}{
		{"default observation", 60.0, 160.0, 23.44},
		{"exact value", 81.0, 180.0, 25.0},
		{"rounds half up", 50.0, 200.0, 12.5},
		{"obese", 95.0, 155.0, 39.54},
		{"zero height", 60.0, 0, 0},
		{"negative height", 60.0, -150.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveBMI(tt.weight, tt.height))
		})
	}
}

func TestDeriveBMI_MatchesFormulaAcrossRanges(t *testing.T) {
	for height := 100.0; height <= 220.0; height += 7.5 {
		for weight := 30.0; weight <= 200.0; weight += 12.25 {
			hm := height / 100
			want := round2(weight / (hm * hm))
			assert.Equal(t, want, DeriveBMI(weight, height), "weight=%v height=%v", weight, height)
		}
	}
}
