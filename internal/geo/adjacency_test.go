package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAreAdjacent(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"FR-DE neighbors", "FR", "DE", true},
		{"DE-FR symmetric", "DE", "FR", true},
		{"FR-JP not neighbors", "FR", "JP", false},
		{"US-CA neighbors", "US", "CA", true},
		{"AU-NZ neighbors", "AU", "NZ", true},
		{"GB-FR one way listed", "GB", "FR", true},
		{"FR-GB reverse not listed", "FR", "GB", false},
		{"unknown country", "ZZ", "FR", false},
		{"unknown neighbor", "FR", "ZZ", false},
		{"same country not listed", "FR", "FR", false},
		{"empty strings", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AreAdjacent(tt.a, tt.b))
		})
	}
}
