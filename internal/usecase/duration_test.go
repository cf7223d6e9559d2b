package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebot/internal/domain"
)

func TestParseDurationMinutes(t *testing.T) {
	good := map[string]float64{
		"30":        30,
		" 1.5 ":     1.5,
		"0.25":      0.25,
		"1e2":       100,
		"153722867": 153722867,
	}
	for in, want := range good {
		got, err := ParseDurationMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "0", "-5", "abc", "NaN", "Inf", "-Inf", "1e400", "1e9", "1e300", "153722868", "10 minutes"} {
		_, err := ParseDurationMinutes(in)
		assert.ErrorIs(t, err, domain.ErrInvalidDuration, in)
	}
}
