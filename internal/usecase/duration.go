package usecase

import (
	"math"
	"strconv"
	"strings"
	"time"

	"timebot/internal/domain"
)

// ParseDurationMinutes reads a decimal number of minutes as typed by a user.
func ParseDurationMinutes(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !validMinutes(v) {
		return 0, domain.ErrInvalidDuration
	}
	return v, nil
}

// maxMinutes is the longest span a time.Duration can hold, in whole minutes.
const maxMinutes = float64(math.MaxInt64 / int64(time.Minute))

func validMinutes(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0 && v <= maxMinutes
}
