// Package age parses human-readable age strings such as "90d" or "2w"
// into duration thresholds used for record retention.
package age

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Day is the base unit for all age calculations. Larger units are exact
// multiples of days; no calendar arithmetic is performed.
const Day = 24 * time.Hour

// unitDays maps a unit suffix to its length in days.
var unitDays = map[string]int64{
	"d": 1,
	"w": 7,
	"m": 30,
	"y": 365,
}

// InvalidAgeError reports an age string that could not be parsed.
type InvalidAgeError struct {
	Input  string
	Reason string
}

func (e *InvalidAgeError) Error() string {
	return fmt.Sprintf("invalid age %q: %s", e.Input, e.Reason)
}

// Parse converts an age string of the form <integer><unit> into a duration.
// Supported units: d (days), w (weeks), m (months, 30 days), y (years,
// 365 days). The integer part must be positive.
func Parse(input string) (time.Duration, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, &InvalidAgeError{Input: input, Reason: "empty string"}
	}

	// split the numeric prefix from the unit suffix
	split := len(s)
	for i, r := range s {
		if !unicode.IsDigit(r) {
			split = i
			break
		}
	}
	if split == 0 {
		return 0, &InvalidAgeError{Input: input, Reason: "no numeric prefix"}
	}

	value, err := strconv.ParseInt(s[:split], 10, 64)
	if err != nil {
		return 0, &InvalidAgeError{Input: input, Reason: "numeric prefix out of range"}
	}
	if value <= 0 {
		return 0, &InvalidAgeError{Input: input, Reason: "age must be positive"}
	}

	unit := strings.ToLower(s[split:])
	days, ok := unitDays[unit]
	if !ok {
		if unit == "" {
			return 0, &InvalidAgeError{Input: input, Reason: "missing unit suffix"}
		}
		return 0, &InvalidAgeError{Input: input, Reason: fmt.Sprintf("unknown unit %q", unit)}
	}

	if value > int64(1<<63-1)/int64(Day)/days {
		return 0, &InvalidAgeError{Input: input, Reason: "age out of range"}
	}

	return time.Duration(value) * time.Duration(days) * Day, nil
}
