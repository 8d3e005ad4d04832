// Converts between human-entered duration strings ("24h", "90s") and plain
// seconds. Format picks a single coarse unit and truncates, so
// Parse(Format(x)) lands in the same ballpark as x but is not guaranteed to
// equal it - this is a human-facing transform, not a round-trip codec.
package prettyduration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("invalid duration")

var unitMultipliers = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
}

// accepts a bare integer (seconds) or an integer followed by exactly one
// unit suffix: s, m, h or d
func Parse(input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrInvalidDuration
	}

	numberPart := input
	multiplier := int64(1)

	if last := input[len(input)-1]; last < '0' || last > '9' {
		mult, knownUnit := unitMultipliers[last]
		if !knownUnit {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, string(last))
		}

		numberPart = input[:len(input)-1]
		multiplier = mult
	}

	number, err := strconv.ParseInt(numberPart, 10, 64)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, input)
	}

	return number * multiplier, nil
}

// renders seconds with the coarsest unit that stays readable. each breakpoint
// truncates (integer division), so e.g. 7199 s renders as "119m", not "2h".
func Format(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 120:
		return fmt.Sprintf("%ds", seconds)
	case seconds/60 < 120:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds/3600 < 48:
		return fmt.Sprintf("%dh", seconds/3600)
	case seconds/86400 < 14:
		return fmt.Sprintf("%dd", seconds/86400)
	case seconds/604800 < 12:
		return fmt.Sprintf("%dw", seconds/604800)
	case seconds/2592000 < 24: // 30-day months up to two years
		return fmt.Sprintf("%dmo", seconds/2592000)
	default:
		return fmt.Sprintf("%dy", seconds/31536000)
	}
}

func FormatDuration(duration time.Duration) string {
	return Format(int64(duration / time.Second))
}
