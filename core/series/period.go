package series

import (
	"fmt"
	"strconv"
	"time"
)

// ParsePeriod maps a year and provider period code to the first day of that period.
func ParsePeriod(year int, code string) (time.Time, error) {
	if len(code) != 3 || !isDigit(code[1]) || !isDigit(code[2]) {
		return time.Time{}, fmt.Errorf("unsupported period code %q", code)
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported period code %q", code)
	}

	var month int
	switch code[0] {
	case 'M':
		if n < 1 || n > 12 {
			return time.Time{}, fmt.Errorf("unsupported period code %q", code)
		}
		month = n
	case 'Q':
		if n < 1 || n > 4 {
			return time.Time{}, fmt.Errorf("unsupported period code %q", code)
		}
		month = (n-1)*3 + 1
	case 'A':
		if n != 1 {
			return time.Time{}, fmt.Errorf("unsupported period code %q", code)
		}
		month = 1
	default:
		return time.Time{}, fmt.Errorf("unsupported period code %q", code)
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
