package dateutil

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted by ToISODate, tried in order. Numeric fields accept
// both padded and unpadded digits.
var layouts = []string{
	"20060102",        // 20240214
	"2-1-2006",        // 14-02-2024
	"2.1.2006",        // 14.02.2024
	"1/2/2006",        // 02/14/2024, month first
	"2006/1/2",        // 2024/02/14
	"January 2, 2006", // February 14, 2024
	"2 January 2006",  // 14 February 2024
	"2006-1-2",        // 2024-02-14
}

// ToISODate converts a date string in one of the accepted layouts to
// ISO-8601 (YYYY-MM-DD).
func ToISODate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date string")
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognized date format: %q", s)
}
