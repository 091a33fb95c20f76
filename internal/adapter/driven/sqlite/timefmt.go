package sqlite

import (
	"fmt"
	"time"
)

// storedTimeLayout is fixed-width so that text ordering matches time ordering.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime renders t in the layout every timestamp column is written with.
func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// nullableTime maps the zero time to NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseTime attempts to parse a time string in multiple formats that SQLite may produce.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
