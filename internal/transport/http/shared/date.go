package shared

import "time"

// ParseDate accepts YYYY-MM-DD or full RFC3339. Empty input is a zero
// time, not an error.
func ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
