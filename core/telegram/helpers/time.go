package helpers

import (
	"time"
)

// StampLayout is the timestamp layout used in staff facing messages.
const StampLayout = "2006-01-02 15:04"

// FormatStamp renders t in loc (UTC when nil) for staff messages.
func FormatStamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(StampLayout)
}
