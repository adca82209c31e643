package util

import (
	"time"
)

// FromEpochMillis converts a millisecond unix timestamp into a time, zero stays zero
func FromEpochMillis(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}

	return time.UnixMilli(millis)
}

// ClockTime formats the wall clock part of t in the local timezone
func ClockTime(t time.Time) string {
	if t.IsZero() {
		return "--:--:--"
	}

	return t.Local().Format("15:04:05")
}
