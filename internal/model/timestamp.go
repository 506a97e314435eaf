package model

import "time"

// TimestampLayout is the canonical UTC instant format used for stored timestamps.
// Fixed width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp converts unix seconds to the canonical timestamp.
func FormatTimestamp(unixSeconds uint64) string {
	return FormatTime(time.Unix(int64(unixSeconds), 0))
}

// FormatTime renders t in the canonical layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a canonical timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}
