package star

import "time"

// TimeParts is the calendar decomposition of an event timestamp.
type TimeParts struct {
	Hour    int64
	Day     int64
	Week    int64
	Month   int64
	Year    int64
	Weekday int64
}

// Decompose derives the calendar fields from an epoch-millisecond
// timestamp. The anchor is fixed UTC: partition values and time-dimension
// fields must not depend on the locale of the machine running the batch.
// Week is the ISO week-of-year; Weekday follows time.Weekday (Sunday = 0).
func Decompose(ms int64) TimeParts {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return TimeParts{
		Hour:    int64(t.Hour()),
		Day:     int64(t.Day()),
		Week:    int64(week),
		Month:   int64(t.Month()),
		Year:    int64(t.Year()),
		Weekday: int64(t.Weekday()),
	}
}
