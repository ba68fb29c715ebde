package rss

import (
	"fmt"
	"time"
)

var timeFieldPriority = map[FormatHint][]TimeField{
	FormatRSS:     {FieldPubDate, FieldPublished},
	FormatAtom:    {FieldUpdated, FieldPublished, FieldCreated, FieldModified},
	FormatUnknown: {FieldPublished, FieldUpdated, FieldPubDate, FieldCreated, FieldModified},
}

// CandidateFields returns the time fields consulted for hint, highest priority first.
func CandidateFields(hint FormatHint) []TimeField {
	fields, ok := timeFieldPriority[hint]
	if !ok {
		fields = timeFieldPriority[FormatUnknown]
	}
	out := make([]TimeField, len(fields))
	copy(out, fields)
	return out
}

// ResolveTime picks the publication time of e using the candidate order for hint.
// It returns nil when no candidate yields a valid timestamp.
func ResolveTime(e Entry, hint FormatHint) *time.Time {
	fields := CandidateFields(hint)

	for _, f := range fields {
		tuple, ok := e.Times[f]
		if !ok || len(tuple) == 0 {
			continue
		}
		if t, err := tuple.Time(); err == nil {
			return &t
		}
	}

	// Second pass keyed on the raw field; the tuple must still be present.
	for _, f := range fields {
		if e.Raw[f] == "" {
			continue
		}
		tuple, ok := e.Times[f]
		if !ok || len(tuple) == 0 {
			continue
		}
		if t, err := tuple.Time(); err == nil {
			return &t
		}
	}

	return nil
}

// Time builds a UTC timestamp from the first six components.
func (tt TimeTuple) Time() (time.Time, error) {
	if len(tt) < 6 {
		return time.Time{}, fmt.Errorf("time tuple has %d components, need 6", len(tt))
	}
	year, month, day, hour, minute, sec := tt[0], tt[1], tt[2], tt[3], tt[4], tt[5]

	switch {
	case year < 1 || year > 9999:
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	case month < 1 || month > 12:
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	case day < 1 || day > daysIn(time.Month(month), year):
		return time.Time{}, fmt.Errorf("day %d out of range for %04d-%02d", day, year, month)
	case hour < 0 || hour > 23:
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	case minute < 0 || minute > 59:
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	case sec < 0 || sec > 59:
		return time.Time{}, fmt.Errorf("second %d out of range", sec)
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), nil
}

// TupleFromTime converts t to a UTC tuple with weekday and yearday appended.
func TupleFromTime(t time.Time) TimeTuple {
	t = t.UTC()
	weekday := (int(t.Weekday()) + 6) % 7
	return TimeTuple{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), weekday, t.YearDay(), 0}
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
