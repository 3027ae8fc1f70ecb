package models

import "time"

// Status is a poster's lifecycle label derived from its declared period.
type Status string

const (
	StatusUnspecified Status = "Unspecified"
	StatusNotStarted  Status = "NotStarted"
	StatusOpen        Status = "Open"
	StatusClosed      Status = "Closed"
)

const dateLayout = "2006-01-02"

// DeriveStatus maps a declared date range and a reference date to a status.
// Absent or unparsable dates yield StatusUnspecified. Total: never fails.
func DeriveStatus(start, end string, ref time.Time) Status {
	s, errS := time.Parse(dateLayout, start)
	e, errE := time.Parse(dateLayout, end)
	if errS != nil || errE != nil {
		return StatusUnspecified
	}
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case day.Before(s):
		return StatusNotStarted
	case day.After(e):
		return StatusClosed
	default:
		return StatusOpen
	}
}

// Status derives the lifecycle label for the period at the reference date.
func (p Period) Status(ref time.Time) Status {
	return DeriveStatus(p.Start, p.End, ref)
}

// Inverted reports whether both dates parse and start is after end.
// Storage does not enforce ordering; callers validate before deriving status.
func (p Period) Inverted() bool {
	s, errS := time.Parse(dateLayout, p.Start)
	e, errE := time.Parse(dateLayout, p.End)
	return errS == nil && errE == nil && s.After(e)
}
