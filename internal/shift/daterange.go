package shift

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange filters events by calendar day, inclusive on both ends. A zero
// From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// AllTime matches every event.
var AllTime = DateRange{}

// NewDateRange truncates both bounds to the start of their calendar day in
// their own location.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: startOfDay(from), To: startOfDay(to)}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return DateRange{}, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange,
			r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses YYYY-MM-DD bounds in loc. Empty strings are open bounds.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f, t time.Time
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if f, err = time.ParseInLocation(DateLayout, from, loc); err != nil {
			return DateRange{}, fmt.Errorf("%w: from: %v", ErrInvalidDateRange, err)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if t, err = time.ParseInLocation(DateLayout, to, loc); err != nil {
			return DateRange{}, fmt.Errorf("%w: to: %v", ErrInvalidDateRange, err)
		}
	}
	return NewDateRange(f, t)
}

// Start is the first instant matched, if bounded.
func (r DateRange) Start() (time.Time, bool) {
	if r.From.IsZero() {
		return time.Time{}, false
	}
	return startOfDay(r.From), true
}

// End is the first instant after the range, if bounded.
func (r DateRange) End() (time.Time, bool) {
	if r.To.IsZero() {
		return time.Time{}, false
	}
	return startOfDay(r.To).AddDate(0, 0, 1), true
}

func (r DateRange) Contains(t time.Time) bool {
	if start, ok := r.Start(); ok && t.Before(start) {
		return false
	}
	if end, ok := r.End(); ok && !t.Before(end) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	from, to := "*", "*"
	if !r.From.IsZero() {
		from = r.From.Format(DateLayout)
	}
	if !r.To.IsZero() {
		to = r.To.Format(DateLayout)
	}
	return from + ".." + to
}

func startOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
