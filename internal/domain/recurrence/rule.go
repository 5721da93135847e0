package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// Frequency is the base period of a rule.
type Frequency string

// Supported frequencies.
const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// Termination describes how a rule ends.
type Termination int

const (
	// Unbounded rules never end on their own.
	Unbounded Termination = iota
	// ByCount rules end after a fixed number of occurrences.
	ByCount
	// ByUntil rules end at an inclusive date or instant.
	ByUntil
)

// String returns the termination name.
func (t Termination) String() string {
	switch t {
	case ByCount:
		return "count"
	case ByUntil:
		return "until"
	default:
		return "unbounded"
	}
}

var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

func weekdayFromCode(code string) (time.Weekday, bool) {
	for i, c := range weekdayCodes {
		if c == code {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// WeekdaySelector is one BYDAY entry. Ordinal 0 selects every matching
// weekday in the period; a non-zero ordinal picks the nth (or nth from the
// end when negative) matching weekday of the month.
type WeekdaySelector struct {
	Weekday time.Weekday
	Ordinal int
}

// String renders the selector as it appears in a rule, e.g. "MO" or "-1FR".
func (w WeekdaySelector) String() string {
	if w.Ordinal == 0 {
		return weekdayCodes[w.Weekday]
	}
	return strconv.Itoa(w.Ordinal) + weekdayCodes[w.Weekday]
}

// Rule is a parsed, validated recurrence rule. A Rule is immutable once
// returned by Parse; accessors hand out copies.
type Rule struct {
	freq        Frequency
	interval    int
	byDay       []WeekdaySelector
	byMonthDay  []int
	count       int
	until       time.Time
	hasUntil    bool
	untilIsDate bool
}

// Frequency returns the rule's base period.
func (r *Rule) Frequency() Frequency { return r.freq }

// Interval returns the period stride, always >= 1.
func (r *Rule) Interval() int { return r.interval }

// ByDay returns a copy of the BYDAY selectors.
func (r *Rule) ByDay() []WeekdaySelector {
	return append([]WeekdaySelector(nil), r.byDay...)
}

// ByMonthDay returns a copy of the BYMONTHDAY values.
func (r *Rule) ByMonthDay() []int {
	return append([]int(nil), r.byMonthDay...)
}

// Count returns the COUNT limit, or 0 when the rule has none.
func (r *Rule) Count() int { return r.count }

// Until returns the UNTIL bound. dateOnly is true when the rule gave a bare
// date, in which case the bound covers that whole calendar day.
func (r *Rule) Until() (until time.Time, dateOnly bool, ok bool) {
	return r.until, r.untilIsDate, r.hasUntil
}

// Termination reports which of count, until or unbounded applies.
func (r *Rule) Termination() Termination {
	switch {
	case r.count > 0:
		return ByCount
	case r.hasUntil:
		return ByUntil
	default:
		return Unbounded
	}
}

// String renders the canonical form of the rule. Parsing the result yields
// a rule Equal to r.
func (r *Rule) String() string {
	parts := []string{"FREQ=" + string(r.freq)}
	if r.interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.interval))
	}
	if len(r.byDay) > 0 {
		days := make([]string, len(r.byDay))
		for i, d := range r.byDay {
			days[i] = d.String()
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if len(r.byMonthDay) > 0 {
		days := make([]string, len(r.byMonthDay))
		for i, d := range r.byMonthDay {
			days[i] = strconv.Itoa(d)
		}
		parts = append(parts, "BYMONTHDAY="+strings.Join(days, ","))
	}
	if r.count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.count))
	}
	if r.hasUntil {
		if r.untilIsDate {
			parts = append(parts, "UNTIL="+r.until.Format(untilDateLayout))
		} else {
			parts = append(parts, "UNTIL="+r.until.UTC().Format(untilUTCLayout))
		}
	}
	return strings.Join(parts, ";")
}

// Equal reports whether r and o describe the same recurrence.
func (r *Rule) Equal(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.freq != o.freq || r.interval != o.interval || r.count != o.count {
		return false
	}
	if r.hasUntil != o.hasUntil || r.untilIsDate != o.untilIsDate {
		return false
	}
	if r.hasUntil && !r.until.Equal(o.until) {
		return false
	}
	if len(r.byDay) != len(o.byDay) || len(r.byMonthDay) != len(o.byMonthDay) {
		return false
	}
	for i := range r.byDay {
		if r.byDay[i] != o.byDay[i] {
			return false
		}
	}
	for i := range r.byMonthDay {
		if r.byMonthDay[i] != o.byMonthDay[i] {
			return false
		}
	}
	return true
}
