package recurrence

import (
	"iter"
	"slices"
	"time"
)

// DefaultMaxPeriods caps how many base periods a Sequence examines when the
// Query does not set its own limit.
const DefaultMaxPeriods = 10000

// Query describes one expansion of a rule.
type Query struct {
	// Start anchors the series. Time of day and location come from Start.
	Start time.Time
	// End is an optional inclusive bound in addition to the rule's own.
	End *time.Time
	// From and To clip output to [From, To). Zero values are unbounded.
	From time.Time
	To   time.Time
	// MaxCount truncates output after that many occurrences when > 0.
	MaxCount int
	// MaxPeriods overrides DefaultMaxPeriods when > 0.
	MaxPeriods int
}

// Sequence lazily yields the occurrences of a rule for one Query in
// ascending order. It is not safe for concurrent use.
type Sequence struct {
	rule       *Rule
	q          Query
	maxPeriods int

	next    int // index of the next base period to expand
	periods int // periods examined so far
	pending []time.Time
	counted int // occurrences at or after Start, for COUNT
	yielded int // occurrences returned, for MaxCount
	done    bool
	err     error
}

// Occurrences returns a Sequence expanding r for q.
func (r *Rule) Occurrences(q Query) *Sequence {
	s := &Sequence{rule: r, q: q, maxPeriods: q.MaxPeriods}
	if s.maxPeriods <= 0 {
		s.maxPeriods = DefaultMaxPeriods
	}
	s.Reset()
	return s
}

// Reset rewinds the sequence to its first occurrence.
func (s *Sequence) Reset() {
	s.next = s.firstPeriod()
	s.periods = 0
	s.pending = nil
	s.counted = 0
	s.yielded = 0
	s.done = false
	s.err = nil
}

// Err returns the error that stopped the sequence, if any.
func (s *Sequence) Err() error {
	return s.err
}

// Next returns the next occurrence. ok is false once the sequence is
// exhausted or failed; check Err to tell the two apart.
func (s *Sequence) Next() (t time.Time, ok bool) {
	for !s.done {
		if s.rule.count > 0 && s.counted >= s.rule.count {
			s.done = true
			break
		}

		if len(s.pending) == 0 {
			if s.periods >= s.maxPeriods {
				s.err = &GenerationLimitError{Limit: s.maxPeriods}
				s.done = true
				break
			}
			begin := s.periodStart(s.next)
			if s.beyondBounds(begin) {
				s.done = true
				break
			}
			s.pending = s.expand(s.next)
			s.next++
			s.periods++
			continue
		}

		c := s.pending[0]
		s.pending = s.pending[1:]

		if s.afterUntil(c) || (s.q.End != nil && c.After(*s.q.End)) {
			s.done = true
			break
		}
		if s.rule.count > 0 {
			s.counted++
		}
		if !s.q.From.IsZero() && c.Before(s.q.From) {
			continue
		}
		if !s.q.To.IsZero() && !c.Before(s.q.To) {
			s.done = true
			break
		}

		s.yielded++
		if s.q.MaxCount > 0 && s.yielded >= s.q.MaxCount {
			s.done = true
		}
		return c, true
	}
	return time.Time{}, false
}

// All returns an iterator over the sequence from its first occurrence.
// Iteration stops early on error; check Err afterwards.
func (s *Sequence) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		s.Reset()
		for {
			t, ok := s.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Collect drains the sequence from the beginning into a slice.
func (s *Sequence) Collect() ([]time.Time, error) {
	var out []time.Time
	for t := range s.All() {
		out = append(out, t)
	}
	return out, s.Err()
}

func (s *Sequence) location() *time.Location {
	return s.q.Start.Location()
}

// beyondBounds reports whether every candidate of a period starting at begin
// is past one of the upper bounds.
func (s *Sequence) beyondBounds(begin time.Time) bool {
	if !s.q.To.IsZero() && !begin.Before(s.q.To) {
		return true
	}
	if s.q.End != nil && begin.After(*s.q.End) {
		return true
	}
	return s.afterUntil(begin)
}

func (s *Sequence) afterUntil(t time.Time) bool {
	if !s.rule.hasUntil {
		return false
	}
	if s.rule.untilIsDate {
		y, m, d := t.Date()
		uy, um, ud := s.rule.until.Date()
		return civilDays(y, m, d) > civilDays(uy, um, ud)
	}
	return t.After(s.rule.until)
}

// firstPeriod returns the index of the first period worth expanding. Without
// COUNT, periods entirely before From are skipped arithmetically.
func (s *Sequence) firstPeriod() int {
	if s.rule.count > 0 || s.q.From.IsZero() || !s.q.From.After(s.q.Start) {
		return 0
	}
	from := s.q.From.In(s.location())
	fy, fm, fd := from.Date()
	sy, sm, sd := s.q.Start.Date()

	var units int
	switch s.rule.freq {
	case Daily:
		units = civilDays(fy, fm, fd) - civilDays(sy, sm, sd)
	case Weekly:
		monday := civilDays(sy, sm, sd) - mondayOffset(s.q.Start.Weekday())
		units = (civilDays(fy, fm, fd) - monday) / 7
	case Monthly:
		units = (fy-sy)*12 + int(fm-sm)
	case Yearly:
		units = fy - sy
	}
	k := units/s.rule.interval - 1
	if k < 0 {
		return 0
	}
	return k
}

// periodStart returns midnight of the first day of period k.
func (s *Sequence) periodStart(k int) time.Time {
	loc := s.location()
	y, m, d := s.q.Start.Date()
	step := k * s.rule.interval
	switch s.rule.freq {
	case Weekly:
		return time.Date(y, m, d-mondayOffset(s.q.Start.Weekday())+7*step, 0, 0, 0, 0, loc)
	case Monthly:
		return time.Date(y, m+time.Month(step), 1, 0, 0, 0, 0, loc)
	case Yearly:
		return time.Date(y+step, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d+step, 0, 0, 0, 0, loc)
	}
}

// expand returns the sorted, de-duplicated candidates of period k that are
// not before Start.
func (s *Sequence) expand(k int) []time.Time {
	begin := s.periodStart(k)
	y, m, d := begin.Date()
	var out []time.Time

	switch s.rule.freq {
	case Daily:
		out = append(out, s.at(y, m, d))
	case Weekly:
		if len(s.rule.byDay) == 0 {
			out = append(out, s.at(y, m, d+mondayOffset(s.q.Start.Weekday())))
		}
		for _, sel := range s.rule.byDay {
			out = append(out, s.at(y, m, d+mondayOffset(sel.Weekday)))
		}
	case Monthly:
		out = s.monthCandidates(out, y, m)
	case Yearly:
		if len(s.rule.byMonthDay) == 0 {
			if day := s.q.Start.Day(); day <= daysIn(y, s.q.Start.Month()) {
				out = append(out, s.at(y, s.q.Start.Month(), day))
			}
			break
		}
		for month := time.January; month <= time.December; month++ {
			out = s.monthDayCandidates(out, y, month)
		}
	}

	out = slices.DeleteFunc(out, func(t time.Time) bool { return t.Before(s.q.Start) })
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

func (s *Sequence) monthCandidates(out []time.Time, y int, m time.Month) []time.Time {
	switch {
	case len(s.rule.byMonthDay) > 0:
		return s.monthDayCandidates(out, y, m)
	case len(s.rule.byDay) > 0:
		for _, sel := range s.rule.byDay {
			for _, day := range weekdaysInMonth(y, m, sel) {
				out = append(out, s.at(y, m, day))
			}
		}
		return out
	default:
		if day := s.q.Start.Day(); day <= daysIn(y, m) {
			out = append(out, s.at(y, m, day))
		}
		return out
	}
}

// monthDayCandidates appends BYMONTHDAY matches for one month. Days the
// month does not have are skipped.
func (s *Sequence) monthDayCandidates(out []time.Time, y int, m time.Month) []time.Time {
	n := daysIn(y, m)
	for _, md := range s.rule.byMonthDay {
		day := md
		if md < 0 {
			day = n + md + 1
		}
		if day >= 1 && day <= n {
			out = append(out, s.at(y, m, day))
		}
	}
	return out
}

// at builds a candidate on the given date with Start's clock and location.
func (s *Sequence) at(y int, m time.Month, d int) time.Time {
	hh, mm, ss := s.q.Start.Clock()
	return time.Date(y, m, d, hh, mm, ss, s.q.Start.Nanosecond(), s.location())
}

// weekdaysInMonth returns the days of month m matching sel.
func weekdaysInMonth(y int, m time.Month, sel WeekdaySelector) []int {
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Weekday()
	day := 1 + (int(sel.Weekday)-int(first)+7)%7
	n := daysIn(y, m)

	var days []int
	for ; day <= n; day += 7 {
		days = append(days, day)
	}
	switch {
	case sel.Ordinal > 0:
		if sel.Ordinal <= len(days) {
			return days[sel.Ordinal-1 : sel.Ordinal]
		}
		return nil
	case sel.Ordinal < 0:
		if i := len(days) + sel.Ordinal; i >= 0 {
			return days[i : i+1]
		}
		return nil
	default:
		return days
	}
}

// mondayOffset is the number of days from Monday to wd.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilDays numbers calendar days so that differences count whole days
// regardless of location.
func civilDays(y int, m time.Month, d int) int {
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
