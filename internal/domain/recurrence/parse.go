package recurrence

import (
	"strconv"
	"strings"
	"time"
)

const (
	untilDateLayout = "20060102"
	untilUTCLayout  = "20060102T150405Z"
)

// Date-time forms accepted for UNTIL. Values without an offset are read as UTC.
var untilDateTimeLayouts = []string{
	untilUTCLayout,
	"20060102T150405",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var untilDateLayouts = []string{
	untilDateLayout,
	"2006-01-02",
}

const (
	keyFreq       = "FREQ"
	keyInterval   = "INTERVAL"
	keyByDay      = "BYDAY"
	keyByMonthDay = "BYMONTHDAY"
	keyCount      = "COUNT"
	keyUntil      = "UNTIL"
)

// Parse reads a rule string such as "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE".
// Keys and values are case-insensitive, an optional "RRULE:" prefix is
// accepted and unknown keys are ignored. Any failure is a *ParseError.
func Parse(s string) (*Rule, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len("RRULE:") && strings.EqualFold(s[:len("RRULE:")], "RRULE:") {
		s = s[len("RRULE:"):]
	}
	if strings.TrimSpace(s) == "" {
		return nil, newParseError(keyFreq, "is required")
	}

	r := &Rule{interval: 1}
	seen := make(map[string]bool)

	for _, token := range strings.Split(s, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key, value, ok := strings.Cut(token, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))

		switch key {
		case keyFreq, keyInterval, keyByDay, keyByMonthDay, keyCount, keyUntil:
		default:
			continue
		}
		if !ok {
			return nil, newParseError(key, "must be written as KEY=VALUE")
		}
		if seen[key] {
			return nil, newParseError(key, "is specified more than once")
		}
		seen[key] = true

		var err error
		switch key {
		case keyFreq:
			err = r.parseFreq(value)
		case keyInterval:
			r.interval, err = parsePositive(keyInterval, value)
		case keyCount:
			r.count, err = parsePositive(keyCount, value)
		case keyByDay:
			r.byDay, err = parseByDay(value)
		case keyByMonthDay:
			r.byMonthDay, err = parseByMonthDay(value)
		case keyUntil:
			err = r.parseUntil(value)
		}
		if err != nil {
			return nil, err
		}
	}

	if !seen[keyFreq] {
		return nil, newParseError(keyFreq, "is required")
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rule) parseFreq(value string) error {
	f := Frequency(value)
	if !f.Valid() {
		return newParseError(keyFreq, "%q is not one of DAILY, WEEKLY, MONTHLY, YEARLY", value)
	}
	r.freq = f
	return nil
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, newParseError(key, "must be a positive integer, got %q", value)
	}
	return n, nil
}

func parseByDay(value string) ([]WeekdaySelector, error) {
	items := strings.Split(value, ",")
	out := make([]WeekdaySelector, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if len(item) < 2 {
			return nil, newParseError(keyByDay, "has invalid weekday %q", item)
		}
		code := item[len(item)-2:]
		wd, ok := weekdayFromCode(code)
		if !ok {
			return nil, newParseError(keyByDay, "has invalid weekday %q", item)
		}
		sel := WeekdaySelector{Weekday: wd}
		if prefix := item[:len(item)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 || n < -5 || n > 5 {
				return nil, newParseError(keyByDay, "has invalid ordinal in %q", item)
			}
			sel.Ordinal = n
		}
		out = append(out, sel)
	}
	return out, nil
}

func parseByMonthDay(value string) ([]int, error) {
	items := strings.Split(value, ",")
	out := make([]int, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		n, err := strconv.Atoi(item)
		if err != nil || n == 0 || n < -31 || n > 31 {
			return nil, newParseError(keyByMonthDay, "has invalid day %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *Rule) parseUntil(value string) error {
	for _, layout := range untilDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			r.until, r.hasUntil, r.untilIsDate = t, true, true
			return nil
		}
	}
	for _, layout := range untilDateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			// time.Parse accepts a fraction after the seconds field even
			// when the layout has none; the canonical form cannot carry it.
			if t.Nanosecond() != 0 {
				return newParseError(keyUntil, "must not have fractional seconds")
			}
			r.until, r.hasUntil = t.UTC(), true
			return nil
		}
	}
	return newParseError(keyUntil, "has unrecognized date %q", value)
}

// check enforces the cross-key constraints.
func (r *Rule) check() error {
	if r.count > 0 && r.hasUntil {
		return newParseError(keyUntil, "cannot be combined with COUNT")
	}
	if len(r.byDay) > 0 && len(r.byMonthDay) > 0 {
		return newParseError(keyByMonthDay, "cannot be combined with BYDAY")
	}
	if len(r.byDay) > 0 {
		if r.freq != Weekly && r.freq != Monthly {
			return newParseError(keyByDay, "is only supported with WEEKLY or MONTHLY frequency")
		}
		if r.freq == Weekly {
			for _, d := range r.byDay {
				if d.Ordinal != 0 {
					return newParseError(keyByDay, "ordinal %q requires MONTHLY frequency", d.String())
				}
			}
		}
	}
	if len(r.byMonthDay) > 0 && r.freq != Monthly && r.freq != Yearly {
		return newParseError(keyByMonthDay, "is only supported with MONTHLY or YEARLY frequency")
	}
	return nil
}
