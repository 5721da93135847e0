package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		canonical string
	}{
		{"daily", "FREQ=DAILY", "FREQ=DAILY"},
		{"prefix and lower case", "rrule:freq=weekly;interval=2;byday=mo,we", "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE"},
		{"whitespace around tokens", " FREQ = daily ; COUNT = 3 ", "FREQ=DAILY;COUNT=3"},
		{"negative ordinal", "FREQ=MONTHLY;BYDAY=-1FR", "FREQ=MONTHLY;BYDAY=-1FR"},
		{"explicit positive ordinal", "FREQ=MONTHLY;BYDAY=+2TU", "FREQ=MONTHLY;BYDAY=2TU"},
		{"interval of one dropped", "FREQ=DAILY;INTERVAL=1;COUNT=5", "FREQ=DAILY;COUNT=5"},
		{"yearly month days", "FREQ=YEARLY;BYMONTHDAY=1,-1", "FREQ=YEARLY;BYMONTHDAY=1,-1"},
		{"dashed until date", "FREQ=DAILY;UNTIL=2024-12-31", "FREQ=DAILY;UNTIL=20241231"},
		{"compact until date", "FREQ=DAILY;UNTIL=20241231", "FREQ=DAILY;UNTIL=20241231"},
		{"utc until", "FREQ=DAILY;UNTIL=20241231T235959Z", "FREQ=DAILY;UNTIL=20241231T235959Z"},
		{"floating until", "FREQ=DAILY;UNTIL=20241231T120000", "FREQ=DAILY;UNTIL=20241231T120000Z"},
		{"offset until", "FREQ=DAILY;UNTIL=2024-12-31T10:00:00+02:00", "FREQ=DAILY;UNTIL=20241231T080000Z"},
		{"unknown keys and empty tokens", "FREQ=DAILY;;X-CUSTOM=1;WKST=MO", "FREQ=DAILY"},
		{"unknown bare token", "FREQ=DAILY;X-FOO", "FREQ=DAILY"},
		{"key order normalized", "BYDAY=FR;FREQ=WEEKLY", "FREQ=WEEKLY;BYDAY=FR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.canonical, r.String())

			again, err := Parse(r.String())
			require.NoError(t, err)
			assert.True(t, r.Equal(again), "canonical form should parse back to an equal rule")
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty", "", "FREQ"},
		{"prefix only", "RRULE:", "FREQ"},
		{"missing freq", "INTERVAL=2", "FREQ"},
		{"unsupported freq", "FREQ=HOURLY", "FREQ"},
		{"duplicate key", "FREQ=DAILY;FREQ=WEEKLY", "FREQ"},
		{"zero interval", "FREQ=DAILY;INTERVAL=0", "INTERVAL"},
		{"non-numeric interval", "FREQ=DAILY;INTERVAL=abc", "INTERVAL"},
		{"negative count", "FREQ=DAILY;COUNT=-1", "COUNT"},
		{"token without value", "FREQ=DAILY;COUNT", "COUNT"},
		{"count with until", "FREQ=DAILY;COUNT=3;UNTIL=20240101", "UNTIL"},
		{"byday on daily", "FREQ=DAILY;BYDAY=MO", "BYDAY"},
		{"ordinal on weekly", "FREQ=WEEKLY;BYDAY=1MO", "BYDAY"},
		{"ordinal out of range", "FREQ=MONTHLY;BYDAY=6MO", "BYDAY"},
		{"zero ordinal", "FREQ=MONTHLY;BYDAY=0MO", "BYDAY"},
		{"unknown weekday", "FREQ=WEEKLY;BYDAY=XX", "BYDAY"},
		{"empty byday", "FREQ=WEEKLY;BYDAY=", "BYDAY"},
		{"bymonthday on weekly", "FREQ=WEEKLY;BYMONTHDAY=1", "BYMONTHDAY"},
		{"bymonthday too large", "FREQ=MONTHLY;BYMONTHDAY=32", "BYMONTHDAY"},
		{"bymonthday zero", "FREQ=MONTHLY;BYMONTHDAY=0", "BYMONTHDAY"},
		{"byday with bymonthday", "FREQ=MONTHLY;BYDAY=MO;BYMONTHDAY=1", "BYMONTHDAY"},
		{"bad until", "FREQ=DAILY;UNTIL=tomorrow", "UNTIL"},
		{"fractional until", "FREQ=DAILY;UNTIL=2024-12-31T10:00:00.5Z", "UNTIL"},
		{"fractional compact until", "FREQ=DAILY;UNTIL=20241231T100000.5Z", "UNTIL"},
		{"bare recognized key", "FREQ=DAILY;UNTIL", "UNTIL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r, err := Parse(tc.input)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, ErrInvalidRule))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.field, pe.Field)
			assert.NotEmpty(t, pe.Message)
		})
	}
}

func TestRule_Accessors(t *testing.T) {
	t.Parallel()

	r, err := Parse("FREQ=MONTHLY;INTERVAL=2;BYDAY=1MO,-1FR;UNTIL=20250101")
	require.NoError(t, err)

	assert.Equal(t, Monthly, r.Frequency())
	assert.Equal(t, 2, r.Interval())
	assert.Equal(t, []WeekdaySelector{
		{Weekday: time.Monday, Ordinal: 1},
		{Weekday: time.Friday, Ordinal: -1},
	}, r.ByDay())
	assert.Empty(t, r.ByMonthDay())
	assert.Equal(t, 0, r.Count())

	until, dateOnly, ok := r.Until()
	assert.True(t, ok)
	assert.True(t, dateOnly)
	assert.True(t, until.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	days := r.ByDay()
	days[0].Ordinal = 3
	assert.Equal(t, 1, r.ByDay()[0].Ordinal, "accessors must not expose internal state")
}

func TestRule_Termination(t *testing.T) {
	t.Parallel()

	tests := map[string]Termination{
		"FREQ=DAILY":                Unbounded,
		"FREQ=DAILY;COUNT=4":        ByCount,
		"FREQ=DAILY;UNTIL=20240101": ByUntil,
	}
	for input, want := range tests {
		r, err := Parse(input)
		require.NoError(t, err)
		assert.Equal(t, want, r.Termination(), input)
	}
}

func TestRule_Equal(t *testing.T) {
	t.Parallel()

	a, err := Parse("FREQ=WEEKLY;BYDAY=MO,WE")
	require.NoError(t, err)
	b, err := Parse("freq=weekly;byday=mo,we;interval=1")
	require.NoError(t, err)
	c, err := Parse("FREQ=WEEKLY;BYDAY=WE,MO")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
