// Package recurrence parses RFC 5545-style recurrence rules (the commonly used
// FREQ/INTERVAL/BYDAY/BYMONTHDAY/COUNT/UNTIL subset) and expands them into
// ordered occurrence timestamps.
//
// Everything in this package is pure: no clock, no storage, no logging. The
// generator works on calendar dates in the location of the supplied start
// time and never converts between zones.
package recurrence
