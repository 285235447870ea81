// Package recurrence models how often a recurring transaction or paycheck
// repeats, and walks schedules forward in time.
package recurrence

import (
	"fmt"
	"time"
)

// Frequency is how often something recurs.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// PeriodsPerYear returns how many times the frequency occurs in a year.
// An unknown frequency is a programmer fault and returns an error.
func PeriodsPerYear(f Frequency) (int64, error) {
	switch f {
	case Daily:
		return 365, nil
	case Weekly:
		return 52, nil
	case BiWeekly:
		return 26, nil
	case Monthly:
		return 12, nil
	case Quarterly:
		return 4, nil
	case Yearly:
		return 1, nil
	default:
		return 0, fmt.Errorf("recurrence: unknown frequency %q", f)
	}
}

// Valid reports whether f is one of the known frequencies.
func Valid(f Frequency) bool {
	_, err := PeriodsPerYear(f)
	return err == nil
}

// Next returns the occurrence following t for the frequency.
// Month-based frequencies use calendar stepping (AddDate), so the 31st may
// clamp forward the way time.AddDate does.
func Next(f Frequency, t time.Time) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case BiWeekly:
		return t.AddDate(0, 0, 14)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Quarterly:
		return t.AddDate(0, 3, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// InstancesBetween enumerates scheduled occurrences of a series anchored at
// start that fall within [from, to], inclusive on both ends.
func InstancesBetween(f Frequency, start, from, to time.Time) []time.Time {
	if !Valid(f) || to.Before(from) {
		return nil
	}
	var out []time.Time
	for t := start; !t.After(to); t = Next(f, t) {
		if !t.Before(from) {
			out = append(out, t)
		}
	}
	return out
}
