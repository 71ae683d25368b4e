package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Policy reports whether a local time is a publish moment.
type Policy interface {
	Matches(local time.Time) bool
}

// Gate applies a Policy in a fixed time zone and honours the force flag.
type Gate struct {
	policy   Policy
	location *time.Location
}

// NewGate binds policy to loc; a nil loc means UTC.
func NewGate(policy Policy, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{policy: policy, location: loc}
}

// Allow is a pure predicate: it may be called any number of times for the same instant.
func (g *Gate) Allow(now time.Time, force bool) bool {
	if force {
		return true
	}
	if g == nil || g.policy == nil {
		return false
	}
	return g.policy.Matches(now.In(g.location))
}

// Slot is a time of day with minute precision.
type Slot struct {
	Hour   int
	Minute int
}

func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// ParseSlot parses "HH:MM".
func ParseSlot(value string) (Slot, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: expected HH:MM", value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return Slot{}, fmt.Errorf("slot %q: invalid hour", value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("slot %q: invalid minute", value)
	}
	return Slot{Hour: hour, Minute: minute}, nil
}

// FixedTimes passes when the local hour and minute equal one of the slots.
type FixedTimes struct {
	Slots []Slot
}

// Matches implements Policy.
func (f FixedTimes) Matches(local time.Time) bool {
	for _, s := range f.Slots {
		if local.Hour() == s.Hour && local.Minute() == s.Minute {
			return true
		}
	}
	return false
}

// Window publishes once a day at an hour in [From, To] picked by hashing the
// date together with the destination id, so each channel gets its own stable hour.
type Window struct {
	From        int
	To          int
	Destination string
}

// NewWindow validates the bounds.
func NewWindow(from, to int, destination string) (Window, error) {
	if from < 0 || to > 23 || from > to {
		return Window{}, fmt.Errorf("window [%d, %d] is not within 0..23", from, to)
	}
	return Window{From: from, To: to, Destination: destination}, nil
}

// ScheduledHour returns the publish hour for the calendar day of local.
func (w Window) ScheduledHour(local time.Time) int {
	span := uint64(w.To - w.From + 1)
	sum := xxhash.Sum64String(local.Format(time.DateOnly) + w.Destination)
	return w.From + int(sum%span)
}

// Matches implements Policy.
func (w Window) Matches(local time.Time) bool {
	return local.Hour() == w.ScheduledHour(local)
}
