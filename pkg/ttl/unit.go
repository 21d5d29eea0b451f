package ttl

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownUnit is returned for unit names outside the supported set.
var ErrUnknownUnit = errors.New("unknown unit")

// Unit is a time-to-live input unit.
type Unit string

const (
	Nanoseconds  Unit = "ns"
	Milliseconds Unit = "ms"
	Seconds      Unit = "s"
	Minutes      Unit = "m"
	Hours        Unit = "h"
	Infinite     Unit = "∞"
)

// Units lists the finite units from the largest to the smallest.
var Units = []Unit{Hours, Minutes, Seconds, Milliseconds, Nanoseconds}

// Nanos returns the length of one unit in nanoseconds. Infinite has none.
func (u Unit) Nanos() int64 {
	switch u {
	case Nanoseconds:
		return int64(time.Nanosecond)
	case Milliseconds:
		return int64(time.Millisecond)
	case Seconds:
		return int64(time.Second)
	case Minutes:
		return int64(time.Minute)
	case Hours:
		return int64(time.Hour)
	default:
		return 0
	}
}

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == Infinite || u.Nanos() > 0
}

// String returns the unit symbol.
func (u Unit) String() string {
	return string(u)
}

// ParseUnit accepts unit symbols and their long names.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "nanosecond", "nanoseconds":
		return Nanoseconds, nil
	case "ms", "millisecond", "milliseconds":
		return Milliseconds, nil
	case "s", "sec", "second", "seconds":
		return Seconds, nil
	case "m", "min", "minute", "minutes":
		return Minutes, nil
	case "h", "hour", "hours":
		return Hours, nil
	case "∞", "inf", "infinite":
		return Infinite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Convert converts value from one unit to another. Converting from or to
// Infinite yields 0.
func Convert(value float64, from, to Unit) float64 {
	if from.Nanos() == 0 || to.Nanos() == 0 {
		return 0
	}
	if from == to {
		return value
	}
	return value * float64(from.Nanos()) / float64(to.Nanos())
}

// ClosestUnit returns the largest unit in which ns is at least 1.
// Zero maps to Infinite.
func ClosestUnit(ns int64) Unit {
	if ns == 0 {
		return Infinite
	}
	if ns < 0 {
		ns = -ns
	}
	for _, u := range Units {
		if ns >= u.Nanos() {
			return u
		}
	}
	return Nanoseconds
}

// Normalize expresses ns in its closest unit.
func Normalize(ns int64) (float64, Unit) {
	u := ClosestUnit(ns)
	if u == Infinite {
		return 0, Infinite
	}
	return Convert(float64(ns), Nanoseconds, u), u
}
