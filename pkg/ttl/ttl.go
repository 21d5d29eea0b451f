package ttl

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Time-to-live errors.
var (
	ErrNegative     = errors.New("time-to-live must not be negative")
	ErrBelowMinimum = errors.New("time-to-live below minimum command timeout")
	ErrInvalid      = errors.New("invalid time-to-live")
)

// MinCommandTimeout is the smallest finite time-to-live accepted.
const MinCommandTimeout = 100 * time.Millisecond

// TTL is a command time-to-live. The zero value is infinite.
type TTL time.Duration

// New builds a TTL from a value in unit and validates it.
func New(value float64, unit Unit) (TTL, error) {
	if !unit.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	if unit == Infinite {
		return 0, nil
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, value)
	}
	ns := math.Round(Convert(value, unit, Nanoseconds))
	if ns >= math.MaxInt64 || ns < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v%s out of range", ErrInvalid, value, unit)
	}
	t := TTL(int64(ns))
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return t, nil
}

// Parse parses inputs such as "1.5s", "500 ms", "2m30s", "inf" or "∞".
// A bare "0" is infinite.
func Parse(s string) (TTL, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	switch strings.ToLower(compact) {
	case "":
		return 0, fmt.Errorf("%w: empty", ErrInvalid)
	case "∞", "inf", "infinite", "0":
		return 0, nil
	}
	d, err := time.ParseDuration(compact)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	t := TTL(d)
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return t, nil
}

// Validate rejects negative values and finite values below
// MinCommandTimeout.
func (t TTL) Validate() error {
	if t < 0 {
		return ErrNegative
	}
	if t != 0 && time.Duration(t) < MinCommandTimeout {
		return fmt.Errorf("%w: %s < %s", ErrBelowMinimum, time.Duration(t), MinCommandTimeout)
	}
	return nil
}

// Infinite reports whether the command never expires.
func (t TTL) Infinite() bool {
	return t == 0
}

// Duration returns t as a time.Duration.
func (t TTL) Duration() time.Duration {
	return time.Duration(t)
}

// Query renders the timeToLive query parameter value in nanoseconds.
func (t TTL) Query() string {
	return strconv.FormatInt(int64(t), 10)
}

// String renders t in its closest unit, such as "1.5 s" or "∞".
func (t TTL) String() string {
	value, unit := Normalize(int64(t))
	if unit == Infinite {
		return string(Infinite)
	}
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + string(unit)
}
