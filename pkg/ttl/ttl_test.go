package ttl

import (
	"errors"
	"testing"
	"time"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		value    float64
		from, to Unit
		want     float64
	}{
		{1.5, Seconds, Milliseconds, 1500},
		{90, Seconds, Minutes, 1.5},
		{2, Hours, Minutes, 120},
		{1, Milliseconds, Nanoseconds, 1e6},
		{7, Seconds, Seconds, 7},
		{5, Infinite, Seconds, 0},
		{5, Seconds, Infinite, 0},
	}
	for _, tt := range tests {
		if got := Convert(tt.value, tt.from, tt.to); got != tt.want {
			t.Errorf("Convert(%v, %s, %s) = %v, want %v", tt.value, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestClosestUnit(t *testing.T) {
	tests := []struct {
		ns   int64
		want Unit
	}{
		{0, Infinite},
		{1, Nanoseconds},
		{999_999, Nanoseconds},
		{int64(time.Millisecond), Milliseconds},
		{int64(1500 * time.Millisecond), Seconds},
		{int64(59 * time.Second), Seconds},
		{int64(time.Minute), Minutes},
		{int64(3 * time.Hour), Hours},
		{-int64(2 * time.Second), Seconds},
	}
	for _, tt := range tests {
		if got := ClosestUnit(tt.ns); got != tt.want {
			t.Errorf("ClosestUnit(%d) = %s, want %s", tt.ns, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	value, unit := Normalize(int64(1500 * time.Millisecond))
	if value != 1.5 || unit != Seconds {
		t.Errorf("Normalize(1.5s) = %v %s", value, unit)
	}
	value, unit = Normalize(0)
	if value != 0 || unit != Infinite {
		t.Errorf("Normalize(0) = %v %s", value, unit)
	}
}

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"ms":       Milliseconds,
		" Seconds": Seconds,
		"min":      Minutes,
		"H":        Hours,
		"inf":      Infinite,
		"∞":        Infinite,
		"ns":       Nanoseconds,
	}
	for in, want := range tests {
		got, err := ParseUnit(in)
		if err != nil || got != want {
			t.Errorf("ParseUnit(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseUnit("days"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    Unit
		want    TTL
		wantErr error
	}{
		{"seconds", 1.5, Seconds, TTL(1500 * time.Millisecond), nil},
		{"minimum", 100, Milliseconds, TTL(MinCommandTimeout), nil},
		{"hours", 1, Hours, TTL(time.Hour), nil},
		{"infinite", 5, Infinite, 0, nil},
		{"zero", 0, Seconds, 0, nil},
		{"below minimum", 50, Milliseconds, 0, ErrBelowMinimum},
		{"negative", -1, Seconds, 0, ErrNegative},
		{"unknown unit", 1, Unit("d"), 0, ErrUnknownUnit},
		{"overflow", 1e12, Hours, 0, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.value, tt.unit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("New() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    TTL
		wantErr error
	}{
		{"1.5s", TTL(1500 * time.Millisecond), nil},
		{"500 ms", TTL(500 * time.Millisecond), nil},
		{" 2m30s ", TTL(150 * time.Second), nil},
		{"1h", TTL(time.Hour), nil},
		{"inf", 0, nil},
		{"∞", 0, nil},
		{"0", 0, nil},
		{"50ms", 0, ErrBelowMinimum},
		{"-1s", 0, ErrNegative},
		{"abc", 0, ErrInvalid},
		{"1500", 0, ErrInvalid},
		{"", 0, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTTLRendering(t *testing.T) {
	tests := []struct {
		ttl   TTL
		str   string
		query string
	}{
		{0, "∞", "0"},
		{TTL(time.Second), "1 s", "1000000000"},
		{TTL(1500 * time.Millisecond), "1.5 s", "1500000000"},
		{TTL(150 * time.Second), "2.5 m", "150000000000"},
		{TTL(250 * time.Millisecond), "250 ms", "250000000"},
	}
	for _, tt := range tests {
		if got := tt.ttl.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		if got := tt.ttl.Query(); got != tt.query {
			t.Errorf("Query() = %q, want %q", got, tt.query)
		}
	}
	if !TTL(0).Infinite() || TTL(1).Infinite() {
		t.Error("Infinite() mismatch")
	}
}
