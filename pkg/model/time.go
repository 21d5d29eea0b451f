package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NanoTime is a Unix timestamp in nanoseconds. The zero value means unset.
type NanoTime int64

// Time converts to time.Time. The zero value converts to the zero time.
func (t NanoTime) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(t))
}

// UnmarshalJSON accepts a number or a quoted number.
func (t *NanoTime) UnmarshalJSON(data []byte) error {
	v, err := parseInt64JSON(data)
	if err != nil {
		return fmt.Errorf("nano time: %w", err)
	}
	*t = NanoTime(v)
	return nil
}

// UnixTime is a Unix timestamp in seconds. The zero value means unset.
type UnixTime int64

// Time converts to time.Time. The zero value converts to the zero time.
func (t UnixTime) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t), 0)
}

// UnmarshalJSON accepts a number or a quoted number.
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	v, err := parseInt64JSON(data)
	if err != nil {
		return fmt.Errorf("unix time: %w", err)
	}
	*t = UnixTime(v)
	return nil
}

// Count is an int64 the hub may encode as a JSON string.
type Count int64

// UnmarshalJSON accepts a number or a quoted number.
func (c *Count) UnmarshalJSON(data []byte) error {
	v, err := parseInt64JSON(data)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	*c = Count(v)
	return nil
}

func parseInt64JSON(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	}
	return strconv.ParseInt(string(data), 10, 64)
}
