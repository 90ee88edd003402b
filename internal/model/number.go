package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional finite float decoded from the bot server. The server
// sends money as strings ("1520.75"), counters as numbers and missing values
// as null; anything that does not convert to a finite float is absent.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a present Number, or an absent one for NaN/Inf
func NewNumber(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// Ptr returns nil when absent
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// OrZero returns the value, or 0 when absent
func (n Number) OrZero() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// UnmarshalJSON accepts numbers, numeric strings, booleans and null
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			// Number("") is 0 in the browser that used to render this
			*n = NewNumber(0)
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = NewNumber(v)
		}
		return nil
	case 't':
		*n = NewNumber(1)
		return nil
	case 'f':
		*n = NewNumber(0)
		return nil
	case '{', '[':
		return nil
	}

	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		*n = NewNumber(v)
	}
	return nil
}

// MarshalJSON writes null for absent values
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Seconds is an optional whole number of seconds. Fractional values from the
// server are rounded to the nearest second on decode.
type Seconds struct {
	Value int64
	Valid bool
}

// NewSeconds returns a present Seconds value
func NewSeconds(v int64) Seconds {
	return Seconds{Value: v, Valid: true}
}

// Ptr returns nil when absent
func (s Seconds) Ptr() *int64 {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}

// UnmarshalJSON rounds numeric input; non-finite input is absent
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var n Number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = Seconds{}
	if n.Valid {
		*s = NewSeconds(int64(math.Round(n.Value)))
	}
	return nil
}

// MarshalJSON writes null for absent values
func (s Seconds) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}
