package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Text is an optional scalar rendered verbatim. The bot server is loose about
// types (contract ids arrive as numbers or strings), so any JSON scalar is
// kept in its textual form.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a present Text
func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

// UnmarshalJSON keeps strings as-is and numbers/booleans in their literal form
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = NewText(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return nil
	}
	*t = NewText(string(data))
	return nil
}

// MarshalJSON writes null for absent values
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// Number converts the text the way the server's numeric strings are meant to
// be read
func (t Text) Number() Number {
	if !t.Valid {
		return Number{}
	}
	s := strings.TrimSpace(t.Value)
	if s == "" {
		return NewNumber(0)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return NewNumber(v)
}

// Time parses the text as an instant. Empty or unparseable text yields false.
func (t Text) Time() (time.Time, bool) {
	if !t.Valid || t.Value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, t.Value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
