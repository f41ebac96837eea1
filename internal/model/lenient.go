package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Push payloads come from an untrusted producer. The types in this file never
// fail to decode: a value of the wrong JSON type decodes to its zero value so
// that one bad field cannot discard the rest of an event.

// Num is a float64 that also accepts numeric strings. Anything else is 0.
type Num float64

func (n *Num) UnmarshalJSON(b []byte) error {
	v, _ := parseNum(b)
	*n = Num(v)
	return nil
}

// Float returns n as a plain float64.
func (n Num) Float() float64 { return float64(n) }

// Int truncates n toward zero.
func (n Num) Int() int { return int(n) }

// OptNum is a number that may be absent. Valid is false when the field was
// missing, null, or not numeric.
type OptNum struct {
	Value float64
	Valid bool
}

func (o *OptNum) UnmarshalJSON(b []byte) error {
	o.Value, o.Valid = parseNum(b)
	return nil
}

func (o OptNum) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Some returns a valid OptNum holding v.
func Some(v float64) OptNum { return OptNum{Value: v, Valid: true} }

// Text is a string that also accepts numbers and booleans in their literal form.
// Objects, arrays and null decode to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(b)
	}
	return nil
}

// String returns t as a plain string.
func (t Text) String() string { return string(t) }

// Flag is a bool that also accepts numbers (non-zero is true) and strings
// understood by strconv.ParseBool.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("true")):
		*f = true
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = false
			return nil
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		*f = Flag(err == nil && v)
	default:
		v, ok := parseNum(b)
		*f = Flag(ok && v != 0)
	}
	return nil
}

// Decode unmarshals an event payload into v. It reports false when data is not
// a JSON object, in which case v is left at its zero value.
func Decode(data []byte, v any) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func parseNum(b []byte) (float64, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0, false
	}
	s := string(b)
	switch b[0] {
	case '"':
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
	case '{', '[', 't', 'f', 'n':
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
