package inventory

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindText
	kindNumber
)

// Value is a field read from the ERP: either Absent or a present text or
// number. The ERP reports unset fields as false, null, a missing key or an
// empty string; all of them decode to Absent. The zero Value is Absent.
type Value struct {
	kind valueKind
	text string
	num  float64
}

// Absent returns the absent value
func Absent() Value { return Value{} }

// Text returns a present text value, or Absent when s is blank
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	return Value{kind: kindText, text: s}
}

// Number returns a present numeric value
func Number(f float64) Value {
	return Value{kind: kindNumber, num: f}
}

// IsAbsent reports whether the ERP provided no usable value
func (v Value) IsAbsent() bool { return v.kind == kindAbsent }

// Float returns the numeric payload when the value is a number
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// String returns the value as text, "" when absent
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// UnmarshalJSON decodes ERP field values. Many2one pairs ([id, "label"])
// decode to their label; any other array or object is Absent, as is a
// number outside the float64 range. It never returns an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n', 'f':
		return nil
	case 't':
		*v = Text("true")
		return nil
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			*v = Text(s)
		}
		return nil
	case '[':
		var pair []json.RawMessage
		if json.Unmarshal(data, &pair) == nil && len(pair) == 2 {
			var label string
			if json.Unmarshal(pair[1], &label) == nil {
				*v = Text(label)
			}
		}
		return nil
	case '{':
		return nil
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		*v = Number(f)
		return nil
	}
}

// MarshalJSON writes absent values as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// CoalesceString returns the value's text when present, fallback otherwise
func CoalesceString(v Value, fallback string) string {
	if v.IsAbsent() {
		return fallback
	}
	return v.String()
}
