package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// valueKind discriminates the payload held by a Value.
type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindNumber
	kindString
)

// Value is a quote value: either a number or a string, stored verbatim.
// The zero Value is absent (no value at all), which is distinct from the empty string.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value {
	return Value{kind: kindNumber, num: f}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: kindString, str: s}
}

// ParseValue interprets raw text the way a spreadsheet cell would: text that parses as a
// finite number becomes a NumberValue, everything else a StringValue.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !isNonFinite(trimmed) {
			return NumberValue(f)
		}
	}
	return StringValue(raw)
}

// isNonFinite reports whether strconv would accept s as Inf or NaN, which cells never produce.
func isNonFinite(s string) bool {
	l := strings.ToLower(strings.TrimLeft(s, "+-"))
	return strings.HasPrefix(l, "inf") || l == "nan"
}

// IsAbsent reports whether the value is the zero Value.
func (v Value) IsAbsent() bool {
	return v.kind == kindAbsent
}

// IsEmpty reports whether the value is absent or the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == kindAbsent || (v.kind == kindString && v.str == "")
}

// IsNumber reports whether the value holds a number.
func (v Value) IsNumber() bool {
	return v.kind == kindNumber
}

// Float returns the numeric payload and true for numeric values.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// Text returns the string payload and true for string values.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == kindString
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num == other.num
	case kindString:
		return v.str == other.str
	default:
		return true
	}
}

// String renders the value for display. Numbers use the shortest representation
// that round-trips ("150.5", "1000000"); absent values render as "".
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers, strings as JSON strings and absent as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*v = Value{}
		return nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return fmt.Errorf("value must be a number, string or null: %w", err)
		}
		*v = NumberValue(f)
		return nil
	}
}
