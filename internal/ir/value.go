package ir

import (
	"encoding/json"
	"regexp"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface for filter operands.
// Only String, Int, Numeric, Null and List implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// String is a string literal.
type String string

func (String) irValue() {}

// Int is an integer literal.
type Int int64

func (Int) irValue() {}

// Numeric is a numeric literal that is not an int64, kept as written
// (e.g. "10.0", "1.5e3", "12345678901234567890"). The text is a JSON
// number.
type Numeric string

func (Numeric) irValue() {}

var numericPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Valid reports whether n is well-formed JSON number text.
func (n Numeric) Valid() bool {
	return numericPattern.MatchString(string(n)) && json.Valid([]byte(n))
}

// Null is the SQL NULL. It only appears as the operand of OpIs.
type Null struct{}

func (Null) irValue() {}

// List is the operand of OpIn. Elements are scalars (String, Int, Numeric).
type List []Value

func (List) irValue() {}

// Literal returns the unquoted textual form of a scalar value.
// Lists return the empty string; renderers format them element by element.
func Literal(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Numeric:
		return string(val)
	case Null:
		return "null"
	default:
		return ""
	}
}

// IsScalar reports whether v is a String, Int or Numeric.
func IsScalar(v Value) bool {
	switch v.(type) {
	case String, Int, Numeric:
		return true
	}
	return false
}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 which produces a different order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// Shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
