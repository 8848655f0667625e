package sqlerr

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// parsingHints maps known parser messages to remediation hints.
// Matching is an exact comparison on the raw parser message.
var parsingHints = map[string]string{
	`syntax error at or near "from"`: "Did you leave a trailing comma in the select target list?",
	`syntax error at end of input`:   "Is the statement incomplete?",
}

var upper = cases.Upper(language.Und)

// NewParsingError builds a ParsingError from a raw parser message.
// The message is sentence-cased and a hint attached when one is known.
func NewParsingError(message string, position int, err error) *ParsingError {
	return &ParsingError{
		Message:  SentenceCase(message),
		Hint:     parsingHints[strings.TrimSpace(message)],
		Position: position,
		Err:      err,
	}
}

// SentenceCase upper-cases the first letter of s and leaves the rest as is.
func SentenceCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return upper.String(string(r)) + s[size:]
}
