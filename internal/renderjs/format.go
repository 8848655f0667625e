package renderjs

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const indent = "  "

// call is one link in the chain, e.g. .eq('title', 'Cheese'). Options is
// an optional trailing object literal, given as "key: value" fields.
type call struct {
	name    string
	args    []string
	options []string
}

func (c call) inline() string {
	args := c.args
	if len(c.options) > 0 {
		args = append(append([]string{}, args...), "{ "+strings.Join(c.options, ", ")+" }")
	}
	return indent + "." + c.name + "(" + strings.Join(args, ", ") + ")"
}

// lines lays the call out within width columns. A call that does not fit
// hugs its trailing options object when it has one, and otherwise puts
// each argument on its own line with a trailing comma.
func (c call) lines(width int) []string {
	line := c.inline()
	if runewidth.StringWidth(line) <= width || len(c.args)+len(c.options) == 0 {
		return []string{line}
	}

	if len(c.options) > 0 {
		head := indent + "." + c.name + "("
		if len(c.args) > 0 {
			head += strings.Join(c.args, ", ") + ", "
		}
		out := []string{head + "{"}
		for _, f := range c.options {
			out = append(out, indent+indent+f+",")
		}
		return append(out, indent+"})")
	}

	out := []string{indent + "." + c.name + "("}
	for _, a := range c.args {
		out = append(out, indent+indent+a+",")
	}
	return append(out, indent+")")
}

// quote renders s as a JavaScript string literal. Single quotes are
// preferred; double quotes are used when they need fewer escapes.
func quote(s string) string {
	q := byte('\'')
	if strings.Count(s, "'") > strings.Count(s, `"`) {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
