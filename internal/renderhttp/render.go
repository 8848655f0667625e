// Package renderhttp renders IR statements as PostgREST HTTP requests.
//
// The output is always a GET on /<relation> with query parameters:
//
//	select=<targets>          omitted when the only target is *
//	<column>=[not.]<op>.<v>   one per column filter
//	[not.]<and|or>=(...)      one per grouped logical filter
//	order=<col>[.dir][.nulls]
//	limit=<n>, offset=<n>
//
// A top-level AND that is not negated is flattened into repeated
// parameters, since PostgREST ANDs them implicitly.
package renderhttp

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/sql2rest/internal/ir"
	"github.com/roach88/sql2rest/internal/sqlerr"
)

// Param is one query parameter. Order is significant for stable output.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Request is a rendered PostgREST request.
type Request struct {
	Method string  `json:"method"`
	Path   string  `json:"path"`
	Params []Param `json:"params"`
}

// reservedChars stay unescaped in the query string; PostgREST syntax
// relies on them and they are legal in a query component.
var reservedChars = []string{"*", "(", ")", ",", ":", "!", ">", "-"}

// Query returns the encoded query string without the leading "?".
func (r *Request) Query() string {
	parts := make([]string, len(r.Params))
	for i, p := range r.Params {
		parts[i] = escape(p.Key) + "=" + escape(p.Value)
	}
	return strings.Join(parts, "&")
}

// FullPath returns the path plus the encoded query string, if any.
func (r *Request) FullPath() string {
	if len(r.Params) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query()
}

func escape(s string) string {
	escaped := url.QueryEscape(s)
	for _, c := range reservedChars {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(c), c)
	}
	return escaped
}

// Render converts a statement into a GET request.
func Render(stmt ir.Statement) (*Request, error) {
	if result := ir.Validate(stmt); !result.Valid {
		return nil, sqlerr.NewRenderError(sqlerr.RendererHTTP, "invalid statement: %s", strings.Join(result.Problems, "; "))
	}

	sel, ok := stmt.(*ir.Select)
	if !ok {
		return nil, sqlerr.NewRenderError(sqlerr.RendererHTTP, "unsupported statement type %T", stmt)
	}

	req := &Request{
		Method: "GET",
		Path:   "/" + sel.From,
	}

	if !isSelectStar(sel.Targets) {
		req.Params = append(req.Params, Param{Key: "select", Value: SelectList(sel.Targets, ",")})
	}

	if sel.Filter != nil {
		req.Params = appendFilter(req.Params, sel.Filter)
	}

	if len(sel.Sorts) > 0 {
		sorts := make([]string, len(sel.Sorts))
		for i, s := range sel.Sorts {
			sorts[i] = renderSort(s)
		}
		req.Params = append(req.Params, Param{Key: "order", Value: strings.Join(sorts, ",")})
	}

	if sel.Limit != nil {
		if sel.Limit.Count != nil {
			req.Params = append(req.Params, Param{Key: "limit", Value: strconv.FormatInt(*sel.Limit.Count, 10)})
		}
		if sel.Limit.Offset != nil {
			req.Params = append(req.Params, Param{Key: "offset", Value: strconv.FormatInt(*sel.Limit.Offset, 10)})
		}
	}

	return req, nil
}

// isSelectStar reports whether targets is exactly a bare *.
func isSelectStar(targets []ir.Target) bool {
	if len(targets) != 1 {
		return false
	}
	col, ok := targets[0].(*ir.ColumnTarget)
	return ok && col.Column == "*" && col.Alias == "" && col.Cast == ""
}

// SelectList renders targets in PostgREST select syntax, joined by sep at
// every nesting level.
func SelectList(targets []ir.Target, sep string) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = renderTarget(t, sep)
	}
	return strings.Join(parts, sep)
}

func renderTarget(t ir.Target, sep string) string {
	switch target := t.(type) {
	case *ir.ColumnTarget:
		var b strings.Builder
		if target.Alias != "" {
			b.WriteString(target.Alias + ":")
		}
		b.WriteString(target.Column)
		if target.Cast != "" {
			b.WriteString("::" + target.Cast)
		}
		return b.String()
	case *ir.AggregateTarget:
		var b strings.Builder
		if target.Alias != "" {
			b.WriteString(target.Alias + ":")
		}
		if target.Column != "" {
			b.WriteString(target.Column)
			if target.InputCast != "" {
				b.WriteString("::" + target.InputCast)
			}
			b.WriteString(".")
		}
		b.WriteString(string(target.FunctionName) + "()")
		if target.OutputCast != "" {
			b.WriteString("::" + target.OutputCast)
		}
		return b.String()
	case *ir.EmbeddedTarget:
		var b strings.Builder
		if target.Flatten {
			b.WriteString("...")
		} else if target.Alias != "" {
			b.WriteString(target.Alias + ":")
		}
		b.WriteString(target.Relation)
		if target.JoinType == ir.JoinInner {
			b.WriteString("!inner")
		}
		b.WriteString("(" + SelectList(target.Targets, sep) + ")")
		return b.String()
	default:
		return ""
	}
}

func renderSort(s ir.Sort) string {
	out := s.Column
	if s.Direction != ir.SortDefault {
		out += "." + string(s.Direction)
	}
	if s.Nulls != ir.NullsDefault {
		out += ".nulls" + string(s.Nulls)
	}
	return out
}
