package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a statement.
// It is the serialization used for fingerprints, the translation log, and
// `translate --to ir`.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Empty optional fields are omitted
//  5. Numeric literals are written as spelled in the source ("10.0" stays 10.0)
func MarshalCanonical(stmt Statement) ([]byte, error) {
	tree, err := statementTree(stmt)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(tree)
}

// statementTree lowers a statement to plain maps, slices and scalars.
func statementTree(stmt Statement) (map[string]any, error) {
	sel, ok := stmt.(*Select)
	if !ok || sel == nil {
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}

	obj := map[string]any{
		"type": "select",
		"from": sel.From,
	}

	targets, err := targetsTree(sel.Targets)
	if err != nil {
		return nil, err
	}
	obj["targets"] = targets

	if sel.Filter != nil {
		f, err := filterTree(sel.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		obj["filter"] = f
	}

	if len(sel.Sorts) > 0 {
		sorts := make([]any, len(sel.Sorts))
		for i, s := range sel.Sorts {
			so := map[string]any{"column": s.Column}
			putString(so, "direction", string(s.Direction))
			putString(so, "nulls", string(s.Nulls))
			sorts[i] = so
		}
		obj["sorts"] = sorts
	}

	if sel.Limit != nil {
		lim := map[string]any{}
		if sel.Limit.Count != nil {
			lim["count"] = *sel.Limit.Count
		}
		if sel.Limit.Offset != nil {
			lim["offset"] = *sel.Limit.Offset
		}
		obj["limit"] = lim
	}

	return obj, nil
}

func targetsTree(targets []Target) ([]any, error) {
	out := make([]any, len(targets))
	for i, t := range targets {
		switch target := t.(type) {
		case *ColumnTarget:
			o := map[string]any{"type": "column-target", "column": target.Column}
			putString(o, "alias", target.Alias)
			putString(o, "cast", target.Cast)
			out[i] = o
		case *AggregateTarget:
			o := map[string]any{"type": "aggregate-target", "functionName": string(target.FunctionName)}
			putString(o, "column", target.Column)
			putString(o, "inputCast", target.InputCast)
			putString(o, "outputCast", target.OutputCast)
			putString(o, "alias", target.Alias)
			out[i] = o
		case *EmbeddedTarget:
			children, err := targetsTree(target.Targets)
			if err != nil {
				return nil, fmt.Errorf("embedded %q: %w", target.Relation, err)
			}
			o := map[string]any{
				"type":     "embedded-target",
				"relation": target.Relation,
				"joinType": string(target.JoinType),
				"joinedColumns": map[string]any{
					"left":  map[string]any{"relation": target.JoinedColumns.Left.Relation, "column": target.JoinedColumns.Left.Column},
					"right": map[string]any{"relation": target.JoinedColumns.Right.Relation, "column": target.JoinedColumns.Right.Column},
				},
				"targets": children,
				"flatten": target.Flatten,
			}
			putString(o, "alias", target.Alias)
			out[i] = o
		default:
			return nil, fmt.Errorf("targets[%d]: unsupported target type: %T", i, t)
		}
	}
	return out, nil
}

func filterTree(f Filter) (map[string]any, error) {
	switch filter := f.(type) {
	case *ColumnFilter:
		v, err := valueTree(filter.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", filter.Column, err)
		}
		return map[string]any{
			"type":     "column",
			"column":   filter.Column,
			"operator": string(filter.Operator),
			"value":    v,
			"negate":   filter.Negate,
		}, nil
	case *LogicalFilter:
		values := make([]any, len(filter.Values))
		for i, child := range filter.Values {
			c, err := filterTree(child)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", filter.Operator, i, err)
			}
			values[i] = c
		}
		return map[string]any{
			"type":     "logical",
			"operator": string(filter.Operator),
			"values":   values,
			"negate":   filter.Negate,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func valueTree(v Value) (any, error) {
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Numeric:
		if !val.Valid() {
			return nil, fmt.Errorf("malformed numeric literal: %q", string(val))
		}
		return json.Number(val), nil
	case Null:
		return nil, nil
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			e, err := valueTree(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func putString(obj map[string]any, key, value string) {
	if value != "" {
		obj[key] = value
	}
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case string:
		return marshalCanonicalString(val)
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case json.Number:
		// Numeric literals keep their source spelling.
		return []byte(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite number in canonical JSON: %v", val)
		}
		// encoding/json formats float64 the way ECMAScript does, which is
		// what RFC 8785 requires.
		return json.Marshal(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string with NFC
// normalization. Only control characters, backslash, and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters, leaving \\u2028 (an escaped
// backslash followed by text) untouched.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			out = append(out, data[i])
			continue
		}
		if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// Any other escape: copy the backslash and the escaped byte together
		// so an escaped backslash is never mistaken for an escape start.
		out = append(out, data[i])
		if i+1 < len(data) {
			out = append(out, data[i+1])
			i++
		}
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals an object with RFC 8785 key ordering.
func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range sortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
