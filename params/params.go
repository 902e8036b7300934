// Package params implements the engine's "parameter substitution" collaborator
// contract (spec.md §4.4): textual interpolation of host values into SQL
// text using a type registry's literal encoder, supporting plain
// positional %s and named %(name)s markers. No values are ever transmitted
// out-of-band — everything ends up embedded in the single Query packet the
// engine sends.
package params

import (
	"fmt"
	"regexp"
)

// Encoder produces the literal SQL text for a host value; pgtype.Registry
// satisfies this via its EncodeLiteral method.
type Encoder interface {
	EncodeLiteral(v any) string
}

var namedMarker = regexp.MustCompile(`%\(([a-zA-Z_][a-zA-Z0-9_]*)\)s`)

// Expand substitutes args into sql. args may be nil (no substitution),
// a []any (positional %s markers, substituted left to right), or a
// map[string]any (named %(name)s markers). A single non-slice, non-map
// value is treated as a one-element positional argument list, mirroring
// the original driver's singleton-argument convenience.
func Expand(sql string, enc Encoder, args any) (string, error) {
	if args == nil {
		return sql, nil
	}
	switch v := args.(type) {
	case map[string]any:
		return expandNamed(sql, enc, v)
	case []any:
		return expandPositional(sql, enc, v)
	default:
		return expandPositional(sql, enc, []any{v})
	}
}

func expandPositional(sql string, enc Encoder, args []any) (string, error) {
	i := 0
	out := make([]byte, 0, len(sql))
	for j := 0; j < len(sql); j++ {
		if sql[j] == '%' && j+1 < len(sql) && sql[j+1] == 's' {
			if i >= len(args) {
				return "", fmt.Errorf("params: not enough arguments for %%s markers in query")
			}
			out = append(out, enc.EncodeLiteral(args[i])...)
			i++
			j++
			continue
		}
		out = append(out, sql[j])
	}
	if i != len(args) {
		return "", fmt.Errorf("params: %d arguments supplied, %d %%s markers found", len(args), i)
	}
	return string(out), nil
}

func expandNamed(sql string, enc Encoder, args map[string]any) (string, error) {
	var outerErr error
	result := namedMarker.ReplaceAllStringFunc(sql, func(match string) string {
		name := namedMarker.FindStringSubmatch(match)[1]
		v, ok := args[name]
		if !ok {
			outerErr = fmt.Errorf("params: no value supplied for %%(%s)s", name)
			return match
		}
		return enc.EncodeLiteral(v)
	})
	return result, outerErr
}
