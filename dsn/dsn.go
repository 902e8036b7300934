// Package dsn implements the libpq-style keyword/value tokenizer described
// in spec.md §6. It is an out-of-scope collaborator of the protocol
// engine — a trivial parser shipped here so pgconn.Connect has something
// real to call.
package dsn

import "strings"

// Parse tokenizes a DSN string of whitespace-separated "keyword=value"
// pairs into a map. Values may be single-quoted to include spaces;
// whitespace around '=' is tolerated. Returns an empty map for an empty
// string.
func Parse(s string) map[string]string {
	result := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return result
	}

	const (
		stateKeyword = iota
		stateAfterEquals
		stateQuotedValue
		stateBareValue
	)

	state := stateKeyword
	var keyword, buf strings.Builder

	flushBare := func() {
		result[strings.TrimSpace(keyword.String())] = buf.String()
		keyword.Reset()
		buf.Reset()
	}

	for _, ch := range strings.TrimSpace(s) {
		switch state {
		case stateKeyword:
			if ch == '=' {
				state = stateAfterEquals
			} else {
				keyword.WriteRune(ch)
			}
		case stateAfterEquals:
			switch {
			case ch == '\'':
				state = stateQuotedValue
			case ch == ' ':
				// whitespace between '=' and the value is ignored
			default:
				buf.WriteRune(ch)
				state = stateBareValue
			}
		case stateQuotedValue:
			if ch == '\'' {
				result[strings.TrimSpace(keyword.String())] = buf.String()
				keyword.Reset()
				buf.Reset()
				state = stateKeyword
			} else {
				buf.WriteRune(ch)
			}
		case stateBareValue:
			if ch == ' ' {
				flushBare()
				state = stateKeyword
			} else {
				buf.WriteRune(ch)
			}
		}
	}
	if state == stateBareValue {
		flushBare()
	}
	return result
}
