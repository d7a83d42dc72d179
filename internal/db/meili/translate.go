package meili

import (
	"regexp"
	"strconv"
	"strings"
)

var termPattern = regexp.MustCompile(`^(-?)([A-Za-z_][A-Za-z0-9_.]*)(>=|<=|:|>|<)(.+)$`)

// translate converts the full-text query language into a Meilisearch filter expression.
// Field terms keep their boolean structure: exact terms become equality filters, wildcard
// terms become CONTAINS / STARTS WITH filters and relational terms map one-to-one.
// A bare "*" or empty text yields an empty filter.
func translate(text string) string {
	tokens := tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch tok {
		case "(", ")":
			out = append(out, tok)
		case "AND", "OR":
			out = append(out, tok)
		case "*":
			// match-all contributes nothing
		default:
			if f := termFilter(tok); f != "" {
				out = append(out, f)
			}
		}
	}
	return tidy(out)
}

func termFilter(tok string) string {
	m := termPattern.FindStringSubmatch(tok)
	if m == nil {
		return ""
	}
	negate, field, op, value := m[1] == "-", m[2], m[3], m[4]

	var expr string
	switch op {
	case ":":
		expr = matchFilter(field, value)
	default:
		v := unquote(value)
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			v = quote(v)
		}
		expr = field + " " + op + " " + v
	}
	if negate {
		return "NOT " + expr
	}
	return expr
}

func matchFilter(field, value string) string {
	quoted := strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2
	v := unquote(value)
	switch {
	case !quoted && strings.HasPrefix(v, "*") && strings.HasSuffix(v, "*") && len(v) >= 2:
		return field + " CONTAINS " + quote(strings.Trim(v, "*"))
	case strings.HasSuffix(v, "*"):
		return field + " STARTS WITH " + quote(strings.TrimSuffix(v, "*"))
	default:
		return field + " = " + quote(v)
	}
}

func unquote(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
		v = strings.ReplaceAll(v, `\"`, `"`)
	}
	return v
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// tokenize splits on whitespace and parentheses outside quotes. A word that is
// neither an operator nor a field term continues the previous term, so unquoted
// wildcard values with spaces survive.
func tokenize(text string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		escaped bool
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		word := cur.String()
		cur.Reset()
		n := len(tokens)
		if n > 0 && isContinuation(word) && termPattern.MatchString(tokens[n-1]) {
			tokens[n-1] += " " + word
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			cur.WriteRune(r)
			escaped = true
		case r == '"':
			cur.WriteRune(r)
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isContinuation(word string) bool {
	if word == "AND" || word == "OR" || word == "*" {
		return false
	}
	return !termPattern.MatchString(word)
}

// tidy drops operators left dangling by removed terms and empty parentheses.
func tidy(tokens []string) string {
	changed := true
	for changed {
		changed = false
		var out []string
		for i := 0; i < len(tokens); i++ {
			tok := tokens[i]
			isOp := tok == "AND" || tok == "OR"
			prev := ""
			if len(out) > 0 {
				prev = out[len(out)-1]
			}
			next := ""
			if i+1 < len(tokens) {
				next = tokens[i+1]
			}
			switch {
			case isOp && (prev == "" || prev == "(" || prev == "AND" || prev == "OR"):
				changed = true
			case isOp && (next == "" || next == ")"):
				changed = true
			case tok == "(" && next == ")":
				i++
				changed = true
			default:
				out = append(out, tok)
			}
		}
		tokens = out
	}

	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok != ")" && tokens[i-1] != "(" {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}
