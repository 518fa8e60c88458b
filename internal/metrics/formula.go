package metrics

import (
	"fmt"
	"regexp"
	"strings"

	"datalens/domain/core"
	"datalens/domain/metric"
)

// Formula is a parsed OP([Column], arg, ...) expression
type Formula struct {
	Operator metric.Operator
	Column   string
	// HasColumn is false for forms such as COUNTROWS(Table)
	HasColumn bool
	Args      []string
}

var formulaPattern = regexp.MustCompile(`^\s*([A-Z][A-Z.]*)\s*\((.*)\)\s*$`)

// ColumnRef renders a column reference, doubling any ] in the name
func ColumnRef(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ParseFormula splits a formula into operator, column reference and
// trailing arguments.
func ParseFormula(s string) (Formula, error) {
	m := formulaPattern.FindStringSubmatch(s)
	if m == nil {
		return Formula{}, fmt.Errorf("%w: malformed formula %q", core.ErrInvalidArgument, s)
	}
	f := Formula{Operator: metric.Operator(m[1])}
	body := strings.TrimSpace(m[2])

	if strings.HasPrefix(body, "[") {
		name, rest, err := readColumnRef(body)
		if err != nil {
			return Formula{}, fmt.Errorf("%w: %v in %q", core.ErrInvalidArgument, err, s)
		}
		f.Column = name
		f.HasColumn = true
		body = strings.TrimSpace(rest)
		if body == "" {
			return f, nil
		}
		if !strings.HasPrefix(body, ",") {
			return Formula{}, fmt.Errorf("%w: unexpected %q after column in %q", core.ErrInvalidArgument, body, s)
		}
		body = body[1:]
	}

	if strings.TrimSpace(body) != "" {
		for _, arg := range strings.Split(body, ",") {
			f.Args = append(f.Args, strings.TrimSpace(arg))
		}
	}
	return f, nil
}

// readColumnRef consumes [name] from the start of s, honoring ]] escapes
func readColumnRef(s string) (name, rest string, err error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != ']' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == ']' {
			b.WriteByte(']')
			i++
			continue
		}
		return b.String(), s[i+1:], nil
	}
	return "", "", fmt.Errorf("unterminated column reference")
}
