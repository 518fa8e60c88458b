package dataset

import (
	"fmt"
	"strconv"
)

// NonNull drops nil and empty-string values, keeping order
func NonNull(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if !IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// distinctKey keeps 1 and "1" apart
type distinctKey struct {
	kind byte
	text string
}

func keyOf(v any) distinctKey {
	switch x := v.(type) {
	case string:
		return distinctKey{'s', x}
	case float64:
		return distinctKey{'f', strconv.FormatFloat(x, 'g', -1, 64)}
	case bool:
		return distinctKey{'b', strconv.FormatBool(x)}
	default:
		return distinctKey{'o', fmt.Sprint(x)}
	}
}

// DistinctCount counts distinct non-null values
func DistinctCount(values []any) int {
	seen := make(map[distinctKey]struct{}, len(values))
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		seen[keyOf(v)] = struct{}{}
	}
	return len(seen)
}
