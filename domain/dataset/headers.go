package dataset

import (
	"fmt"
	"strings"
)

// NormalizeHeaders trims header cells and makes them unique. A blank cell
// becomes column_<n> (1-based); a repeated name gets a _2, _3, ... suffix.
func NormalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		candidate := name
		for n := 2; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		seen[candidate] = true
		headers[i] = candidate
	}
	return headers
}
