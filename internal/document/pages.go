package document

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePages parses a 1-based page list such as "1,3-5" into the 0-based
// indices Load takes. An empty string yields nil, meaning every page.
func ParsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		for n := first; n <= last; n++ {
			out = append(out, n-1)
		}
	}
	return out, nil
}
