package tree

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// TextFormatter rewrites a node's own text before deduplication.
type TextFormatter func(string) string

var spaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{0085}]+`)

// CollapseSpaces replaces every run of whitespace with a single space.
func CollapseSpaces(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

// FoldUnicode applies NFKC normalization, which also splits typographic
// ligatures such as "ﬁ" into their letters.
func FoldUnicode(s string) string {
	return norm.NFKC.String(s)
}

// Chain applies formatters left to right, skipping nil entries.
func Chain(fs ...TextFormatter) TextFormatter {
	return func(s string) string {
		for _, f := range fs {
			if f != nil {
				s = f(s)
			}
		}
		return s
	}
}
