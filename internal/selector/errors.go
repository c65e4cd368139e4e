package selector

import "fmt"

// SyntaxError reports a selector that could not be compiled.
type SyntaxError struct {
	Selector string
	Err      error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("error applying selector %q: %v", e.Selector, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }
