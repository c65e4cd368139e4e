package extract

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSelectorLen bounds the selector accepted in a single step.
const MaxSelectorLen = 2048

// ValidateSteps checks a step list before it is run. It returns every
// problem found, joined.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return errors.New("no steps")
	}
	var errs []error
	for i, s := range steps {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			errs = append(errs, fmt.Errorf("step %d: empty label", i))
			continue
		}
		if len(s.Selector) > MaxSelectorLen {
			errs = append(errs, fmt.Errorf("step %d (%s): selector longer than %d bytes", i, label, MaxSelectorLen))
		}
		if label == LabelWithFormatter || label == LabelWithParent {
			continue
		}
		if strings.TrimSpace(s.Selector) == "" && s.Predicate == nil {
			errs = append(errs, fmt.Errorf("step %d (%s): empty selector", i, label))
		}
	}
	return errors.Join(errs...)
}
