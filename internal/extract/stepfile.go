package extract

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StepSpec is the file form of a step. In a step file it is written either
// as a mapping or as a [label, selector, format] sequence. A format of
// "none", or a null third element, turns formatting off for that step.
type StepSpec struct {
	Label    string `yaml:"label" json:"label"`
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
}

func (s *StepSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var parts []string
		if err := n.Decode(&parts); err != nil {
			return err
		}
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("line %d: step needs 2 or 3 elements, got %d", n.Line, len(parts))
		}
		*s = StepSpec{Label: parts[0], Selector: parts[1]}
		if len(parts) == 3 {
			s.Format = parts[2]
			if n.Content[2].Tag == "!!null" {
				s.Format = NoFormat
			}
		}
		return nil
	case yaml.MappingNode:
		type plain StepSpec
		var p plain
		if err := n.Decode(&p); err != nil {
			return err
		}
		*s = StepSpec(p)
		return nil
	default:
		return fmt.Errorf("line %d: step must be a mapping or a sequence", n.Line)
	}
}

// Step resolves the named format, if any.
func (s StepSpec) Step() (Step, error) {
	st := Step{Label: s.Label, Selector: s.Selector}
	if s.Format == NoFormat {
		st.Unformatted = s.Label != LabelWithFormatter
		return st, nil
	}
	if s.Format != "" {
		f, err := Named(s.Format)
		if err != nil {
			return Step{}, err
		}
		st.Format = f
	}
	return st, nil
}

// ParseSpecs decodes a YAML or JSON step list.
func ParseSpecs(data []byte) ([]StepSpec, error) {
	var specs []StepSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse steps: %w", err)
	}
	if len(specs) == 0 {
		return nil, errors.New("parse steps: no steps")
	}
	return specs, nil
}

// ParseSteps decodes a step list and resolves its formats.
func ParseSteps(data []byte) ([]Step, error) {
	specs, err := ParseSpecs(data)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(specs))
	for i, sp := range specs {
		st, err := sp.Step()
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, sp.Label, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}
