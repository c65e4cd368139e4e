// Package extract runs labeled selector steps against a document tree.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docquery/internal/selector"
)

// Labels with special meaning in a step list.
const (
	LabelWithFormatter = "with_formatter"
	LabelWithParent    = "with_parent"
)

// NoFormat is the formatter name that turns formatting off.
const NoFormat = "none"

// Step is one instruction of a pipeline. A data step matches with
// Predicate when set, otherwise with Selector. For with_formatter steps
// Format, or the operation named by Selector, becomes the current
// formatter; both empty, or NoFormat, disables formatting.
type Step struct {
	Label     string
	Selector  string
	Predicate func(int, *goquery.Selection) bool
	Format    Formatter
	// Unformatted returns the matched selection as is for this step only.
	Unformatted bool
}

// Pair is one labeled result.
type Pair struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// Results are labeled results in step order.
type Results []Pair

// Map collapses the results; later labels overwrite earlier ones.
func (r Results) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, p := range r {
		m[p.Label] = p.Value
	}
	return m
}

// Pipeline evaluates step lists with a selector engine.
type Pipeline struct {
	Engine *selector.Engine
	Logger *slog.Logger
}

// NewPipeline returns a pipeline using engine, or a default engine when nil.
func NewPipeline(engine *selector.Engine, log *slog.Logger) *Pipeline {
	if engine == nil {
		engine = selector.NewEngine()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{Engine: engine, Logger: log}
}

// Run executes steps in order against scope, which defaults to root.
// with_parent selectors are matched within scope and an empty with_parent
// returns to it. The first failing step aborts the run.
func (p *Pipeline) Run(root, scope *goquery.Selection, steps []Step) (Results, error) {
	if scope == nil {
		scope = root
	}
	var (
		current Formatter
		parent  = scope
		out     Results
	)
	for i, step := range steps {
		switch step.Label {
		case LabelWithFormatter:
			f, err := resolveFormatter(step)
			if err != nil {
				return nil, err
			}
			current = f
			continue

		case LabelWithParent:
			if step.Selector == "" && step.Predicate == nil {
				parent = scope
				continue
			}
			sel, err := p.match(scope, step)
			if err != nil {
				return nil, err
			}
			parent = sel
			p.Logger.Debug("extract scope", "step", i, "selector", step.Selector, "matched", sel.Length())
			continue
		}

		matched, err := p.match(parent, step)
		if err != nil {
			return nil, err
		}
		f := current
		switch {
		case step.Unformatted:
			f = nil
		case step.Format != nil:
			f = step.Format
		}
		var value any = matched
		if f != nil {
			value, err = f.Format(matched)
			if err != nil {
				return nil, fmt.Errorf("format step %q: %w", step.Label, err)
			}
		}
		p.Logger.Debug("extract step", "step", i, "label", step.Label, "matched", matched.Length())

		switch v := value.(type) {
		case Pair:
			out = append(out, v)
		case []Pair:
			out = append(out, v...)
		case Results:
			out = append(out, v...)
		default:
			out = append(out, Pair{Label: step.Label, Value: value})
		}
	}
	return out, nil
}

// match evaluates a step against parent and its descendants.
func (p *Pipeline) match(parent *goquery.Selection, step Step) (*goquery.Selection, error) {
	if step.Predicate != nil {
		all := parent.AddSelection(parent.Find("*"))
		return all.FilterFunction(step.Predicate), nil
	}
	sel, err := p.Engine.Find(parent, step.Selector)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", step.Label, err)
	}
	return sel, nil
}

func resolveFormatter(step Step) (Formatter, error) {
	if step.Format != nil {
		return step.Format, nil
	}
	if step.Selector == "" || step.Selector == NoFormat {
		return nil, nil
	}
	return Named(step.Selector)
}
