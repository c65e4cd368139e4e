package document

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docquery/internal/selector"
	"github.com/dgallion1/docquery/internal/tree"
)

type options struct {
	mergeTags       []string
	roundFloats     bool
	roundDigits     int
	textFormatter   tree.TextFormatter
	normalizeSpaces bool
	resort          bool
	log             *slog.Logger
	engine          *selector.Engine
}

func defaultOptions() options {
	return options{
		mergeTags:       tree.DefaultMergeTags,
		roundFloats:     true,
		roundDigits:     3,
		normalizeSpaces: true,
		resort:          true,
	}
}

// Option configures a Document.
type Option func(*options)

// WithMergeTags sets the tags whose adjacent fragments are merged.
// No tags disables merging.
func WithMergeTags(tags ...string) Option {
	return func(o *options) { o.mergeTags = tags }
}

func WithRoundFloats(on bool) Option {
	return func(o *options) { o.roundFloats = on }
}

func WithRoundDigits(n int) Option {
	return func(o *options) { o.roundDigits = n }
}

// WithTextFormatter replaces the text normalizer. It takes precedence over
// WithNormalizeSpaces.
func WithTextFormatter(f tree.TextFormatter) Option {
	return func(o *options) { o.textFormatter = f }
}

func WithNormalizeSpaces(on bool) Option {
	return func(o *options) { o.normalizeSpaces = on }
}

// WithResort toggles containment placement.
func WithResort(on bool) Option {
	return func(o *options) { o.resort = on }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithEngine shares a selector engine, and its registered predicates,
// between documents.
func WithEngine(e *selector.Engine) Option {
	return func(o *options) { o.engine = e }
}

type extractOptions struct {
	scope *goquery.Selection
}

// ExtractOption configures one extraction.
type ExtractOption func(*extractOptions)

// WithScope starts the extraction from scope instead of the whole tree.
func WithScope(s *goquery.Selection) ExtractOption {
	return func(o *extractOptions) { o.scope = s }
}

// Settings is the serializable form of the construction options, filled
// from the environment or from command-line flags.
type Settings struct {
	MergeTags       []string
	RoundFloats     bool
	RoundDigits     int
	NormalizeSpaces bool
	FoldUnicode     bool
	Resort          bool
}

// DefaultSettings matches the defaults of New.
func DefaultSettings() Settings {
	return Settings{
		MergeTags:       tree.DefaultMergeTags,
		RoundFloats:     true,
		RoundDigits:     3,
		NormalizeSpaces: true,
		Resort:          true,
	}
}

// Options converts s to construction options. FoldUnicode installs an
// NFKC text formatter, followed by space collapsing when NormalizeSpaces
// is also set.
func (s Settings) Options() []Option {
	opts := []Option{
		WithMergeTags(s.MergeTags...),
		WithRoundFloats(s.RoundFloats),
		WithRoundDigits(s.RoundDigits),
		WithNormalizeSpaces(s.NormalizeSpaces),
		WithResort(s.Resort),
	}
	if s.FoldUnicode {
		f := tree.FoldUnicode
		if s.NormalizeSpaces {
			f = tree.Chain(tree.FoldUnicode, tree.CollapseSpaces)
		}
		opts = append(opts, WithTextFormatter(f))
	}
	return opts
}
