package extract

import (
	"errors"
	"testing"
)

func TestParseSteps_MappingsAndTriples(t *testing.T) {
	data := []byte(`
- [with_formatter, text]
- label: title
  selector: LTTextLineHorizontal:in_bbox("0,700,612,792")
- [count, LTChar, length]
- {label: with_parent, selector: 'LTPage[pageid="2"]'}
`)
	steps, err := ParseSteps(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].Label != LabelWithFormatter || steps[0].Selector != "text" || steps[0].Format != nil {
		t.Errorf("unexpected first step %+v", steps[0])
	}
	if steps[1].Selector != `LTTextLineHorizontal:in_bbox("0,700,612,792")` {
		t.Errorf("unexpected selector %q", steps[1].Selector)
	}
	if steps[2].Format == nil {
		t.Error("expected the triple's format to be resolved")
	}
	if steps[3].Selector != `LTPage[pageid="2"]` {
		t.Errorf("unexpected parent selector %q", steps[3].Selector)
	}
}

func TestParseSteps_JSON(t *testing.T) {
	steps, err := ParseSteps([]byte(`[["stuff", ":in_bbox(\"100,100,400,400\")"], {"label": "n", "selector": "LTPage", "format": "length"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 || steps[0].Selector != `:in_bbox("100,100,400,400")` {
		t.Errorf("unexpected steps %+v", steps)
	}
}

func TestParseSteps_Errors(t *testing.T) {
	var cfgErr *FormatterConfigError
	if _, err := ParseSteps([]byte(`- [a, b, bogus]`)); !errors.As(err, &cfgErr) {
		t.Errorf("expected FormatterConfigError, got %v", err)
	}
	for _, bad := range []string{``, `- [only]`, `- [a, b, c, d]`, `- 42`, `{label: a}`} {
		if _, err := ParseSteps([]byte(bad)); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestParseSteps_NoFormat(t *testing.T) {
	steps, err := ParseSteps([]byte(`
- [with_formatter, text]
- [raw, LTChar, null]
- [also_raw, LTChar, none]
- {label: mapped, selector: LTChar, format: none}
- [with_formatter, none]
`))
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range steps[1:4] {
		if !st.Unformatted || st.Format != nil {
			t.Errorf("%s: expected an unformatted step, got %+v", st.Label, st)
		}
	}
	if steps[0].Unformatted || steps[4].Unformatted {
		t.Error("with_formatter steps should never be marked unformatted")
	}
}
