package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/docquery/internal/document"
	"github.com/dgallion1/docquery/internal/extract"
	"github.com/dgallion1/docquery/internal/layout"
	"github.com/dgallion1/docquery/internal/provider"
	"github.com/dgallion1/docquery/internal/tree"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.Bool("quiet"):
		level = slog.LevelError
	case c.Bool("verbose"):
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// settings reads the tree construction flags.
func settings(c *cli.Context) document.Settings {
	s := document.DefaultSettings()
	if c.IsSet("merge-tags") {
		s.MergeTags = nil
		for _, t := range c.StringSlice("merge-tags") {
			s.MergeTags = append(s.MergeTags, strings.Split(t, ",")...)
		}
	}
	s.RoundFloats = !c.Bool("no-round")
	if c.IsSet("round-digits") {
		s.RoundDigits = c.Int("round-digits")
	}
	s.NormalizeSpaces = !c.Bool("no-normalize")
	s.FoldUnicode = c.Bool("fold-unicode")
	s.Resort = !c.Bool("no-resort")
	return s
}

// openDocument opens the FILE argument and loads the pages named by --pages.
func openDocument(c *cli.Context, log *slog.Logger, load bool) (*document.Document, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one FILE argument, got %d", c.NArg())
	}
	path := c.Args().First()
	prov, err := provider.ForFile(path, provider.WithLogger(log))
	if err != nil {
		return nil, err
	}
	opts := append(settings(c).Options(), document.WithLogger(log))
	doc := document.New(prov, opts...)
	if !load {
		return doc, nil
	}
	pages, err := document.ParsePages(c.String("pages"))
	if err != nil {
		doc.Close()
		return nil, err
	}
	if err := doc.Load(pages); err != nil {
		doc.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Info("document loaded", "file", path, "pages", len(doc.Loaded()), "nodes", doc.Tree().Count())
	return doc, nil
}

func TreeAction(c *cli.Context) error {
	log := newLogger(c)
	doc, err := openDocument(c, log, true)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := tree.Render(c.App.Writer, doc.Tree()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer)
	return nil
}

func ExtractAction(c *cli.Context) error {
	log := newLogger(c)

	format := strings.ToLower(c.String("format"))
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}

	data, err := os.ReadFile(c.String("steps"))
	if err != nil {
		return fmt.Errorf("read steps: %w", err)
	}
	steps, err := extract.ParseSteps(data)
	if err != nil {
		return err
	}
	if err := extract.ValidateSteps(steps); err != nil {
		return err
	}

	doc, err := openDocument(c, log, true)
	if err != nil {
		return err
	}
	defer doc.Close()

	results, err := doc.ExtractPairs(steps)
	if err != nil {
		return err
	}
	results = results.Plain()

	var out any = results.Map()
	if c.Bool("pairs") {
		out = results
	}
	return writeOutput(c.App.Writer, format, out)
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func PagesAction(c *cli.Context) error {
	log := newLogger(c)
	doc, err := openDocument(c, log, false)
	if err != nil {
		return err
	}
	defer doc.Close()

	info, err := doc.Info()
	if err != nil {
		return err
	}
	type pageRow struct {
		PageID int        `yaml:"pageid"`
		BBox   [4]float64 `yaml:"bbox,flow"`
		Rotate int        `yaml:"rotate,omitempty"`
	}
	nums, err := allPages(doc)
	if err != nil {
		return err
	}
	rows := make([]pageRow, 0, len(nums))
	for _, n := range nums {
		el, err := doc.Layout(n)
		if err != nil {
			return err
		}
		row := pageRow{PageID: n + 1}
		if el.BBox != nil {
			row.BBox = [4]float64{el.BBox.X0, el.BBox.Y0, el.BBox.X1, el.BBox.Y1}
		}
		if el.Page != nil {
			row.PageID, row.Rotate = el.Page.PageID, el.Page.Rotate
		}
		rows = append(rows, row)
	}
	return writeOutput(c.App.Writer, "yaml", map[string]any{"info": info, "pages": rows})
}

func DumpAction(c *cli.Context) error {
	log := newLogger(c)
	doc, err := openDocument(c, log, false)
	if err != nil {
		return err
	}
	defer doc.Close()

	nums, err := document.ParsePages(c.String("pages"))
	if err != nil {
		return err
	}
	if nums == nil {
		if nums, err = allPages(doc); err != nil {
			return err
		}
	}
	pages := make([]*layout.Element, 0, len(nums))
	for _, n := range nums {
		el, err := doc.Layout(n)
		if err != nil {
			return err
		}
		pages = append(pages, el)
	}
	info, err := doc.Info()
	if err != nil {
		return err
	}

	w := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return layout.WriteDump(w, info, pages)
}

// allPages walks the provider to the end and returns every page index.
func allPages(doc *document.Document) ([]int, error) {
	var nums []int
	for n := 0; ; n++ {
		_, ok, err := doc.Page(n)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nums, nil
		}
		nums = append(nums, n)
	}
}
