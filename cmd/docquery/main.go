package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/docquery/internal/tree"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docquery",
		Usage: "query PDF layouts with CSS selectors",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
		},
		Commands: []*cli.Command{
			{
				Name:      "tree",
				Usage:     "print the element tree as markup",
				ArgsUsage: "FILE",
				Flags:     append(treeFlags(), pagesFlag()),
				Action:    TreeAction,
			},
			{
				Name:      "extract",
				Usage:     "run an extraction pipeline against a document",
				ArgsUsage: "FILE",
				Flags: append(treeFlags(),
					pagesFlag(),
					&cli.StringFlag{Name: "steps", Aliases: []string{"s"}, Usage: "YAML or JSON step file", Required: true},
					&cli.BoolFlag{Name: "pairs", Usage: "print the ordered (label, value) pairs instead of a mapping"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "output format: yaml or json"},
				),
				Action: ExtractAction,
			},
			{
				Name:      "pages",
				Usage:     "list pages and document metadata",
				ArgsUsage: "FILE",
				Action:    PagesAction,
			},
			{
				Name:      "dump",
				Usage:     "write the analyzed layout as a YAML dump",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					pagesFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
				},
				Action: DumpAction,
			},
		},
	}
}

func pagesFlag() cli.Flag {
	return &cli.StringFlag{Name: "pages", Aliases: []string{"p"}, Usage: "1-based page list such as 1,3-5 (default: all)"}
}

// treeFlags control tree construction.
func treeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "merge-tags", Value: cli.NewStringSlice(tree.DefaultMergeTags...), Usage: "element tags merged into words"},
		&cli.BoolFlag{Name: "no-round", Usage: "keep full float precision in attributes"},
		&cli.IntFlag{Name: "round-digits", Value: 3, Usage: "decimal places kept when rounding"},
		&cli.BoolFlag{Name: "no-normalize", Usage: "keep whitespace in text as extracted"},
		&cli.BoolFlag{Name: "fold-unicode", Usage: "apply NFKC folding to text"},
		&cli.BoolFlag{Name: "no-resort", Usage: "keep the layout hierarchy instead of nesting by containment"},
	}
}
