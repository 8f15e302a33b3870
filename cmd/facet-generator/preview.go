package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"facet-generator/internal/resolve"
)

type previewOptions struct {
	file  string
	facet string
	input string
}

func newPreviewCmd() *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview --facet <name> --input <sample.json> <packages...>",
		Short: "Project a JSON sample document through a resolved facet",
		Long: `Preview decodes a JSON sample of the source shape and prints the facet
view computed from the resolved schema, including condition defaults and
suppressed fields. It is a debugging aid for rule authors; generated
code remains the product.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "facet.yaml", "facet rule file")
	cmd.Flags().StringVar(&opts.facet, "facet", "", "facet to project")
	cmd.Flags().StringVar(&opts.input, "input", "", "path to the JSON sample document")
	_ = cmd.MarkFlagRequired("facet")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runPreview(opts *previewOptions, patterns []string) error {
	g, err := loadGraph(patterns)
	if err != nil {
		return err
	}

	_, sets, diags, err := compileFile(opts.file, g)
	if err != nil {
		return err
	}

	res, rdiags := resolve.New(g, sets).ResolveAll()
	diags.Merge(rdiags)
	printDiagnostics(diags)

	if diags.HasErrors() {
		return fmt.Errorf("preview aborted: %s", diags.Summary())
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding %s: %w", opts.input, err)
	}

	view, err := resolve.Preview(res, opts.facet, doc)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}
