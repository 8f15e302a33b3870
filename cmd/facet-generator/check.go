package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"facet-generator/internal/resolve"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

type checkOptions struct {
	file             string
	jsonOut          bool
	updateSignatures bool
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <packages...>",
		Short: "Resolve facet rules against live schemas and report drift",
		Long: `Check compiles the rule file against the loaded packages, resolves every
facet, and prints a per-field report. Pinned shape signatures that no
longer match the live source raise advisories; structural errors fail
the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "facet.yaml", "facet rule file")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit the resolved schemas as JSON instead of the report")
	cmd.Flags().BoolVar(&opts.updateSignatures, "update-signatures", false, "rewrite pinned shape signatures to the live schemas")

	return cmd
}

func runCheck(opts *checkOptions, patterns []string) error {
	g, err := loadGraph(patterns)
	if err != nil {
		return err
	}

	ff, sets, diags, err := compileFile(opts.file, g)
	if err != nil {
		return err
	}

	res, rdiags := resolve.New(g, sets).ResolveAll()
	diags.Merge(rdiags)
	printDiagnostics(diags)

	if opts.updateSignatures {
		if err := updateSignatures(ff, g, opts.file); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		out, err := resolve.ExportJSON(res, g)
		if err != nil {
			return err
		}

		fmt.Println(string(out))
	} else {
		fmt.Print(resolve.FormatReport(res))
	}

	if diags.HasErrors() {
		return fmt.Errorf("check failed: %s", diags.Summary())
	}

	return nil
}

// updateSignatures rewrites every declaration's pinned signature to the live
// source shape and saves the file when anything changed.
func updateSignatures(ff *rules.FacetFile, g *schema.Graph, path string) error {
	changed := 0

	for i := range ff.Facets {
		decl := &ff.Facets[i]

		src, ok := g.ResolveRef(decl.Source)
		if !ok {
			continue
		}

		if sig := schema.Signature(src); decl.ShapeSignature != sig {
			decl.ShapeSignature = sig
			changed++
		}
	}

	if changed == 0 {
		return nil
	}

	if err := rules.WriteFile(ff, path); err != nil {
		return err
	}

	log.Printf("updated %d shape signatures in %s", changed, path)

	return nil
}
