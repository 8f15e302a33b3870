package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"facet-generator/internal/gen"
	"facet-generator/internal/resolve"
)

type genOptions struct {
	file       string
	out        string
	pkg        string
	noComments bool
}

func newGenCmd() *cobra.Command {
	opts := &genOptions{}

	cmd := &cobra.Command{
		Use:   "gen <packages...>",
		Short: "Generate facet structs, constructors, and reverse mappers",
		Long: `Gen resolves the rule file and writes one Go file per facet into the
output directory. Facets with structural errors are skipped and reported;
the remaining facets still generate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "facet.yaml", "facet rule file")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "./facets", "output directory for generated files")
	cmd.Flags().StringVar(&opts.pkg, "package", "facets", "package name for generated files")
	cmd.Flags().BoolVar(&opts.noComments, "no-comments", false, "omit provenance comments in generated code")

	return cmd
}

func runGen(opts *genOptions, patterns []string) error {
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

	if len(res.Facets) == 0 {
		return fmt.Errorf("no facets resolved: %s", diags.Summary())
	}

	cfg := gen.DefaultGeneratorConfig()
	cfg.PackageName = opts.pkg
	cfg.OutputDir = opts.out
	cfg.GenerateComments = !opts.noComments

	files, err := gen.NewGenerator(cfg).Generate(res, g)
	if err != nil {
		return err
	}

	if err := gen.WriteFiles(files, opts.out); err != nil {
		return err
	}

	for _, f := range files {
		log.Printf("wrote %s", filepath.Join(opts.out, f.Filename))
	}

	if diags.HasErrors() {
		return fmt.Errorf("generated %d of %d facets: %s", len(res.Facets), len(sets), diags.Summary())
	}

	return nil
}
