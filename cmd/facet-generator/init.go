package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

type initOptions struct {
	file   string
	source string
	facet  string
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init --source <schema> <packages...>",
		Short: "Scaffold a facet declaration for review",
		Long: `Init resolves a source schema and appends a facet declaration to the rule
file with every admissible field spelled out, ready to be trimmed and
reshaped by a human. The declaration pins the current shape signature so
later source drift is flagged by check.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "facet.yaml", "facet rule file to create or extend")
	cmd.Flags().StringVar(&opts.source, "source", "", "source schema reference, e.g. store.Customer")
	cmd.Flags().StringVar(&opts.facet, "facet", "", "facet name (defaults to <Source>View)")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runInit(opts *initOptions, patterns []string) error {
	g, err := loadGraph(patterns)
	if err != nil {
		return err
	}

	src, ok := g.ResolveRef(opts.source)
	if !ok {
		if cands := g.Candidates(refName(opts.source)); len(cands) > 0 {
			return fmt.Errorf("ambiguous or unknown source schema %q, candidates: %v", opts.source, cands)
		}

		return fmt.Errorf("unknown source schema %q", opts.source)
	}

	name := opts.facet
	if name == "" {
		name = src.ID.Name + "View"
	}

	ff := &rules.FacetFile{Version: "1"}

	if _, statErr := os.Stat(opts.file); statErr == nil {
		ff, err = rules.LoadFile(opts.file)
		if err != nil {
			return err
		}
	}

	for i := range ff.Facets {
		if ff.Facets[i].Name == name {
			return fmt.Errorf("facet %s already declared in %s", name, opts.file)
		}
	}

	var include []string

	for i := range src.Fields {
		if src.Fields[i].Exported {
			include = append(include, src.Fields[i].Name)
		}
	}

	ff.Facets = append(ff.Facets, rules.FacetDecl{
		Name:           name,
		Source:         opts.source,
		Include:        rules.StringArray(include),
		ShapeSignature: schema.Signature(src),
	})

	if err := rules.WriteFile(ff, opts.file); err != nil {
		return err
	}

	log.Printf("added facet %s over %s (%d fields) to %s", name, src.ID, len(include), opts.file)

	return nil
}

// refName strips the package qualifier off a schema reference so candidate
// lookup can run on the bare name.
func refName(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '.' {
			return ref[i+1:]
		}
	}

	return ref
}
