package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"facet-generator/internal/schema"
)

type analyzeOptions struct {
	debug bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <packages...>",
		Short: "Load Go packages and print the extracted schema graph",
		Long: `Analyze runs the loader over the given package patterns and prints every
schema and enum it extracted, with field traits and the shape signature
that facet declarations pin against.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "dump the raw graph instead of the summary")

	return cmd
}

func runAnalyze(opts *analyzeOptions, patterns []string) error {
	g, err := loadGraph(patterns)
	if err != nil {
		return err
	}

	if opts.debug {
		spew.Fdump(os.Stdout, g)
		return nil
	}

	paths := make([]string, 0, len(g.Packages))
	for p := range g.Packages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		pkg := g.Packages[p]
		fmt.Printf("package %s (%s)\n", pkg.Name, pkg.Path)

		for _, id := range sortedIDs(pkg.Schemas) {
			if s := g.Schema(id); s != nil {
				printSchema(s)
			}
		}

		for _, id := range sortedIDs(pkg.Enums) {
			if e := g.Enum(id); e != nil {
				printEnum(e)
			}
		}

		fmt.Println()
	}

	return nil
}

func sortedIDs(ids []schema.SchemaID) []schema.SchemaID {
	out := append([]schema.SchemaID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}

func printSchema(s *schema.SourceSchema) {
	traits := fmt.Sprintf("%d fields", len(s.Fields))
	if s.Constructible {
		traits += ", constructible"
	}

	fmt.Printf("  %s (%s) sig=%s\n", s.ID.Name, traits, schema.Signature(s))

	for i := range s.Fields {
		f := &s.Fields[i]
		fmt.Printf("    %-20s %-28s %s\n", f.Name, f.Type.String(), strings.Join(fieldTraits(f), " "))
	}
}

func fieldTraits(f *schema.SourceField) []string {
	var traits []string

	if f.IsRequired {
		traits = append(traits, "required")
	}

	if f.IsReadOnly {
		traits = append(traits, "readonly")
	}

	if f.IsInitOnly {
		traits = append(traits, "init")
	}

	if !f.Exported {
		traits = append(traits, "unexported")
	}

	if f.Promoted {
		traits = append(traits, "promoted")
	}

	if f.HasInitializer {
		traits = append(traits, "default="+f.InitializerText)
	}

	return traits
}

func printEnum(e *schema.EnumInfo) {
	kind := e.Underlying.GoName()
	if e.HasStringMethod {
		kind += ", Stringer"
	}

	fmt.Printf("  enum %s (%s): %s\n", e.ID.Name, kind, strings.Join(e.MemberNames(), ", "))
}
