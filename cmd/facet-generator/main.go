// Command facet-generator derives facet types (projections, DTOs, row views)
// from plain Go structs using declarative YAML rules. Mappings are resolved
// at generation time and emitted as ordinary Go constructors, reverse
// mappers, and query projections; nothing reflects at runtime.
//
// The workflow is review-then-lock:
//
//	facet-generator analyze ./...            inspect the extracted schema graph
//	facet-generator init --source store.Customer ./...
//	facet-generator check ./...              resolve rules, report drift
//	facet-generator gen ./...                emit the facet package
//	facet-generator preview --facet CustomerCard --input sample.json ./...
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"facet-generator/internal/analyze"
	"facet-generator/internal/diagnostic"
	"facet-generator/internal/rules"
	"facet-generator/internal/schema"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("facet-generator: ")

	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "facet-generator",
		Short: "Generate compile-time facet projections for Go structs",
		Long: `facet-generator reads Go packages with the standard type checker, compiles
declarative facet rules against the extracted schemas, and emits plain Go
code for every facet: the struct, a validating constructor, a reverse
mapper where the source permits it, and a column projection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAnalyzeCmd(),
		newInitCmd(),
		newCheckCmd(),
		newGenCmd(),
		newPreviewCmd(),
	)

	return root
}

// loadGraph parses package patterns into a schema graph. Loader warnings
// (skipped fields, unsupported types) are printed as they do not abort the
// run.
func loadGraph(patterns []string) (*schema.Graph, error) {
	a := analyze.NewAnalyzer()

	g, err := a.LoadPackages(patterns...)
	if err != nil {
		return nil, err
	}

	printDiagnostics(a.Diagnostics())

	return g, nil
}

// compileFile loads a facet rule file and compiles it against the graph.
func compileFile(path string, g *schema.Graph) (*rules.FacetFile, []*rules.RuleSet, diagnostic.Diagnostics, error) {
	ff, err := rules.LoadFile(path)
	if err != nil {
		return nil, nil, diagnostic.Diagnostics{}, err
	}

	sets, diags := rules.Compile(ff, g)

	return ff, sets, diags, nil
}

func printDiagnostics(d diagnostic.Diagnostics) {
	for _, diag := range d.Errors {
		log.Printf("error: %s", diag)
	}

	for _, diag := range d.Warnings {
		log.Printf("warning: %s", diag)
	}

	for _, diag := range d.Infos {
		log.Printf("info: %s", diag)
	}
}
