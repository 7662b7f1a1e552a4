package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/benchscan/internal/pattern"
)

// NewPatternsCmd creates the patterns command.
// This command lists the matcher inventory of the pattern library so users
// can see which fields are extracted and by which regular expressions.
func NewPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the extraction pattern library",
		Long: `Patterns lists every matcher in the extraction pattern library, grouped
by the record field it extracts.

Custom matchers loaded via --patterns extend the built-in library and take
priority over built-in matchers for the same field. Listing the combined
library shows the exact matching order used during extraction.

Examples:
  # List the built-in matchers
  benchscan patterns

  # List the library extended by custom matchers
  benchscan patterns --patterns site-matchers.yaml

  # Output the inventory in JSON format
  benchscan patterns --json`,
		Args: cobra.NoArgs,
		RunE: runPatternsCmd,
	}

	cmd.Flags().StringP("patterns", "p", "",
		"YAML file of custom matchers extending the built-in pattern library")
	cmd.Flags().BoolP("json", "j", false,
		"Output the matcher inventory in JSON format")

	return cmd
}

// runPatternsCmd executes the patterns command.
func runPatternsCmd(cmd *cobra.Command, _ []string) error {
	patternsFile, err := cmd.Flags().GetString("patterns")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	lib, err := loadPatternLibrary(patternsFile)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputPatternsJSON(lib)
	}
	return outputPatternsText(lib)
}

// MatcherInfo describes one matcher for the JSON inventory.
type MatcherInfo struct {
	// Name identifies the matcher within its field.
	Name string `json:"name"`

	// Pattern is the matcher's regular expression.
	Pattern string `json:"pattern"`
}

// PatternInventory is the JSON shape of the matcher listing.
type PatternInventory struct {
	// Version identifies the library contents.
	Version string `json:"version"`

	// Fields maps each record field to its matchers in matching order.
	Fields map[string][]MatcherInfo `json:"fields"`
}

// outputPatternsJSON writes the matcher inventory as indented JSON.
func outputPatternsJSON(lib *pattern.Library) error {
	inventory := PatternInventory{
		Version: lib.Version(),
		Fields:  make(map[string][]MatcherInfo),
	}

	for _, field := range lib.Fields() {
		matchers := lib.Matchers(field)
		infos := make([]MatcherInfo, 0, len(matchers))
		for _, m := range matchers {
			infos = append(infos, MatcherInfo{Name: m.Name(), Pattern: m.Pattern()})
		}
		inventory.Fields[string(field)] = infos
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(inventory)
}

// outputPatternsText writes the matcher inventory in human-readable form.
func outputPatternsText(lib *pattern.Library) error {
	fmt.Printf("Pattern library %s\n", lib.Version())
	fmt.Println(strings.Repeat("=", 60))

	total := 0
	for _, field := range lib.Fields() {
		matchers := lib.Matchers(field)
		if len(matchers) == 0 {
			continue
		}
		total += len(matchers)

		fmt.Printf("\n%s (%d matcher(s)):\n", field, len(matchers))
		for _, m := range matchers {
			fmt.Printf("  %-24s  %s\n", m.Name(), m.Pattern())
		}
	}

	fmt.Printf("\n%d matcher(s) across %d field(s)\n", total, len(lib.Fields()))
	return nil
}
