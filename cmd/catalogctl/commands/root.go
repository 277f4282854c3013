// Package commands implements catalogctl, an offline tool for checking deals
// and category exports with the same engine the API uses.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. jsonOutput is shared by every
// subcommand.
func NewRootCmd() *cobra.Command {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Offline checks for catalog deals and categories",
		Long: `catalogctl runs the catalog engine without a database.

It validates deals against a base price, prices purchases under a deal,
and rebuilds the category forest from a JSON export of the categories table.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(newDealCmd(&jsonOutput))
	rootCmd.AddCommand(newCategoriesCmd(&jsonOutput))
	rootCmd.AddCommand(newSchemaCmd())
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
