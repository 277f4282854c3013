package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

func newCategoriesCmd(jsonOutput *bool) *cobra.Command {
	var leaf string

	cmd := &cobra.Command{
		Use:   "categories <file.json>",
		Short: "Rebuild the category forest from an export",
		Long: `Read a JSON array of category rows ({"id", "parent", "name"}) and print
the forest they form. Dangling parents, cycles and duplicate ids are reported
as errors. Use "-" to read from stdin.

Examples:
  catalogctl categories categories.json
  catalogctl categories categories.json --path 12   # root-first path to 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readCategoryRows(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if leaf != "" {
				id, err := domain.ParseCategoryID(leaf)
				if err != nil {
					return err
				}
				path, err := tree.BuildCategoryPath(rows, id)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), path)
				}
				names := make([]string, 0, len(path))
				for _, seg := range path {
					names = append(names, seg.Name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, " > "))
				return nil
			}

			forest, err := tree.BuildCategoryForest(rows)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), forest)
			}
			printForest(cmd.OutOrStdout(), forest, 0)
			return nil
		},
	}
	cmd.Flags().StringVar(&leaf, "path", "", "Print the path from the root to this category instead")
	return cmd
}

func readCategoryRows(stdin io.Reader, name string) ([]tree.CategoryRow, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}

	var rows []tree.CategoryRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode category rows: %w", err)
	}
	return rows, nil
}

func printForest(w io.Writer, forest []tree.CategoryTree, depth int) {
	for _, c := range forest {
		fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), c.Name, c.ID)
		printForest(w, c.Subcategories, depth+1)
	}
}
