package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-engine-go/internal/deal"
	"catalog-engine-go/internal/tree"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDealCheck(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		contains    []string
		expectError error
	}{
		{
			name:     "discount",
			args:     []string{"deal", "check", "--price", "10", "--discount", "7.50"},
			contains: []string{"discount: 25.00%"},
		},
		{
			name:     "batch",
			args:     []string{"deal", "check", "--price", "10", "--take", "4", "--pay-for", "3"},
			contains: []string{"take 4 pay for 3", "discount: 25.00%"},
		},
		{
			name:     "batch price of one becomes a discount",
			args:     []string{"deal", "check", "--price", "4", "--take", "1", "--pay", "3.00"},
			contains: []string{"discount: 25.00%"},
		},
		{
			name:        "no discount",
			args:        []string{"deal", "check", "--price", "10", "--take", "2", "--pay-for", "2"},
			expectError: deal.ErrNoDiscount,
		},
		{
			name:        "zero price",
			args:        []string{"deal", "check", "--price", "0", "--discount", "1"},
			expectError: deal.ErrZeroPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestDealCheckNeedsADeal(t *testing.T) {
	_, err := run(t, "", "deal", "check", "--price", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe a deal")
}

func TestDealQuote(t *testing.T) {
	out, err := run(t, "", "deal", "quote", "--price", "10", "--discount", "8", "--units", "5", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 46.00 (was 50.00)")
	assert.Contains(t, out, "applied 2 times")

	out, err = run(t, "", "--json", "deal", "quote", "--price", "10", "--take", "3", "--pay-for", "2", "--units", "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": "50"`)
	assert.Contains(t, out, `"uses": 2`)
}

const categoriesJSON = `[
	{"id": 1, "parent": null, "name": "Food"},
	{"id": 3, "parent": 1, "name": "Vegetables"},
	{"id": 2, "parent": 1, "name": "Dairy"},
	{"id": 4, "parent": 2, "name": "Cheese"}
]`

func TestCategories(t *testing.T) {
	out, err := run(t, categoriesJSON, "categories", "-")
	require.NoError(t, err)
	assert.Equal(t, "Food (1)\n  Dairy (2)\n    Cheese (4)\n  Vegetables (3)\n", out)

	out, err = run(t, categoriesJSON, "categories", "-", "--path", "4")
	require.NoError(t, err)
	assert.Equal(t, "Food > Dairy > Cheese\n", out)
}

func TestCategoriesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "parent": 9, "name": "Orphan"}]`), 0o600))

	_, err := run(t, "", "categories", path)
	assert.ErrorIs(t, err, tree.ErrDanglingParent)
}

func TestSchemaPrints(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE special_offers")
	assert.Contains(t, out, "CREATE VIEW active_special_offers")
}
