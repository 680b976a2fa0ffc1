package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProductsTableCarriesCatalogColumns(t *testing.T) {
	raw, err := FS.ReadFile("0001_pos_core.sql")
	require.NoError(t, err)
	ddl := string(raw)

	start := strings.Index(ddl, "CREATE TABLE IF NOT EXISTS products (")
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(ddl[start:], ");")
	require.Greater(t, end, 0)
	products := ddl[start : start+end]

	for _, column := range []string{
		"barcode TEXT NOT NULL UNIQUE",
		"cost NUMERIC(12,2)",
		"stock_quantity INTEGER NOT NULL",
		"min_stock_level INTEGER NOT NULL",
		"tax_rate NUMERIC(5,4) NOT NULL",
		"is_active BOOLEAN NOT NULL DEFAULT TRUE",
	} {
		require.Contains(t, products, column)
	}
	require.NotContains(t, products, "sku")
}
