package invoice

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The repository SQL is hand-written, so these tests pin its column
// references to the invoices DDL shipped in migrations.
func TestInvoiceSQLMatchesSchema(t *testing.T) {
	cols := invoiceTableColumns(t)

	selectCols := regexp.MustCompile(`\bi\.([a-z_]+)`)
	for _, m := range selectCols.FindAllStringSubmatch(invoiceColumns, -1) {
		require.Contains(t, cols, m[1], "invoices DDL is missing column %q", m[1])
	}

	insertCols := regexp.MustCompile(`(?s)INSERT INTO invoices \((.*?)\)`)
	m := insertCols.FindStringSubmatch(insertInvoiceSQL)
	require.NotNil(t, m)
	for _, col := range strings.Split(m[1], ",") {
		col = strings.TrimSpace(col)
		require.Contains(t, cols, col, "invoices DDL is missing column %q", col)
	}
}

// invoiceTableColumns extracts the column names of the invoices table from
// the initial migration.
func invoiceTableColumns(t *testing.T) map[string]bool {
	t.Helper()
	raw, err := os.ReadFile("../../migrations/0001_init.up.sql")
	require.NoError(t, err)

	start := strings.Index(string(raw), "CREATE TABLE invoices (")
	require.GreaterOrEqual(t, start, 0)
	body := string(raw)[start:]
	end := strings.Index(body, "\n);")
	require.GreaterOrEqual(t, end, 0)
	body = body[:end]

	name := regexp.MustCompile(`^[a-z_]+$`)
	cols := map[string]bool{}
	for _, line := range strings.Split(body, "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) > 1 && name.MatchString(fields[0]) {
			cols[fields[0]] = true
		}
	}
	return cols
}
