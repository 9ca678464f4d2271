package payment

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWriteRecordsCSV(t *testing.T) {
	number := int64(42)
	records := []RecordWithInvoice{
		{
			Record: Record{
				InvoiceID:   7,
				InvoiceDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				DueDate:     time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
				Status:      StatusPending,
			},
			ClientName:   "Acme Retail SA",
			InvoiceTotal: decimal.RequireFromString("12500.50"),
			FolioNumber:  &number,
			FolioSeries:  "A",
		},
		{
			Record: Record{
				InvoiceID:   8,
				InvoiceDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
				DueDate:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
				Status:      StatusOverdue,
			},
			ClientName:   "Norte Logistics",
			InvoiceTotal: decimal.NewFromInt(300),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])

	require.Equal(t, "7", rows[1][0])
	require.Equal(t, "A-42", rows[1][1])
	require.Equal(t, "Acme Retail SA", rows[1][2])
	require.Equal(t, "2025-01-01", rows[1][3])
	require.Equal(t, "2025-01-31", rows[1][4])
	require.Equal(t, "PENDING", rows[1][5])
	require.Equal(t, "12,500.50", rows[1][6])

	// No folio yet, empty cell instead of a zero.
	require.Equal(t, "", rows[2][1])
	require.Equal(t, "300.00", rows[2][6])
}
