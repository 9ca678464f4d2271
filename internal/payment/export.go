package payment

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvHeader = []string{"invoice_id", "folio", "client", "invoice_date", "due_date", "status", "total"}

// WriteRecordsCSV streams payment records as CSV. Amounts are formatted
// with grouping separators for spreadsheet consumption.
func WriteRecordsCSV(w io.Writer, records []RecordWithInvoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	for _, rec := range records {
		folio := ""
		if rec.FolioNumber != nil {
			folio = printer.Sprintf("%s-%d", rec.FolioSeries, *rec.FolioNumber)
		}
		total, _ := rec.InvoiceTotal.Float64()
		row := []string{
			printer.Sprintf("%d", rec.InvoiceID),
			folio,
			rec.ClientName,
			rec.InvoiceDate.Format("2006-01-02"),
			rec.DueDate.Format("2006-01-02"),
			string(rec.Status),
			printer.Sprintf("%.2f", total),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
