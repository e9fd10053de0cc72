package synthetic

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"revstrux/internal/ingest"
)

// Rows renders one dataset type as upload-shaped rows, ready to store as
// a raw dataset or re-ingest through validation.
func (d Dataset) Rows(fileType string) []ingest.Row {
	switch fileType {
	case ingest.TypeAccounts:
		rows := make([]ingest.Row, 0, len(d.Accounts))
		for _, a := range d.Accounts {
			rows = append(rows, ingest.Row{
				"account_id": a.AccountID, "account_name": a.AccountName,
				"account_status": a.AccountStatus, "source_system": a.SourceSystem,
			})
		}
		return rows
	case ingest.TypeCustomers:
		rows := make([]ingest.Row, 0, len(d.Customers))
		for _, c := range d.Customers {
			rows = append(rows, ingest.Row{
				"customer_id": c.CustomerID, "customer_name": c.CustomerName,
				"customer_status": c.CustomerStatus, "source_system": c.SourceSystem,
			})
		}
		return rows
	case ingest.TypeSubscriptions:
		rows := make([]ingest.Row, 0, len(d.Subscriptions))
		for _, s := range d.Subscriptions {
			rows = append(rows, ingest.Row{
				"sub_id": s.SubID, "customer_id": s.CustomerID,
				"start_date": s.StartDate, "end_date": s.EndDate,
				"mrr": formatFloat(s.MRR), "currency": s.Currency,
				"billing_frequency": s.BillingFrequency, "pricing_model": s.PricingModel,
				"ramp_schedule": s.RampSchedule, "sub_status": s.SubStatus,
			})
		}
		return rows
	case ingest.TypeInvoices:
		rows := make([]ingest.Row, 0, len(d.Invoices))
		for _, inv := range d.Invoices {
			rows = append(rows, ingest.Row{
				"invoice_id": inv.InvoiceID, "customer_id": inv.CustomerID,
				"sub_id": inv.SubID, "invoice_date": inv.InvoiceDate,
				"period_start": inv.PeriodStart, "period_end": inv.PeriodEnd,
				"amount": formatFloat(inv.Amount), "currency": inv.Currency,
				"status": inv.Status,
			})
		}
		return rows
	case ingest.TypePayments:
		rows := make([]ingest.Row, 0, len(d.Payments))
		for _, p := range d.Payments {
			rows = append(rows, ingest.Row{
				"payment_id": p.PaymentID, "invoice_id": p.InvoiceID,
				"payment_date": p.PaymentDate, "amount": formatFloat(p.Amount),
				"currency": p.Currency,
			})
		}
		return rows
	case ingest.TypeCreditNotes:
		rows := make([]ingest.Row, 0, len(d.CreditNotes))
		for _, cn := range d.CreditNotes {
			rows = append(rows, ingest.Row{
				"credit_note_id": cn.CreditNoteID, "invoice_id": cn.InvoiceID,
				"customer_id": cn.CustomerID, "issue_date": cn.IssueDate,
				"amount": formatFloat(cn.Amount), "currency": cn.Currency,
				"reason": cn.Reason,
			})
		}
		return rows
	}
	return nil
}

var csvColumns = map[string][]string{
	ingest.TypeAccounts:      {"account_id", "account_name", "account_status", "source_system"},
	ingest.TypeCustomers:     {"customer_id", "customer_name", "customer_status", "source_system"},
	ingest.TypeSubscriptions: {"sub_id", "customer_id", "start_date", "end_date", "mrr", "currency", "billing_frequency", "pricing_model", "ramp_schedule", "sub_status"},
	ingest.TypeInvoices:      {"invoice_id", "customer_id", "sub_id", "invoice_date", "period_start", "period_end", "amount", "currency", "status"},
	ingest.TypePayments:      {"payment_id", "invoice_id", "payment_date", "amount", "currency"},
	ingest.TypeCreditNotes:   {"credit_note_id", "invoice_id", "customer_id", "issue_date", "amount", "currency", "reason"},
}

// CSV renders one dataset type as a downloadable CSV file. The second
// return is false for unknown types.
func (d Dataset) CSV(fileType string) ([]byte, bool) {
	columns, ok := csvColumns[fileType]
	if !ok {
		return nil, false
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(columns)
	for _, row := range d.Rows(fileType) {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = row[col]
		}
		_ = w.Write(record)
	}
	w.Flush()
	return buf.Bytes(), true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
