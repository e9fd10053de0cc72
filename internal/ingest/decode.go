package ingest

import (
	"strconv"
	"strings"

	billing "revstrux/internal/billing/domain"
	identity "revstrux/internal/identity/domain"
	revenue "revstrux/internal/revenue/domain"
)

// Decoders turn normalized row maps into the typed records the pipeline
// consumes. Amounts that fail to parse coerce to zero; validation has
// reported them already and the pipeline skips on semantics, not shape.

func amount(row Row, field string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(row[field]), 64)
	if err != nil {
		return 0
	}
	return v
}

// DecodeAccounts maps account rows.
func DecodeAccounts(rows []Row) []identity.Account {
	out := make([]identity.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.Account{
			AccountID:     row["account_id"],
			AccountName:   row["account_name"],
			AccountStatus: row["account_status"],
			SourceSystem:  row["source_system"],
		})
	}
	return out
}

// DecodeCustomers maps customer rows.
func DecodeCustomers(rows []Row) []identity.Customer {
	out := make([]identity.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, identity.Customer{
			CustomerID:     row["customer_id"],
			CustomerName:   row["customer_name"],
			CustomerStatus: row["customer_status"],
			SourceSystem:   row["source_system"],
		})
	}
	return out
}

// DecodeSubscriptions maps subscription rows.
func DecodeSubscriptions(rows []Row) []revenue.Subscription {
	out := make([]revenue.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, revenue.Subscription{
			SubID:            row["sub_id"],
			CustomerID:       row["customer_id"],
			StartDate:        row["start_date"],
			EndDate:          row["end_date"],
			MRR:              amount(row, "mrr"),
			Currency:         row["currency"],
			BillingFrequency: row["billing_frequency"],
			PricingModel:     row["pricing_model"],
			RampSchedule:     row["ramp_schedule"],
			SubStatus:        row["sub_status"],
		})
	}
	return out
}

// DecodeInvoices maps invoice rows.
func DecodeInvoices(rows []Row) []billing.Invoice {
	out := make([]billing.Invoice, 0, len(rows))
	for _, row := range rows {
		out = append(out, billing.Invoice{
			InvoiceID:   row["invoice_id"],
			CustomerID:  row["customer_id"],
			SubID:       row["sub_id"],
			InvoiceDate: row["invoice_date"],
			PeriodStart: row["period_start"],
			PeriodEnd:   row["period_end"],
			Amount:      amount(row, "amount"),
			Currency:    row["currency"],
			Status:      row["status"],
		})
	}
	return out
}

// DecodePayments maps payment rows.
func DecodePayments(rows []Row) []billing.Payment {
	out := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, billing.Payment{
			PaymentID:   row["payment_id"],
			InvoiceID:   row["invoice_id"],
			PaymentDate: row["payment_date"],
			Amount:      amount(row, "amount"),
			Currency:    row["currency"],
		})
	}
	return out
}

// DecodeCreditNotes maps credit note rows.
func DecodeCreditNotes(rows []Row) []billing.CreditNote {
	out := make([]billing.CreditNote, 0, len(rows))
	for _, row := range rows {
		out = append(out, billing.CreditNote{
			CreditNoteID: row["credit_note_id"],
			InvoiceID:    row["invoice_id"],
			CustomerID:   row["customer_id"],
			IssueDate:    row["issue_date"],
			Amount:       amount(row, "amount"),
			Currency:     row["currency"],
			Reason:       row["reason"],
		})
	}
	return out
}
