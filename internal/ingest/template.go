package ingest

import (
	"bytes"
	"encoding/csv"
)

var templates = map[string]struct {
	headers []string
	rows    [][]string
}{
	TypeAccounts: {
		headers: []string{"account_id", "account_name", "account_status", "source_system", "account_owner"},
		rows: [][]string{
			{"ACC-001", "Acme Corporation", "active", "salesforce", "John Smith"},
			{"ACC-002", "TechStart Ltd", "active", "hubspot", "Jane Doe"},
		},
	},
	TypeCustomers: {
		headers: []string{"customer_id", "customer_name", "customer_status", "source_system", "billing_email"},
		rows: [][]string{
			{"CUST-001", "Acme Corporation", "active", "stripe", "billing@acme.com"},
			{"CUST-002", "TechStart Limited", "active", "chargebee", "finance@techstart.com"},
		},
	},
	TypeSubscriptions: {
		headers: []string{"sub_id", "customer_id", "start_date", "end_date", "mrr", "currency", "billing_frequency", "pricing_model", "ramp_schedule", "sub_status"},
		rows: [][]string{
			{"SUB-001", "CUST-001", "2024-01-01", "2024-12-31", "10000", "USD", "monthly", "flat", "", "active"},
			{"SUB-002", "CUST-002", "2024-03-15", "", "5000", "USD", "monthly", "ramp",
				`[{"stage_start":"2024-03-15","stage_end":"2024-06-30","mrr":5000},{"stage_start":"2024-07-01","stage_end":"2025-12-31","mrr":8000}]`, "active"},
		},
	},
	TypeInvoices: {
		headers: []string{"invoice_id", "customer_id", "sub_id", "invoice_date", "period_start", "period_end", "amount", "currency", "status"},
		rows: [][]string{
			{"INV-001", "CUST-001", "SUB-001", "2024-01-01", "2024-01-01", "2024-01-31", "10000", "USD", "paid"},
			{"INV-002", "CUST-002", "SUB-002", "2024-04-01", "2024-04-01", "2024-04-30", "5000", "USD", "paid"},
		},
	},
	TypePayments: {
		headers: []string{"payment_id", "invoice_id", "payment_date", "amount", "currency", "payment_method"},
		rows: [][]string{
			{"PAY-001", "INV-001", "2024-01-15", "10000", "USD", "bank_transfer"},
			{"PAY-002", "INV-002", "2024-04-10", "5000", "USD", "card"},
		},
	},
	TypeCreditNotes: {
		headers: []string{"credit_note_id", "invoice_id", "customer_id", "issue_date", "amount", "currency", "reason"},
		rows: [][]string{
			{"CN-001", "INV-001", "CUST-001", "2024-02-01", "2000", "USD", "billing error correction"},
			{"CN-002", "", "CUST-002", "2024-05-15", "500", "USD", "goodwill credit - no linked invoice"},
		},
	},
}

// Template renders the downloadable starter CSV for a dataset type.
func Template(fileType string) ([]byte, bool) {
	t, ok := templates[fileType]
	if !ok {
		return nil, false
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(t.headers)
	for _, row := range t.rows {
		w.Write(row)
	}
	w.Flush()
	return buf.Bytes(), true
}
