package billing

// Invoice statuses.
const (
	InvoiceStatusPaid   = "paid"
	InvoiceStatusUnpaid = "unpaid"
	InvoiceStatusVoid   = "void"
	InvoiceStatusDraft  = "draft"
)

// Invoice is a billed amount covering a service period. SubID is optional;
// when present and valid it narrows allocation to that subscription's
// slices.
type Invoice struct {
	InvoiceID   string  `json:"invoice_id"`
	CustomerID  string  `json:"customer_id"`
	SubID       string  `json:"sub_id"`
	InvoiceDate string  `json:"invoice_date"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
}

// Payment records cash received against an invoice. Multiple payments may
// reference one invoice and are summed.
type Payment struct {
	PaymentID   string  `json:"payment_id"`
	InvoiceID   string  `json:"invoice_id"`
	PaymentDate string  `json:"payment_date"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// CreditNote reduces billed revenue. Linked notes carry an invoice id;
// standalone notes attach by customer entity and issue month.
type CreditNote struct {
	CreditNoteID string  `json:"credit_note_id"`
	InvoiceID    string  `json:"invoice_id"`
	CustomerID   string  `json:"customer_id"`
	IssueDate    string  `json:"issue_date"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Reason       string  `json:"reason"`
}
