package reconcile

// Slice verdict statuses, in ladder order. Variance-based statuses take
// precedence over the unpaid-AR overlay.
const (
	StatusMissingInvoice = "MISSING_INVOICE"
	StatusClean          = "CLEAN"
	StatusUnderBilled    = "UNDER_BILLED"
	StatusOverBilled     = "OVER_BILLED"
	StatusUnpaidAR       = "UNPAID_AR"
)

// Tolerance is the variance band, in currency units, inside which a slice
// is considered CLEAN.
const Tolerance = 1.00

// InvoiceRef is one allocation's contribution to a slice, kept on the
// result for lineage views.
type InvoiceRef struct {
	InvoiceID       string  `json:"invoice_id"`
	AllocatedAmount float64 `json:"allocated_amount"`
	InvoiceAmount   float64 `json:"invoice_amount"`
	InvoiceDate     string  `json:"invoice_date"`
	InvoiceStatus   string  `json:"invoice_status"`
	OverlapDays     int     `json:"overlap_days"`
}

// AppliedCredit is a credit note portion applied to a slice.
type AppliedCredit struct {
	CreditNoteID  string  `json:"credit_note_id"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
	IssueDate     string  `json:"issue_date"`
	LinkedInvoice string  `json:"linked_invoice"`
}

// Result is the per-slice verdict combining invoiced, credited and
// collected amounts.
type Result struct {
	RSXID             string          `json:"rsx_id"`
	SubID             string          `json:"sub_id"`
	Period            string          `json:"period"`
	ExpectedAmount    float64         `json:"expected_amount"`
	InvoicedAmount    float64         `json:"invoiced_amount"`
	CreditNotesAmount float64         `json:"credit_notes_amount"`
	EffectiveInvoiced float64         `json:"effective_invoiced"`
	CollectedAmount   float64         `json:"collected_amount"`
	Variance          float64         `json:"variance"`
	AbsVariance       float64         `json:"abs_variance"`
	Status            string          `json:"status"`
	HasUnpaidAR       bool            `json:"has_unpaid_ar"`
	IsProrated        bool            `json:"is_prorated"`
	MRR               float64         `json:"mrr"`
	DaysActive        int             `json:"days_active"`
	TotalDays         int             `json:"total_days"`
	Currency          string          `json:"currency"`
	Invoices          []InvoiceRef    `json:"invoices"`
	CreditNotes       []AppliedCredit `json:"credit_notes"`
}
