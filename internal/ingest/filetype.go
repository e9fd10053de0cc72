// Package ingest parses uploaded CSV, XLSX and ZIP files into row tables,
// detects which dataset a file carries, normalizes vendor header and enum
// variants, and validates each dataset against its schema. Validation is
// advisory: the pipeline downstream skips bad records rather than abort.
package ingest

// Dataset types accepted by the service.
const (
	TypeAccounts      = "accounts"
	TypeCustomers     = "customers"
	TypeSubscriptions = "subscriptions"
	TypeInvoices      = "invoices"
	TypePayments      = "payments"
	TypeCreditNotes   = "credit_notes"
)

// FileTypes lists every dataset type in upload order.
var FileTypes = []string{
	TypeAccounts, TypeCustomers, TypeSubscriptions,
	TypeInvoices, TypePayments, TypeCreditNotes,
}

// RequiredTypes are the datasets an analysis cannot run without.
var RequiredTypes = []string{TypeAccounts, TypeCustomers, TypeSubscriptions, TypeInvoices}

var requiredColumns = map[string][]string{
	TypeAccounts:      {"account_id", "account_name", "account_status", "source_system"},
	TypeCustomers:     {"customer_id", "customer_name", "customer_status", "source_system"},
	TypeSubscriptions: {"sub_id", "customer_id", "start_date", "mrr", "currency", "billing_frequency", "pricing_model", "sub_status"},
	TypeInvoices:      {"invoice_id", "customer_id", "invoice_date", "period_start", "period_end", "amount", "currency", "status"},
	TypePayments:      {"payment_id", "invoice_id", "payment_date", "amount", "currency"},
	TypeCreditNotes:   {"credit_note_id", "customer_id", "issue_date", "amount", "currency"},
}

var optionalColumns = map[string][]string{
	TypeAccounts:      {"account_owner"},
	TypeCustomers:     {"billing_email"},
	TypeSubscriptions: {"end_date", "ramp_schedule"},
	TypeInvoices:      {"sub_id"},
	TypePayments:      {"payment_method"},
	TypeCreditNotes:   {"invoice_id", "reason"},
}

var idColumns = map[string]string{
	TypeAccounts:      "account_id",
	TypeCustomers:     "customer_id",
	TypeSubscriptions: "sub_id",
	TypeInvoices:      "invoice_id",
	TypePayments:      "payment_id",
	TypeCreditNotes:   "credit_note_id",
}

var validCurrencies = map[string]bool{
	"USD": true, "GBP": true, "EUR": true, "INR": true, "AUD": true, "CAD": true,
	"SGD": true, "AED": true, "JPY": true, "CHF": true, "HKD": true, "NZD": true,
	"SEK": true, "NOK": true, "DKK": true, "ZAR": true,
}

var validEnums = map[string]map[string][]string{
	TypeAccounts: {
		"account_status": {"active", "churned", "prospect"},
	},
	TypeCustomers: {
		"customer_status": {"active", "cancelled", "paused"},
	},
	TypeSubscriptions: {
		"sub_status":        {"active", "cancelled", "paused", "expired"},
		"billing_frequency": {"monthly", "quarterly", "annual"},
		"pricing_model":     {"flat", "ramp", "usage"},
	},
	TypeInvoices: {
		"status": {"paid", "unpaid", "void", "draft"},
	},
}

// KnownType reports whether ft names a dataset this package understands.
func KnownType(ft string) bool {
	_, ok := requiredColumns[ft]
	return ok
}
