package ingest

// headerAliases maps vendor column spellings onto canonical column names.
// Keys and values are lowercase; lookups happen after trimming and
// lowercasing the raw header.
var headerAliases = map[string]string{
	// accounts
	"acct_id":      "account_id",
	"acct_name":    "account_name",
	"company_name": "account_name",
	"acct_status":  "account_status",

	// customers
	"cust_id":     "customer_id",
	"cust_name":   "customer_name",
	"cust_status": "customer_status",

	// subscriptions
	"subscription_id":     "sub_id",
	"sub_start":           "start_date",
	"sub_end":             "end_date",
	"frequency":           "billing_frequency",
	"model":               "pricing_model",
	"subscription_status": "sub_status",
	"monthly_amount":      "mrr",

	// invoices
	"inv_id":        "invoice_id",
	"inv_date":      "invoice_date",
	"billing_start": "period_start",
	"billing_end":   "period_end",
	"total":         "amount",
	"total_amount":  "amount",

	// payments
	"pay_id":   "payment_id",
	"pay_date": "payment_date",
	"paid_on":  "payment_date",

	// credit notes
	"cn_id":       "credit_note_id",
	"credit_id":   "credit_note_id",
	"credit_date": "issue_date",
}

// enumAliases maps vendor status and model spellings onto canonical
// values, per dataset and column. Raw values are lowercased before the
// lookup, so case variants need no entry of their own.
var enumAliases = map[string]map[string]map[string]string{
	TypeAccounts: {
		"account_status": {
			"closed": "churned",
			"lead":   "prospect",
		},
	},
	TypeCustomers: {
		"customer_status": {
			"canceled": "cancelled",
			"on_hold":  "paused",
		},
	},
	TypeSubscriptions: {
		"sub_status": {
			"canceled": "cancelled",
			"on_hold":  "paused",
		},
		"billing_frequency": {
			"month":    "monthly",
			"quarter":  "quarterly",
			"yearly":   "annual",
			"annually": "annual",
		},
		"pricing_model": {
			"fixed":  "flat",
			"ramped": "ramp",
			"tiered": "ramp",
			"metered": "usage",
		},
	},
	TypeInvoices: {
		"status": {
			"settled":  "paid",
			"posted":   "unpaid",
			"open":     "unpaid",
			"pending":  "unpaid",
			"canceled": "void",
			"voided":   "void",
		},
	},
}
