package identity

// Account statuses.
const (
	AccountStatusActive   = "active"
	AccountStatusChurned  = "churned"
	AccountStatusProspect = "prospect"
)

// Account is an organizational record from the CRM side. Immutable once
// ingested.
type Account struct {
	AccountID     string `json:"account_id"`
	AccountName   string `json:"account_name"`
	AccountStatus string `json:"account_status"`
	SourceSystem  string `json:"source_system"`
}

// Customer is a billing record. Immutable once ingested.
type Customer struct {
	CustomerID     string `json:"customer_id"`
	CustomerName   string `json:"customer_name"`
	CustomerStatus string `json:"customer_status"`
	SourceSystem   string `json:"source_system"`
}
