package revenue

// ExpectationSlice is one subscription's expected revenue for one
// calendar month. Immutable; keyed uniquely by (rsx_id, sub_id, period).
type ExpectationSlice struct {
	RSXID            string  `json:"rsx_id"`
	SubID            string  `json:"sub_id"`
	CustomerID       string  `json:"customer_id"`
	Period           string  `json:"period"`
	ExpectedAmount   float64 `json:"expected_amount"`
	MRR              float64 `json:"mrr"`
	DaysActive       int     `json:"days_active"`
	TotalDays        int     `json:"total_days"`
	IsProrated       bool    `json:"is_prorated"`
	Currency         string  `json:"currency"`
	BillingFrequency string  `json:"billing_frequency"`
}
