package scoring

// Component weights. They sum to 1; billing coverage carries the most
// weight because a slice nobody invoiced is the costliest structural gap.
const (
	WeightEntityMatch     = 0.25
	WeightBillingCoverage = 0.35
	WeightVariance        = 0.25
	WeightLineage         = 0.15
)

// Band thresholds.
const (
	BandCoherent  = "Coherent"
	BandDrifting  = "Drifting"
	BandAtRisk    = "At Risk"
	BandBreakdown = "Breakdown"
)

// Component is one weighted rate of the composite score.
type Component struct {
	Value  float64 `json:"value"`
	Weight int     `json:"weight"`
	Label  string  `json:"label"`
}

// Components is the full component breakdown.
type Components struct {
	EntityMatchRate     Component `json:"entity_match_rate"`
	BillingCoverageRate Component `json:"billing_coverage_rate"`
	VarianceRate        Component `json:"variance_rate"`
	LineageCompleteness Component `json:"lineage_completeness"`
}

// RevenueAtRisk aggregates dollar exposure across non-clean slices,
// broken down by cause, with distinct-entity counts per cause.
type RevenueAtRisk struct {
	Total                  float64 `json:"total"`
	MissingInvoice         float64 `json:"missing_invoice"`
	UnderBilled            float64 `json:"under_billed"`
	OverBilled             float64 `json:"over_billed"`
	UnpaidAR               float64 `json:"unpaid_ar"`
	MissingInvoiceAccounts int     `json:"missing_invoice_accounts"`
	UnderBilledAccounts    int     `json:"under_billed_accounts"`
	OverBilledAccounts     int     `json:"over_billed_accounts"`
	UnpaidARAccounts       int     `json:"unpaid_ar_accounts"`
}

// Coverage reports how much of the subscription base the analysis
// actually represents after structural exclusions.
type Coverage struct {
	SubscriptionCount  int     `json:"subscription_count"`
	TotalSubscriptions int     `json:"total_subscriptions"`
	SubscriptionPct    float64 `json:"subscription_pct"`
	ARRCovered         float64 `json:"arr_covered"`
	TotalARR           float64 `json:"total_arr"`
	ARRPct             float64 `json:"arr_pct"`
}

// Score is the composite 0-100 structural-integrity assessment.
type Score struct {
	Score          int           `json:"score"`
	Band           string        `json:"band"`
	Color          string        `json:"color"`
	Interpretation string        `json:"interpretation"`
	Components     Components    `json:"components"`
	Coverage       Coverage      `json:"coverage"`
	RevenueAtRisk  RevenueAtRisk `json:"revenue_at_risk"`
}
