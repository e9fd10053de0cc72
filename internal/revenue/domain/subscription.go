package revenue

import "encoding/json"

// Subscription statuses.
const (
	SubStatusActive    = "active"
	SubStatusCancelled = "cancelled"
	SubStatusPaused    = "paused"
	SubStatusExpired   = "expired"
)

// Pricing models.
const (
	PricingFlat  = "flat"
	PricingRamp  = "ramp"
	PricingUsage = "usage"
)

// Subscription is a contracted recurring-revenue record. Dates stay as
// raw strings: a record with an unparseable start date is skipped from
// slice generation rather than failing the run.
type Subscription struct {
	SubID            string  `json:"sub_id"`
	CustomerID       string  `json:"customer_id"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	MRR              float64 `json:"mrr"`
	Currency         string  `json:"currency"`
	BillingFrequency string  `json:"billing_frequency"`
	PricingModel     string  `json:"pricing_model"`
	RampSchedule     string  `json:"ramp_schedule"`
	SubStatus        string  `json:"sub_status"`
}

// RampStage is one step of a staged pricing plan.
type RampStage struct {
	StageStart string  `json:"stage_start"`
	StageEnd   string  `json:"stage_end"`
	MRR        float64 `json:"mrr"`
}

// ParseRampSchedule decodes the subscription's ramp schedule. A missing
// or malformed schedule returns ok=false; the modeler then falls back to
// the base MRR.
func ParseRampSchedule(raw string) ([]RampStage, bool) {
	if raw == "" {
		return nil, false
	}
	var stages []RampStage
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, false
	}
	return stages, true
}

// StageMRRFor returns the MRR of the first stage whose [start, end] range
// contains the given month's first day, or fallback when no stage matches.
func StageMRRFor(stages []RampStage, month Month, fallback float64) float64 {
	monthStart := month.Start()
	for _, stage := range stages {
		start, okStart := ParseDate(stage.StageStart)
		end, okEnd := ParseDate(stage.StageEnd)
		if !okStart || !okEnd {
			continue
		}
		if !monthStart.Before(start) && !monthStart.After(end) {
			return stage.MRR
		}
	}
	return fallback
}
