package revenue

import (
	"fmt"

	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
)

// ModelResult carries the expectation slices plus any structural
// exclusions recorded while expanding subscriptions.
type ModelResult struct {
	Slices     []ExpectationSlice    `json:"slices"`
	Exclusions []exclusion.Exclusion `json:"exclusions"`
}

// ModelExpectations expands each subscription into one expected-revenue
// slice per calendar month of the inclusive [periodStart, periodEnd]
// window. Usage-priced subscriptions are excluded (no deterministic
// expected amount exists for them); subscriptions whose customer has no
// resolved entity are out of identity scope and skipped silently.
func ModelExpectations(subs []Subscription, entities []identity.Entity, periodStart, periodEnd Month) ModelResult {
	byCustomer := identity.EntitiesByCustomer(entities)
	months := MonthRange(periodStart, periodEnd)

	var result ModelResult
	for _, sub := range subs {
		if sub.PricingModel == PricingUsage {
			result.Exclusions = append(result.Exclusions, exclusion.New(
				exclusion.RecordSubscription, sub.SubID,
				exclusion.ReasonUnsupportedStructure,
				"Usage-based subscription excluded. Only flat and ramp supported.",
			))
			continue
		}

		entity, ok := byCustomer[sub.CustomerID]
		if !ok {
			continue
		}
		subStart, ok := ParseDate(sub.StartDate)
		if !ok {
			continue
		}
		subEnd, hasEnd := ParseDate(sub.EndDate)

		var stages []RampStage
		if sub.PricingModel == PricingRamp {
			stages, _ = ParseRampSchedule(sub.RampSchedule)
		}

		for _, month := range months {
			monthStart, monthEnd := month.Start(), month.End()
			if subStart.After(monthEnd) {
				continue
			}
			if hasEnd && subEnd.Before(monthStart) {
				continue
			}

			activeStart := maxDate(subStart, monthStart)
			activeEnd := monthEnd
			if hasEnd {
				activeEnd = minDate(subEnd, monthEnd)
			}
			daysActive := DaysInclusive(activeStart, activeEnd)
			totalDays := month.Days()

			monthMRR := sub.MRR
			if len(stages) > 0 {
				monthMRR = StageMRRFor(stages, month, sub.MRR)
			}

			prorated := daysActive < totalDays
			expected := money.Round2(monthMRR)
			if prorated {
				expected = money.Round2(float64(daysActive) / float64(totalDays) * monthMRR)
			}

			result.Slices = append(result.Slices, ExpectationSlice{
				RSXID:            entity.RSXID,
				SubID:            sub.SubID,
				CustomerID:       sub.CustomerID,
				Period:           month.String(),
				ExpectedAmount:   expected,
				MRR:              money.Round2(monthMRR),
				DaysActive:       daysActive,
				TotalDays:        totalDays,
				IsProrated:       prorated,
				Currency:         currencyOrDefault(sub.Currency),
				BillingFrequency: frequencyOrDefault(sub.BillingFrequency),
			})
		}
	}
	return result
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

func frequencyOrDefault(f string) string {
	if f == "" {
		return "monthly"
	}
	return f
}

// SliceKey is the unique identity of a slice.
func SliceKey(rsxID, subID, period string) string {
	return fmt.Sprintf("%s|%s|%s", rsxID, subID, period)
}
