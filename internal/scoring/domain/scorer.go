package scoring

import (
	"math"

	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
	reconcile "revstrux/internal/reconcile/domain"
)

var interpretations = map[string]string{
	"green":  "Structure is coherent. Spot-check recommended.",
	"amber":  "Moderate drift detected. Review flagged accounts.",
	"orange": "Significant gaps. Investigate before month-end close.",
	"red":    "Structural breakdown. Do not rely on current revenue reporting.",
}

// Calculate aggregates resolver, modeler and reconciler outputs into the
// composite structural-integrity score. Denominators floor at 1 so empty
// inputs yield a defined (zero-component) score.
func Calculate(
	entities []identity.Entity,
	resolved identity.ResolveResult,
	results []reconcile.Result,
	totalSubs int, totalARR float64,
	excludedSubs int, excludedARR float64,
) Score {
	totalCandidates := len(resolved.AutoMatched) + len(resolved.NeedsReview) +
		len(resolved.UnmatchedAccounts) + len(resolved.UnmatchedCustomers)
	entityRate := rate(len(entities), totalCandidates)

	totalSlices := len(results)
	invoicedSlices, cleanSlices, fullChain := 0, 0, 0
	for _, r := range results {
		if r.InvoicedAmount > 0 {
			invoicedSlices++
		}
		if r.Status == reconcile.StatusClean {
			cleanSlices++
		}
		if r.InvoicedAmount > 0 && r.CollectedAmount > 0 {
			fullChain++
		}
	}
	coverageRate := rate(invoicedSlices, totalSlices)
	varianceRate := rate(cleanSlices, totalSlices)
	lineageRate := rate(fullChain, totalSlices)

	composite := int(math.Round(
		WeightEntityMatch*entityRate +
			WeightBillingCoverage*coverageRate +
			WeightVariance*varianceRate +
			WeightLineage*lineageRate))

	band, color := bandFor(composite)

	coveredSubs := totalSubs - excludedSubs
	coveredARR := totalARR - excludedARR

	return Score{
		Score:          composite,
		Band:           band,
		Color:          color,
		Interpretation: interpretations[color],
		Components: Components{
			EntityMatchRate:     Component{Value: money.Round2(entityRate), Weight: 25, Label: "Entity Match Rate"},
			BillingCoverageRate: Component{Value: money.Round2(coverageRate), Weight: 35, Label: "Billing Coverage Rate"},
			VarianceRate:        Component{Value: money.Round2(varianceRate), Weight: 25, Label: "Variance Rate"},
			LineageCompleteness: Component{Value: money.Round2(lineageRate), Weight: 15, Label: "Lineage Completeness"},
		},
		Coverage: Coverage{
			SubscriptionCount:  coveredSubs,
			TotalSubscriptions: totalSubs,
			SubscriptionPct:    money.Round2(rate(coveredSubs, totalSubs)),
			ARRCovered:         money.Round2(coveredARR),
			TotalARR:           money.Round2(totalARR),
			ARRPct:             money.Round2(ratef(coveredARR, totalARR)),
		},
		RevenueAtRisk: revenueAtRisk(results),
	}
}

func revenueAtRisk(results []reconcile.Result) RevenueAtRisk {
	var rar RevenueAtRisk
	missing := make(map[string]bool)
	under := make(map[string]bool)
	over := make(map[string]bool)
	unpaid := make(map[string]bool)
	for _, r := range results {
		if r.Status != reconcile.StatusClean {
			rar.Total += math.Abs(r.Variance)
		}
		switch r.Status {
		case reconcile.StatusMissingInvoice:
			rar.MissingInvoice += r.ExpectedAmount
			missing[r.RSXID] = true
		case reconcile.StatusUnderBilled:
			rar.UnderBilled += math.Abs(r.Variance)
			under[r.RSXID] = true
		case reconcile.StatusOverBilled:
			rar.OverBilled += r.Variance
			over[r.RSXID] = true
		}
		if r.HasUnpaidAR {
			rar.UnpaidAR += r.InvoicedAmount - r.CollectedAmount
			unpaid[r.RSXID] = true
		}
	}
	rar.Total = money.Round2(rar.Total)
	rar.MissingInvoice = money.Round2(rar.MissingInvoice)
	rar.UnderBilled = money.Round2(rar.UnderBilled)
	rar.OverBilled = money.Round2(rar.OverBilled)
	rar.UnpaidAR = money.Round2(rar.UnpaidAR)
	rar.MissingInvoiceAccounts = len(missing)
	rar.UnderBilledAccounts = len(under)
	rar.OverBilledAccounts = len(over)
	rar.UnpaidARAccounts = len(unpaid)
	return rar
}

func bandFor(score int) (band, color string) {
	switch {
	case score >= 90:
		return BandCoherent, "green"
	case score >= 75:
		return BandDrifting, "amber"
	case score >= 60:
		return BandAtRisk, "orange"
	default:
		return BandBreakdown, "red"
	}
}

// rate returns numerator/denominator as a percentage, flooring the
// denominator at 1.
func rate(num, den int) float64 {
	if den < 1 {
		den = 1
	}
	return float64(num) / float64(den) * 100
}

func ratef(num, den float64) float64 {
	if den < 1 {
		den = 1
	}
	return num / den * 100
}
