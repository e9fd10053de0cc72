package application

import (
	"math"
	"sort"

	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
	reconcile "revstrux/internal/reconcile/domain"
)

// Summary variance/lineage placeholders for accounts with no billing
// counterpart.
const (
	VarianceUnknown   = "UNKNOWN"
	LineageComplete   = "Complete"
	LineageIncomplete = "Incomplete"
	LineageUnknown    = "Unknown"
)

// AccountSummary is the per-entity rollup behind the accounts view and
// its exports. Unmatched CRM accounts appear with an UNM- prefix and no
// reconciliation figures.
type AccountSummary struct {
	RSXID               string  `json:"rsx_id"`
	AccountName         string  `json:"account_name"`
	AccountID           string  `json:"account_id"`
	CustomerID          string  `json:"customer_id"`
	MatchType           string  `json:"match_type"`
	Confidence          float64 `json:"confidence"`
	Subscriptions       int     `json:"subscriptions"`
	Periods             int     `json:"periods"`
	ExpectedTotal       float64 `json:"expected_total"`
	InvoicedTotal       float64 `json:"invoiced_total"`
	CreditNotesTotal    float64 `json:"credit_notes_total"`
	TotalVariance       float64 `json:"total_variance"`
	PrimaryVarianceType string  `json:"primary_variance_type"`
	LineageStatus       string  `json:"lineage_status"`
	Currency            string  `json:"currency"`
}

// BuildAccountSummaries rolls reconciliation results up per entity. The
// primary variance type is the non-clean status of the largest single
// deviation seen so far; any missing invoice marks the lineage
// incomplete. Output is ordered by absolute total variance, descending.
func BuildAccountSummaries(
	entities []identity.Entity,
	results []reconcile.Result,
	unmatchedAccounts []identity.Account,
	defaultCurrency string,
) []AccountSummary {
	byRSX := make(map[string]*AccountSummary, len(entities))
	order := make([]string, 0, len(entities))
	for _, e := range entities {
		byRSX[e.RSXID] = &AccountSummary{
			RSXID:               e.RSXID,
			AccountName:         e.AccountName,
			AccountID:           e.AccountID,
			CustomerID:          e.CustomerID,
			MatchType:           e.MatchType,
			Confidence:          e.Confidence,
			PrimaryVarianceType: reconcile.StatusClean,
			LineageStatus:       LineageComplete,
			Currency:            "USD",
		}
		order = append(order, e.RSXID)
	}

	subsSeen := make(map[string]map[string]bool)
	for _, r := range results {
		acc, ok := byRSX[r.RSXID]
		if !ok {
			continue
		}
		acc.Periods++
		acc.ExpectedTotal = money.Round2(acc.ExpectedTotal + r.ExpectedAmount)
		acc.InvoicedTotal = money.Round2(acc.InvoicedTotal + r.InvoicedAmount)
		acc.CreditNotesTotal = money.Round2(acc.CreditNotesTotal + r.CreditNotesAmount)
		acc.TotalVariance = money.Round2(acc.TotalVariance + r.Variance)
		acc.Currency = r.Currency
		if r.Status != reconcile.StatusClean {
			if acc.PrimaryVarianceType == reconcile.StatusClean || r.AbsVariance > math.Abs(acc.TotalVariance) {
				acc.PrimaryVarianceType = r.Status
			}
			if r.Status == reconcile.StatusMissingInvoice {
				acc.LineageStatus = LineageIncomplete
			}
		}
		if subsSeen[r.RSXID] == nil {
			subsSeen[r.RSXID] = make(map[string]bool)
		}
		subsSeen[r.RSXID][r.SubID] = true
	}
	for rsxID, subs := range subsSeen {
		byRSX[rsxID].Subscriptions = len(subs)
	}

	out := make([]AccountSummary, 0, len(order)+len(unmatchedAccounts))
	for _, rsxID := range order {
		out = append(out, *byRSX[rsxID])
	}
	for _, ua := range unmatchedAccounts {
		out = append(out, AccountSummary{
			RSXID:               "UNM-" + ua.AccountID,
			AccountName:         ua.AccountName,
			AccountID:           ua.AccountID,
			MatchType:           "unmatched",
			PrimaryVarianceType: VarianceUnknown,
			LineageStatus:       LineageUnknown,
			Currency:            defaultCurrency,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].TotalVariance) > math.Abs(out[j].TotalVariance)
	})
	return out
}
