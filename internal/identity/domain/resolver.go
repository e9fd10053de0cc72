package identity

import (
	"revstrux/internal/money"
)

// FuzzyThreshold is the minimum similarity for a fuzzy suggestion to be
// surfaced for human review.
const FuzzyThreshold = 0.70

// ReviewMatch is a fuzzy account/customer pairing pending a human decision.
type ReviewMatch struct {
	MatchID        string  `json:"match_id"`
	AccountID      string  `json:"account_id"`
	AccountName    string  `json:"account_name"`
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	Confidence     float64 `json:"confidence"`
	MatchType      string  `json:"match_type"`
	SourceAccount  string  `json:"source_account"`
	SourceCustomer string  `json:"source_customer"`
	Status         string  `json:"status"`
}

// ResolveResult partitions every account into exactly one of auto-matched,
// needs-review, unmatched, or prospect, and every customer into one of
// auto-matched, needs-review, or unmatched.
type ResolveResult struct {
	AutoMatched        []Entity      `json:"auto_matched"`
	NeedsReview        []ReviewMatch `json:"needs_review"`
	UnmatchedAccounts  []Account     `json:"unmatched_accounts"`
	UnmatchedCustomers []Customer    `json:"unmatched_customers"`
	Prospects          []Account     `json:"prospects"`
}

// matchState is the consumed-id accumulator threaded through both passes.
// Greedy 1:1 matching: once an id is claimed it is never revisited.
type matchState struct {
	accounts  map[string]bool
	customers map[string]bool
}

func newMatchState() matchState {
	return matchState{accounts: make(map[string]bool), customers: make(map[string]bool)}
}

// Resolve links accounts to customers in two passes: exact on normalized
// names (first unmatched customer in input order wins), then fuzzy via
// Similarity with the best remaining candidate kept when it clears
// FuzzyThreshold. Fuzzy pairings are emitted for review, not auto-linked,
// but still consume both ids so later accounts cannot claim the same
// customer. Prospect accounts are excluded from matching entirely.
func Resolve(accounts []Account, customers []Customer) ResolveResult {
	accountNorm := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNorm[a.AccountID] = NormalizeName(a.AccountName)
	}
	customerNorm := make(map[string]string, len(customers))
	for _, c := range customers {
		customerNorm[c.CustomerID] = NormalizeName(c.CustomerName)
	}

	state := newMatchState()
	var auto []Entity

	// Pass 1: exact on normalized names.
	for _, a := range accounts {
		if a.AccountStatus == AccountStatusProspect {
			continue
		}
		an := accountNorm[a.AccountID]
		if an == "" {
			continue
		}
		for _, c := range customers {
			if an != customerNorm[c.CustomerID] {
				continue
			}
			if state.accounts[a.AccountID] || state.customers[c.CustomerID] {
				continue
			}
			auto = append(auto, Entity{
				RSXID:          NewEntityID(),
				AccountID:      a.AccountID,
				AccountName:    a.AccountName,
				CustomerID:     c.CustomerID,
				CustomerName:   c.CustomerName,
				Confidence:     1.0,
				MatchType:      MatchTypeExact,
				SourceAccount:  a.SourceSystem,
				SourceCustomer: c.SourceSystem,
			})
			state.accounts[a.AccountID] = true
			state.customers[c.CustomerID] = true
			break
		}
	}

	// Pass 2: best remaining fuzzy candidate per account. Strict > keeps
	// the first-encountered customer on equal scores.
	var review []ReviewMatch
	for _, a := range accounts {
		if state.accounts[a.AccountID] || a.AccountStatus == AccountStatusProspect {
			continue
		}
		an := accountNorm[a.AccountID]
		if an == "" {
			continue
		}
		var best *Customer
		bestScore := 0.0
		for i := range customers {
			c := customers[i]
			if state.customers[c.CustomerID] {
				continue
			}
			if score := Similarity(an, customerNorm[c.CustomerID]); score > bestScore {
				best, bestScore = &customers[i], score
			}
		}
		if best != nil && bestScore >= FuzzyThreshold {
			review = append(review, ReviewMatch{
				MatchID:        NewMatchID(),
				AccountID:      a.AccountID,
				AccountName:    a.AccountName,
				CustomerID:     best.CustomerID,
				CustomerName:   best.CustomerName,
				Confidence:     money.Round2(bestScore),
				MatchType:      MatchTypeFuzzy,
				SourceAccount:  a.SourceSystem,
				SourceCustomer: best.SourceSystem,
				Status:         "pending",
			})
			state.accounts[a.AccountID] = true
			state.customers[best.CustomerID] = true
		}
	}

	result := ResolveResult{AutoMatched: auto, NeedsReview: review}
	for _, a := range accounts {
		if a.AccountStatus == AccountStatusProspect {
			result.Prospects = append(result.Prospects, a)
			continue
		}
		if !state.accounts[a.AccountID] {
			result.UnmatchedAccounts = append(result.UnmatchedAccounts, a)
		}
	}
	for _, c := range customers {
		if !state.customers[c.CustomerID] {
			result.UnmatchedCustomers = append(result.UnmatchedCustomers, c)
		}
	}
	return result
}
