package identity

// Decision values for review matches.
const (
	DecisionConfirmed = "confirmed"
	DecisionRejected  = "rejected"
)

// Decision is an externally supplied verdict on one review match.
type Decision struct {
	MatchID  string `json:"match_id"`
	Decision string `json:"decision"`
}

// BuildEntities materializes the entity set used downstream: every
// auto-matched pairing plus one fresh entity per confirmed fuzzy
// suggestion. Rejected and undecided suggestions are left out.
func BuildEntities(result ResolveResult, decisions []Decision) []Entity {
	entities := make([]Entity, 0, len(result.AutoMatched))
	entities = append(entities, result.AutoMatched...)

	byMatch := make(map[string]string, len(decisions))
	for _, d := range decisions {
		if _, seen := byMatch[d.MatchID]; !seen {
			byMatch[d.MatchID] = d.Decision
		}
	}

	for _, m := range result.NeedsReview {
		if byMatch[m.MatchID] != DecisionConfirmed {
			continue
		}
		entities = append(entities, Entity{
			RSXID:          NewEntityID(),
			AccountID:      m.AccountID,
			AccountName:    m.AccountName,
			CustomerID:     m.CustomerID,
			CustomerName:   m.CustomerName,
			Confidence:     m.Confidence,
			MatchType:      MatchTypeFuzzyConfirmed,
			SourceAccount:  m.SourceAccount,
			SourceCustomer: m.SourceCustomer,
		})
	}
	return entities
}

// EntitiesByCustomer indexes entities by billing customer id. Later
// pipeline stages use this to decide identity scope.
func EntitiesByCustomer(entities []Entity) map[string]Entity {
	byCustomer := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byCustomer[e.CustomerID] = e
	}
	return byCustomer
}
