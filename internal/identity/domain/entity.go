package identity

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Match types.
const (
	MatchTypeExact          = "exact"
	MatchTypeFuzzy          = "fuzzy"
	MatchTypeFuzzyConfirmed = "fuzzy_confirmed"
)

// Entity is the canonical resolved pairing of one account and one billing
// customer (an "RSX entity"). Each account and each customer participates
// in at most one entity.
type Entity struct {
	RSXID          string  `json:"rsx_id"`
	AccountID      string  `json:"account_id"`
	AccountName    string  `json:"account_name"`
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name"`
	Confidence     float64 `json:"confidence"`
	MatchType      string  `json:"match_type"`
	SourceAccount  string  `json:"source_account"`
	SourceCustomer string  `json:"source_customer"`
}

// NewEntityID generates a fresh RSX identifier.
func NewEntityID() string {
	u := uuid.New()
	return "RSX-" + strings.ToUpper(hex.EncodeToString(u[:])[:5])
}

// NewMatchID generates an identifier for a pending fuzzy match.
func NewMatchID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:8]
}
