// Package exclusion defines the structural-exclusion record emitted when a
// specific input record cannot be reconciled. Exclusions never abort a run;
// downstream consumers filter and count by reason code, so the code set is
// closed and the strings are stable.
package exclusion

import "time"

// Reason codes. Do not rename: exports and dashboards key on these strings.
const (
	ReasonUnsupportedStructure  = "UNSUPPORTED_STRUCTURE"
	ReasonAllocationAmbiguous   = "ALLOCATION_AMBIGUOUS"
	ReasonCreditNoteUnallocated = "CREDIT_NOTE_UNALLOCATED"
)

// Record types.
const (
	RecordSubscription = "subscription"
	RecordInvoice      = "invoice"
	RecordCreditNote   = "credit_note"
)

// Exclusion logs one input record the pipeline could not process.
type Exclusion struct {
	RecordType  string    `json:"record_type"`
	RecordID    string    `json:"record_id"`
	ReasonCode  string    `json:"reason_code"`
	Description string    `json:"description"`
	ExcludedAt  time.Time `json:"excluded_at"`
}

// New builds an exclusion stamped with the current UTC time.
func New(recordType, recordID, reasonCode, description string) Exclusion {
	return Exclusion{
		RecordType:  recordType,
		RecordID:    recordID,
		ReasonCode:  reasonCode,
		Description: description,
		ExcludedAt:  time.Now().UTC(),
	}
}
