package session

import "context"

// Dataset names for the session data store. Raw uploads use the Raw
// helper; derived datasets are written by the analysis run.
const (
	DataEntities        = "rsx_entities"
	DataSlices          = "slices"
	DataReconciliation  = "reconciliation"
	DataExclusions      = "exclusions"
	DataScore           = "score"
	DataAccountsSummary = "accounts_summary"
)

// Raw names the stored dataset for one uploaded file type.
func Raw(fileType string) string {
	return "raw_" + fileType
}

// Repository persists session aggregates.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	CountByStatus(ctx context.Context, status string) (int, error)
}

// DataRepository persists session datasets as JSON blobs. Set marshals v;
// Get unmarshals the stored blob into out and returns ErrDataNotFound
// when nothing was stored under that name.
type DataRepository interface {
	Set(ctx context.Context, sessionID, name string, v any) error
	Get(ctx context.Context, sessionID, name string, out any) error
}
