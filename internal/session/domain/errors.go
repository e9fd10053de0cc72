package session

import "errors"

var (
	// ErrEmptyID is returned when a session id is empty.
	ErrEmptyID = errors.New("session: empty session id")
	// ErrNotFound is returned when no session matches the id.
	ErrNotFound = errors.New("session: not found")
	// ErrNilSession is returned when saving a nil session.
	ErrNilSession = errors.New("session: nil session")
	// ErrNoDecisions is returned when undoing with an empty decision list.
	ErrNoDecisions = errors.New("session: no decisions to undo")
	// ErrInvalidDecision is returned for a decision verdict outside
	// confirmed/rejected.
	ErrInvalidDecision = errors.New("session: invalid decision")
	// ErrDataNotFound is returned when a dataset blob is missing.
	ErrDataNotFound = errors.New("session: dataset not found")
)
