// Package ledger is the single write entry point. Every state change in the
// system flows through Append: the event is stamped, journaled, and the state
// store is rebuilt, in that order. The journal is authoritative; a rebuild
// failure leaves it intact and the next rebuild self-heals the snapshots.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rostr/internal/journal"
	"rostr/internal/state"
)

// ErrReferenceNotFound reports a live edit or delete aimed at a key that is
// not in the current state. The reducer stays tolerant of such events during
// replay; this check only protects callers from journaling a mistake.
var ErrReferenceNotFound = errors.New("reference not found")

// Ledger coordinates the journal and the state store. Now and NewID are
// injectable for tests; callers never supply identity or timestamps.
type Ledger struct {
	Journal *journal.Journal
	Store   *state.Store
	Log     *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// Open roots a ledger at dir, creating the directory if needed.
func Open(dir string, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	j, err := journal.New(dir, log)
	if err != nil {
		return nil, err
	}
	st, err := state.New(dir, j, log)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		Journal: j,
		Store:   st,
		Log:     log,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}, nil
}

// Append stamps a new event with a unique id and the current UTC timestamp,
// appends it durably to the journal, then rebuilds the state store. The
// returned id identifies the journaled event; it is returned even when the
// rebuild fails, since the append itself succeeded.
func (l *Ledger) Append(evtType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	if err := l.checkReference(evtType, raw); err != nil {
		return "", err
	}
	ev := journal.Event{
		ID:        l.NewID(),
		Timestamp: l.Now().UTC().Format(time.RFC3339),
		Type:      evtType,
		Payload:   raw,
	}
	if err := l.Journal.Append(ev); err != nil {
		return "", err
	}
	if _, err := l.Store.Rebuild(); err != nil {
		l.Log.Warn("state rebuild failed after append, journal remains authoritative",
			zap.String("event_id", ev.ID), zap.Error(err))
		return ev.ID, fmt.Errorf("rebuild state: %w", err)
	}
	return ev.ID, nil
}

// checkReference resolves mutate-events against the current snapshots before
// anything is journaled, so a typo'd key fails loudly instead of becoming a
// permanently ignored event.
func (l *Ledger) checkReference(evtType string, payload json.RawMessage) error {
	switch evtType {
	case journal.TypePersonEdited, journal.TypePersonDeleted,
		journal.TypePersonOffboarded, journal.TypeUnavailabilityAdded:
		var ref struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(payload, &ref); err != nil || ref.Email == "" {
			return fmt.Errorf("payload for %s must carry an email", evtType)
		}
		if _, ok := l.Store.People()[ref.Email]; !ok {
			return fmt.Errorf("%w: person %q", ErrReferenceNotFound, ref.Email)
		}
	case journal.TypeProjectEdited, journal.TypeProjectDeleted:
		var ref struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal(payload, &ref); err != nil || ref.ProjectID == "" {
			return fmt.Errorf("payload for %s must carry a project_id", evtType)
		}
		if _, ok := l.Store.Projects()[ref.ProjectID]; !ok {
			return fmt.Errorf("%w: project %q", ErrReferenceNotFound, ref.ProjectID)
		}
	case journal.TypeAllocationRemoved:
		var ref struct {
			AllocationID string `json:"allocation_id"`
		}
		if err := json.Unmarshal(payload, &ref); err != nil || ref.AllocationID == "" {
			return fmt.Errorf("payload for %s must carry an allocation_id", evtType)
		}
		if _, ok := l.Store.Allocations()[ref.AllocationID]; !ok {
			return fmt.Errorf("%w: allocation %q", ErrReferenceNotFound, ref.AllocationID)
		}
	}
	return nil
}
