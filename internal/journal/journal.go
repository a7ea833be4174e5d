package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Event types. Unknown types are preserved in the journal and ignored during
// replay, so newer builds can introduce types without breaking older readers.
const (
	TypePersonAdded         = "PERSON_ADDED"
	TypePersonEdited        = "PERSON_EDITED"
	TypePersonDeleted       = "PERSON_DELETED"
	TypePersonOffboarded    = "PERSON_OFFBOARDED"
	TypeUnavailabilityAdded = "UNAVAILABILITY_ADDED"
	TypeProjectAdded        = "PROJECT_ADDED"
	TypeProjectEdited       = "PROJECT_EDITED"
	TypeProjectDeleted      = "PROJECT_DELETED"
	TypeAllocationAdded     = "ALLOCATION_ADDED"
	TypeAllocationRemoved   = "ALLOCATION_REMOVED"
)

const journalFile = "journal.jsonl"

// Event is one immutable fact. The envelope is stamped by the ledger at
// append time; callers never supply id or timestamp.
type Event struct {
	ID        string          `json:"event_id"`
	Timestamp string          `json:"timestamp" format:"date-time"`
	Type      string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Journal is the durable, strictly ordered, append-only event store: one JSON
// event per line. Records are never edited or reordered, only appended.
type Journal struct {
	Dir string
	Log *zap.Logger
}

// New ensures the data directory exists and returns a journal rooted there.
func New(dir string, log *zap.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{Dir: dir, Log: log}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return filepath.Join(j.Dir, journalFile)
}

// Append writes one event as a single line and flushes it to disk before
// returning. A crash mid-write leaves at worst a trailing malformed line,
// which ReadAll tolerates.
func (j *Journal) Append(ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	f, err := os.OpenFile(j.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append event: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync journal: %w", err)
	}
	return f.Close()
}

// ReadAll returns every event in append order, re-reading from the start on
// each call. Blank and unparseable lines are skipped individually so a
// corrupt tail never hides the rest of history. A missing journal is an empty
// one.
func (j *Journal) ReadAll() ([]Event, error) {
	f, err := os.Open(j.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			j.Log.Warn("skipping malformed journal record",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scan journal: %w", err)
	}
	return events, nil
}
