package state

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"rostr/internal/journal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	j, err := journal.New(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}
	s, err := New(dir, j, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func appendEvent(t *testing.T, j *journal.Journal, typ, payload string) {
	t.Helper()
	err := j.Append(journal.Event{
		ID:        "e-" + typ,
		Timestamp: "2026-01-01T00:00:00Z",
		Type:      typ,
		Payload:   json.RawMessage(payload),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestRebuildWritesAllSnapshots(t *testing.T) {
	s := newTestStore(t)
	appendEvent(t, s.Journal, journal.TypePersonAdded, `{"email":"ada@x.dev","name":"Ada","capacity":40,"is_active":true}`)
	appendEvent(t, s.Journal, journal.TypeProjectAdded, `{"project_id":"phoenix","name":"Phoenix","status":"Active","probability":100}`)
	appendEvent(t, s.Journal, journal.TypeAllocationAdded, `{"allocation_id":"a1","project_id":"phoenix","email":"ada@x.dev","hours":20,"start_date":"2026-01-01","end_date":"2026-06-30"}`)

	if _, err := s.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	for _, name := range []string{"people.json", "projects.json", "allocations.json"} {
		if _, err := os.Stat(filepath.Join(s.Dir, name)); err != nil {
			t.Errorf("snapshot %s not written: %v", name, err)
		}
	}
	if _, ok := s.People()["ada@x.dev"]; !ok {
		t.Error("people snapshot missing ada@x.dev")
	}
	if _, ok := s.Projects()["phoenix"]; !ok {
		t.Error("projects snapshot missing phoenix")
	}
	if _, ok := s.Allocations()["a1"]; !ok {
		t.Error("allocations snapshot missing a1")
	}
}

func TestRebuildIsIdempotentByteForByte(t *testing.T) {
	s := newTestStore(t)
	appendEvent(t, s.Journal, journal.TypePersonAdded, `{"email":"ada@x.dev","name":"Ada","is_active":true}`)
	appendEvent(t, s.Journal, journal.TypePersonAdded, `{"email":"bob@x.dev","name":"Bob","is_active":true}`)

	if _, err := s.Rebuild(); err != nil {
		t.Fatalf("first Rebuild: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(s.Dir, "people.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Rebuild(); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(s.Dir, "people.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two rebuilds of the same journal wrote different bytes")
	}
}

func TestLoadsNeverFailReaders(t *testing.T) {
	s := newTestStore(t)

	// Never built: all maps empty but usable.
	if m := s.People(); m == nil || len(m) != 0 {
		t.Errorf("People() on fresh store = %v, want empty map", m)
	}
	if m := s.Projects(); m == nil || len(m) != 0 {
		t.Errorf("Projects() on fresh store = %v, want empty map", m)
	}
	if m := s.Allocations(); m == nil || len(m) != 0 {
		t.Errorf("Allocations() on fresh store = %v, want empty map", m)
	}

	// Corrupt snapshot: still empty, never an error.
	if err := os.WriteFile(filepath.Join(s.Dir, "people.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if m := s.People(); len(m) != 0 {
		t.Errorf("People() with corrupt snapshot = %v, want empty map", m)
	}
}

func TestRebuildOverwritesStaleSnapshots(t *testing.T) {
	s := newTestStore(t)
	stale := `{"ghost@x.dev":{"email":"ghost@x.dev","name":"Ghost","is_active":true}}`
	if err := os.WriteFile(filepath.Join(s.Dir, "people.json"), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}
	appendEvent(t, s.Journal, journal.TypePersonAdded, `{"email":"ada@x.dev","name":"Ada","is_active":true}`)

	if _, err := s.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	people := s.People()
	if _, ok := people["ghost@x.dev"]; ok {
		t.Error("rebuild kept a record that is not in the journal")
	}
	if _, ok := people["ada@x.dev"]; !ok {
		t.Error("rebuild dropped a journaled record")
	}
}
