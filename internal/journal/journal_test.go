package journal

import (
	"encoding/json"
	"os"
	"testing"

	"go.uber.org/zap"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return j
}

func TestAppendThenReadAllPreservesOrder(t *testing.T) {
	j := newTestJournal(t)
	for i, typ := range []string{TypePersonAdded, TypePersonEdited, TypePersonDeleted} {
		ev := Event{
			ID:        string(rune('a' + i)),
			Timestamp: "2026-01-01T00:00:00Z",
			Type:      typ,
			Payload:   json.RawMessage(`{"email":"ada@example.dev"}`),
		}
		if err := j.Append(ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	events, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []string{TypePersonAdded, TypePersonEdited, TypePersonDeleted}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d type = %q, want %q", i, ev.Type, want[i])
		}
	}
}

func TestReadAllMissingFileIsEmpty(t *testing.T) {
	j := newTestJournal(t)
	events, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestReadAllSkipsCorruptAndBlankLines(t *testing.T) {
	j := newTestJournal(t)
	raw := `{"event_id":"e1","timestamp":"2026-01-01T00:00:00Z","event_type":"PERSON_ADDED","payload":{"email":"a@x.dev"}}
not json at all

{"event_id":"e2","timestamp":"2026-01-02T00:00:00Z","event_type":"PERSON_DELETED","payload":{"email":"a@x.dev"}}
{"truncated`
	if err := os.WriteFile(j.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	events, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "e1" || events[1].ID != "e2" {
		t.Errorf("unexpected event ids: %s, %s", events[0].ID, events[1].ID)
	}
}

func TestAppendSurvivesCorruptTail(t *testing.T) {
	j := newTestJournal(t)
	if err := os.WriteFile(j.Path(), []byte(`{"broken`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := Event{ID: "e9", Timestamp: "2026-01-01T00:00:00Z", Type: TypeProjectAdded,
		Payload: json.RawMessage(`{"project_id":"phoenix"}`)}
	if err := j.Append(ev); err != nil {
		t.Fatalf("Append: %v", err)
	}
	events, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e9" {
		t.Fatalf("got %+v, want single e9", events)
	}
}
