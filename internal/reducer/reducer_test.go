package reducer

import (
	"encoding/json"
	"reflect"
	"testing"

	"rostr/internal/domain"
	"rostr/internal/journal"
)

func ev(t *testing.T, typ string, payload any) journal.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return journal.Event{ID: "ev", Timestamp: "2026-01-01T00:00:00Z", Type: typ, Payload: raw}
}

func strPtr(s string) *string       { return &s }
func floatPtr(f float64) *float64   { return &f }
func skillsPtr(s []string) *[]string { return &s }

func TestReduceIsDeterministic(t *testing.T) {
	events := []journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", Capacity: 40, IsActive: true}),
		ev(t, journal.TypeProjectAdded, domain.Project{ID: "phoenix", Name: "Phoenix", Status: domain.StatusActive, Probability: 100}),
		ev(t, journal.TypeAllocationAdded, domain.Allocation{ID: "a1", ProjectID: "phoenix", Email: "ada@x.dev", Hours: 20, StartDate: "2026-01-01", EndDate: "2026-06-30"}),
	}
	first := Reduce(events)
	second := Reduce(events)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two replays of the same journal produced different state")
	}
}

func TestPersonEditIsShallowMerge(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{
			Email: "ada@x.dev", Name: "Ada", Designation: "Engineer",
			Capacity: 40, Skills: []string{"go:5"}, IsActive: true,
		}),
		ev(t, journal.TypePersonEdited, domain.PersonPatch{
			Email: "ada@x.dev", Name: strPtr("Ada L."), Capacity: floatPtr(32),
		}),
	})
	p := st.People["ada@x.dev"]
	if p.Name != "Ada L." || p.Capacity != 32 {
		t.Errorf("patched fields not applied: %+v", p)
	}
	if p.Designation != "Engineer" || len(p.Skills) != 1 {
		t.Errorf("untouched fields changed: %+v", p)
	}
}

func TestPersonEditCanReplaceSkills(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", Skills: []string{"go:5", "sql:3"}, IsActive: true}),
		ev(t, journal.TypePersonEdited, domain.PersonPatch{Email: "ada@x.dev", Skills: skillsPtr([]string{"go:6"})}),
	})
	p := st.People["ada@x.dev"]
	if len(p.Skills) != 1 || p.Skills[0] != "go:6" {
		t.Errorf("skills = %v, want [go:6]", p.Skills)
	}
}

func TestPersonDeleteIsSoft(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", Capacity: 40, IsActive: true}),
		ev(t, journal.TypePersonDeleted, domain.PersonRef{Email: "ada@x.dev"}),
	})
	p, ok := st.People["ada@x.dev"]
	if !ok {
		t.Fatal("soft delete removed the record")
	}
	if p.IsActive {
		t.Error("deleted person still active")
	}
	if p.Name != "Ada" || p.Capacity != 40 {
		t.Errorf("soft delete lost fields: %+v", p)
	}
}

func TestOffboardSetsExitDate(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", IsActive: true}),
		ev(t, journal.TypePersonOffboarded, domain.OffboardPayload{Email: "ada@x.dev", ExitDate: "2026-03-31"}),
	})
	p := st.People["ada@x.dev"]
	if p.ExitDate != "2026-03-31" {
		t.Errorf("exit date = %q, want 2026-03-31", p.ExitDate)
	}
	if !p.IsActive {
		t.Error("offboarding should not deactivate until the exit date passes")
	}
}

func TestUnavailabilityAppendsWithDefaultReason(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", IsActive: true}),
		ev(t, journal.TypeUnavailabilityAdded, domain.UnavailabilityPayload{Email: "ada@x.dev", StartDate: "2026-02-01", EndDate: "2026-02-05"}),
		ev(t, journal.TypeUnavailabilityAdded, domain.UnavailabilityPayload{Email: "ada@x.dev", StartDate: "2026-03-01", EndDate: "2026-03-02", Reason: "Training"}),
	})
	p := st.People["ada@x.dev"]
	if len(p.Unavailability) != 2 {
		t.Fatalf("got %d windows, want 2", len(p.Unavailability))
	}
	if p.Unavailability[0].Reason != "PTO" {
		t.Errorf("default reason = %q, want PTO", p.Unavailability[0].Reason)
	}
	if p.Unavailability[1].Reason != "Training" {
		t.Errorf("explicit reason = %q, want Training", p.Unavailability[1].Reason)
	}
}

func TestProjectDeleteSetsStatus(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypeProjectAdded, domain.Project{ID: "phoenix", Name: "Phoenix", Status: domain.StatusActive}),
		ev(t, journal.TypeProjectDeleted, domain.ProjectRef{ProjectID: "phoenix"}),
	})
	p, ok := st.Projects["phoenix"]
	if !ok {
		t.Fatal("project delete removed the record")
	}
	if p.Status != domain.StatusDeleted {
		t.Errorf("status = %q, want %q", p.Status, domain.StatusDeleted)
	}
}

func TestAllocationRemoveIsHardDelete(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypeAllocationAdded, domain.Allocation{ID: "a1", ProjectID: "phoenix", Email: "ada@x.dev", Hours: 20, StartDate: "2026-01-01", EndDate: "2026-06-30"}),
		ev(t, journal.TypeAllocationRemoved, domain.AllocationRef{AllocationID: "a1"}),
	})
	if _, ok := st.Allocations["a1"]; ok {
		t.Fatal("removed allocation still present")
	}
}

func TestMutationsOfMissingKeysAreNoOps(t *testing.T) {
	st := Reduce([]journal.Event{
		ev(t, journal.TypePersonEdited, domain.PersonPatch{Email: "ghost@x.dev", Name: strPtr("Ghost")}),
		ev(t, journal.TypePersonDeleted, domain.PersonRef{Email: "ghost@x.dev"}),
		ev(t, journal.TypeProjectEdited, domain.ProjectPatch{ID: "ghost"}),
		ev(t, journal.TypeAllocationRemoved, domain.AllocationRef{AllocationID: "ghost"}),
	})
	if len(st.People) != 0 || len(st.Projects) != 0 || len(st.Allocations) != 0 {
		t.Fatalf("missing-key mutations created state: %+v", st)
	}
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	events := []journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", IsActive: true}),
		{ID: "x", Type: "TEAM_RENAMED", Payload: json.RawMessage(`{"anything":true}`)},
	}
	st := Reduce(events)
	if len(st.People) != 1 {
		t.Fatalf("unknown type disturbed replay: %+v", st)
	}
}

func TestMalformedPayloadIsSkipped(t *testing.T) {
	events := []journal.Event{
		{ID: "x", Type: journal.TypePersonAdded, Payload: json.RawMessage(`"not an object"`)},
		{ID: "y", Type: journal.TypePersonAdded, Payload: json.RawMessage(`{"name":"No Email"}`)},
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", IsActive: true}),
	}
	st := Reduce(events)
	if len(st.People) != 1 {
		t.Fatalf("got %d people, want 1", len(st.People))
	}
}

func TestIncrementalApplyMatchesFullReduce(t *testing.T) {
	events := []journal.Event{
		ev(t, journal.TypePersonAdded, domain.Person{Email: "ada@x.dev", Name: "Ada", Capacity: 40, IsActive: true}),
		ev(t, journal.TypeProjectAdded, domain.Project{ID: "phoenix", Name: "Phoenix", Status: domain.StatusProposed, Probability: 60}),
		ev(t, journal.TypeProjectEdited, domain.ProjectPatch{ID: "phoenix", Status: strPtr(domain.StatusActive)}),
		ev(t, journal.TypeAllocationAdded, domain.Allocation{ID: "a1", ProjectID: "phoenix", Email: "ada@x.dev", Hours: 16, StartDate: "2026-01-01", EndDate: "2026-12-31"}),
		ev(t, journal.TypePersonEdited, domain.PersonPatch{Email: "ada@x.dev", Capacity: floatPtr(32)}),
	}
	incremental := NewState()
	for _, e := range events {
		Apply(&incremental, e)
	}
	if full := Reduce(events); !reflect.DeepEqual(incremental, full) {
		t.Fatalf("incremental apply diverged from full replay:\nincremental %+v\nfull %+v", incremental, full)
	}
}
