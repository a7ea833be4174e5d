// Package reducer folds the event journal into materialized state. The fold
// is pure and total: every event either applies cleanly or is skipped, so
// replay always terminates with some state even from a partially corrupt
// history. The same Apply path handles first execution and replay.
package reducer

import (
	"encoding/json"

	"rostr/internal/domain"
	"rostr/internal/journal"
)

// State holds the three materialized maps. People are keyed by email,
// projects by slug id, allocations by allocation id.
type State struct {
	People      map[string]domain.Person     `json:"people"`
	Projects    map[string]domain.Project    `json:"projects"`
	Allocations map[string]domain.Allocation `json:"allocations"`
}

// NewState returns an empty state with all maps initialized.
func NewState() State {
	return State{
		People:      map[string]domain.Person{},
		Projects:    map[string]domain.Project{},
		Allocations: map[string]domain.Allocation{},
	}
}

// Reduce is a strict left-fold of Apply over the events in journal order.
func Reduce(events []journal.Event) State {
	st := NewState()
	for _, ev := range events {
		Apply(&st, ev)
	}
	return st
}

// Apply mutates st with the effect of a single event. Unknown event types and
// malformed payloads for known types are no-ops: a historical record must
// never break replay. Edits and deletes of keys not in the maps are also
// no-ops here; the ledger surfaces those to live callers before journaling.
func Apply(st *State, ev journal.Event) {
	switch ev.Type {
	case journal.TypePersonAdded:
		var p domain.Person
		if json.Unmarshal(ev.Payload, &p) != nil || p.Email == "" {
			return
		}
		st.People[p.Email] = p

	case journal.TypePersonEdited:
		var patch domain.PersonPatch
		if json.Unmarshal(ev.Payload, &patch) != nil || patch.Email == "" {
			return
		}
		p, ok := st.People[patch.Email]
		if !ok {
			return
		}
		mergePerson(&p, patch)
		st.People[patch.Email] = p

	case journal.TypePersonDeleted:
		var ref domain.PersonRef
		if json.Unmarshal(ev.Payload, &ref) != nil || ref.Email == "" {
			return
		}
		p, ok := st.People[ref.Email]
		if !ok {
			return
		}
		p.IsActive = false
		st.People[ref.Email] = p

	case journal.TypePersonOffboarded:
		var pl domain.OffboardPayload
		if json.Unmarshal(ev.Payload, &pl) != nil || pl.Email == "" || pl.ExitDate == "" {
			return
		}
		p, ok := st.People[pl.Email]
		if !ok {
			return
		}
		p.ExitDate = pl.ExitDate
		st.People[pl.Email] = p

	case journal.TypeUnavailabilityAdded:
		var pl domain.UnavailabilityPayload
		if json.Unmarshal(ev.Payload, &pl) != nil || pl.Email == "" || pl.StartDate == "" || pl.EndDate == "" {
			return
		}
		p, ok := st.People[pl.Email]
		if !ok {
			return
		}
		reason := pl.Reason
		if reason == "" {
			reason = "PTO"
		}
		p.Unavailability = append(p.Unavailability, domain.Unavailability{
			StartDate: pl.StartDate,
			EndDate:   pl.EndDate,
			Reason:    reason,
		})
		st.People[pl.Email] = p

	case journal.TypeProjectAdded:
		var p domain.Project
		if json.Unmarshal(ev.Payload, &p) != nil || p.ID == "" {
			return
		}
		st.Projects[p.ID] = p

	case journal.TypeProjectEdited:
		var patch domain.ProjectPatch
		if json.Unmarshal(ev.Payload, &patch) != nil || patch.ID == "" {
			return
		}
		p, ok := st.Projects[patch.ID]
		if !ok {
			return
		}
		mergeProject(&p, patch)
		st.Projects[patch.ID] = p

	case journal.TypeProjectDeleted:
		var ref domain.ProjectRef
		if json.Unmarshal(ev.Payload, &ref) != nil || ref.ProjectID == "" {
			return
		}
		p, ok := st.Projects[ref.ProjectID]
		if !ok {
			return
		}
		p.Status = domain.StatusDeleted
		st.Projects[ref.ProjectID] = p

	case journal.TypeAllocationAdded:
		var a domain.Allocation
		if json.Unmarshal(ev.Payload, &a) != nil || a.ID == "" {
			return
		}
		st.Allocations[a.ID] = a

	case journal.TypeAllocationRemoved:
		var ref domain.AllocationRef
		if json.Unmarshal(ev.Payload, &ref) != nil || ref.AllocationID == "" {
			return
		}
		delete(st.Allocations, ref.AllocationID)

	default:
		// Unrecognized event type: forward compatibility, nothing to do.
	}
}

func mergePerson(p *domain.Person, patch domain.PersonPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ShortCode != nil {
		p.ShortCode = *patch.ShortCode
	}
	if patch.Designation != nil {
		p.Designation = *patch.Designation
	}
	if patch.Capacity != nil {
		p.Capacity = *patch.Capacity
	}
	if patch.Experience != nil {
		p.Experience = *patch.Experience
	}
	if patch.ExperienceUpdatedAt != nil {
		p.ExperienceUpdatedAt = *patch.ExperienceUpdatedAt
	}
	if patch.Skills != nil {
		p.Skills = *patch.Skills
	}
}

func mergeProject(p *domain.Project, patch domain.ProjectPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ShortCode != nil {
		p.ShortCode = *patch.ShortCode
	}
	if patch.UniqueCode != nil {
		p.UniqueCode = *patch.UniqueCode
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Probability != nil {
		p.Probability = *patch.Probability
	}
	if patch.TotalHoursNeeded != nil {
		p.TotalHoursNeeded = *patch.TotalHoursNeeded
	}
	if patch.RequiredSkills != nil {
		p.RequiredSkills = *patch.RequiredSkills
	}
}
