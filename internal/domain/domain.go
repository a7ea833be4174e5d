package domain

import (
	"encoding/json"
	"strconv"
)

// Project statuses. Deleted is a soft delete: the project stays in the map so
// historical allocations keep resolving.
const (
	StatusProposed  = "Proposed"
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusLost      = "Lost"
	StatusDeleted   = "Deleted"
)

// Unavailability is one time-off window. Entries are append-only.
type Unavailability struct {
	StartDate string `json:"start_date" format:"date"`
	EndDate   string `json:"end_date" format:"date"`
	Reason    string `json:"reason"`
}

// Person is a consultant keyed by email. Email is stable identity and is
// never reused once assigned. Skills are "name:level" pairs, level 1-10.
type Person struct {
	Email               string           `json:"email"`
	Name                string           `json:"name"`
	ShortCode           string           `json:"short_code,omitempty"`
	Designation         string           `json:"designation,omitempty"`
	Capacity            float64          `json:"capacity"`
	Experience          float64          `json:"experience"`
	ExperienceUpdatedAt string           `json:"experience_updated_at,omitempty" format:"date"`
	Skills              []string         `json:"skill"`
	IsActive            bool             `json:"is_active"`
	ExitDate            string           `json:"exit_date,omitempty" format:"date"`
	Unavailability      []Unavailability `json:"unavailability,omitempty"`
}

// PersonPatch carries a shallow merge: nil fields are left untouched.
type PersonPatch struct {
	Email               string    `json:"email"`
	Name                *string   `json:"name,omitempty"`
	ShortCode           *string   `json:"short_code,omitempty"`
	Designation         *string   `json:"designation,omitempty"`
	Capacity            *float64  `json:"capacity,omitempty"`
	Experience          *float64  `json:"experience,omitempty"`
	ExperienceUpdatedAt *string   `json:"experience_updated_at,omitempty"`
	Skills              *[]string `json:"skill,omitempty"`
}

// Hours holds a project effort estimate: an integer hour count or a sentinel
// string such as "TBD" or "T&M". It accepts either JSON shape so journals
// written by older builds keep replaying.
type Hours string

func (h *Hours) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*h = Hours(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*h = Hours(n.String())
	return nil
}

// Int reports the numeric value, false for sentinel strings.
func (h Hours) Int() (int, bool) {
	n, err := strconv.Atoi(string(h))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Project is keyed by a slug id generated once from the name at creation and
// immutable thereafter, even if the name changes.
type Project struct {
	ID               string   `json:"project_id"`
	Name             string   `json:"name"`
	ShortCode        string   `json:"short_code,omitempty"`
	UniqueCode       string   `json:"unique_code,omitempty"`
	Description      string   `json:"description,omitempty"`
	Status           string   `json:"status" enum:"Proposed,Active,Completed,Lost,Deleted"`
	Probability      int      `json:"probability"`
	TotalHoursNeeded Hours    `json:"total_hours_needed,omitempty"`
	RequiredSkills   []string `json:"required_skills"`
}

type ProjectPatch struct {
	ID               string    `json:"project_id"`
	Name             *string   `json:"name,omitempty"`
	ShortCode        *string   `json:"short_code,omitempty"`
	UniqueCode       *string   `json:"unique_code,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Status           *string   `json:"status,omitempty"`
	Probability      *int      `json:"probability,omitempty"`
	TotalHoursNeeded *Hours    `json:"total_hours_needed,omitempty"`
	RequiredSkills   *[]string `json:"required_skills,omitempty"`
}

// Allocation commits weekly hours of one person to one project over an
// inclusive date window. Allocations are disposable scheduling facts: removal
// deletes them outright instead of soft-deleting. References are not
// enforced; readers must tolerate dangling project or person keys.
type Allocation struct {
	ID        string  `json:"allocation_id"`
	ProjectID string  `json:"project_id"`
	Email     string  `json:"email"`
	Hours     float64 `json:"hours"`
	IsLead    bool    `json:"is_lead,omitempty"`
	StartDate string  `json:"start_date" format:"date"`
	EndDate   string  `json:"end_date" format:"date"`
}

// Reference payloads for events that target an existing record.

type PersonRef struct {
	Email string `json:"email"`
}

type ProjectRef struct {
	ProjectID string `json:"project_id"`
}

type AllocationRef struct {
	AllocationID string `json:"allocation_id"`
}

type OffboardPayload struct {
	Email    string `json:"email"`
	ExitDate string `json:"exit_date" format:"date"`
}

type UnavailabilityPayload struct {
	Email     string `json:"email"`
	StartDate string `json:"start_date" format:"date"`
	EndDate   string `json:"end_date" format:"date"`
	Reason    string `json:"reason,omitempty"`
}
