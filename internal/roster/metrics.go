package roster

import (
	"math"
	"time"

	"rostr/internal/domain"
	"rostr/internal/reducer"
)

const dateLayout = "2006-01-02"

// farFuture stands in for an open-ended allocation window. Comparisons stay
// lexicographic, which is safe only because dates are fixed-width ISO-8601.
const farFuture = "2099-12-31"

// DynamicExperience recomputes a consultant's experience at read time: the
// stored value plus the years elapsed since it was last asserted. A missing
// or malformed assertion date falls back to the stored value.
func DynamicExperience(stored float64, updatedAt string, now time.Time) float64 {
	if updatedAt == "" {
		return stored
	}
	asserted, err := time.Parse(dateLayout, updatedAt)
	if err != nil {
		return stored
	}
	years := now.Sub(asserted).Hours() / 24 / 365.25
	return math.Round((stored+years)*10) / 10
}

// UtilizationAt returns the probability-weighted utilization percentage for a
// person on a given date. Allocations whose window covers the date contribute
// hours scaled by the project's win probability; projects that are Deleted,
// Lost, or Completed contribute nothing. Dangling project references count at
// full probability, since the ledger does not enforce referential integrity.
func UtilizationAt(email, date string, st reducer.State) float64 {
	p, ok := st.People[email]
	if !ok || p.Capacity <= 0 {
		return 0
	}
	var expected float64
	for _, a := range st.Allocations {
		if a.Email != email {
			continue
		}
		end := a.EndDate
		if end == "" {
			end = farFuture
		}
		if a.StartDate > date || date > end {
			continue
		}
		status, prob := "", 100.0
		if proj, ok := st.Projects[a.ProjectID]; ok {
			status, prob = proj.Status, float64(proj.Probability)
		}
		if !CountsTowardLoad(status) {
			continue
		}
		expected += a.Hours * prob / 100.0
	}
	return expected / p.Capacity * 100
}

// CountsTowardLoad reports whether a project in the given status still
// occupies its team's calendar.
func CountsTowardLoad(status string) bool {
	switch status {
	case domain.StatusDeleted, domain.StatusLost, domain.StatusCompleted:
		return false
	}
	return true
}
