// Package report derives presentation-ready rows from materialized state. It
// only reads state; rendering and color choices stay in the CLI layer.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"rostr/internal/domain"
	"rostr/internal/reducer"
	"rostr/internal/roster"
)

const dateLayout = "2006-01-02"

// Bucket is one report column. Start is the probe date (inclusive); End is
// exclusive and empty for point-in-time buckets.
type Bucket struct {
	Label string
	Start string
	End   string
}

// MonthlyBuckets returns mid-month probe dates for the next n months,
// starting with the month after now.
func MonthlyBuckets(now time.Time, months int) []Bucket {
	buckets := make([]Bucket, 0, months)
	curr := now
	for i := 0; i < months; i++ {
		target := nextMonth(curr, 15)
		buckets = append(buckets, Bucket{
			Label: target.Format("Jan 06"),
			Start: target.Format(dateLayout),
		})
		curr = target
	}
	return buckets
}

// IntervalBuckets returns consecutive [Start, End) windows from now:
// "day", "week", or anything else for calendar months.
func IntervalBuckets(now time.Time, interval string, periods int) []Bucket {
	buckets := make([]Bucket, 0, periods)
	curr := now
	for i := 0; i < periods; i++ {
		start := curr
		var end time.Time
		var label string
		switch interval {
		case "day":
			end = curr.AddDate(0, 0, 1)
			label = start.Format("01/02")
		case "week":
			end = curr.AddDate(0, 0, 7)
			label = "W" + start.Format("01/02")
		default:
			end = nextMonth(curr, 1)
			label = start.Format("Jan 06")
		}
		buckets = append(buckets, Bucket{
			Label: label,
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		})
		curr = end
	}
	return buckets
}

// nextMonth lands on the given day of the following month. Jumping from the
// 28th keeps short months from skipping ahead two.
func nextMonth(t time.Time, day int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 28, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 4)
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, t.Location())
}

// UtilizationRow summarizes one active consultant's committed load today.
type UtilizationRow struct {
	Code        string
	Name        string
	Capacity    float64
	Utilization float64
	Projects    []string
}

// CurrentUtilization sums raw committed hours (not probability-weighted) for
// allocations covering today on projects that still occupy the calendar.
func CurrentUtilization(st reducer.State, today string) []UtilizationRow {
	var rows []UtilizationRow
	for _, p := range activePeople(st) {
		var total float64
		var details []string
		for _, a := range sortedAllocations(st) {
			if a.Email != p.Email || !covers(a, today) {
				continue
			}
			proj := st.Projects[a.ProjectID]
			if !roster.CountsTowardLoad(proj.Status) {
				continue
			}
			total += a.Hours
			name := proj.Name
			if name == "" {
				name = a.ProjectID
			}
			details = append(details, name+" ("+trimFloat(a.Hours)+"h)")
		}
		util := 0.0
		if p.Capacity > 0 {
			util = total / p.Capacity * 100
		}
		rows = append(rows, UtilizationRow{
			Code:        p.ShortCode,
			Name:        p.Name,
			Capacity:    p.Capacity,
			Utilization: util,
			Projects:    details,
		})
	}
	return rows
}

// ForecastCell is one bucket of probability-weighted load.
type ForecastCell struct {
	Utilization   float64
	WeightedHours float64
}

type ForecastRow struct {
	Code  string
	Name  string
	Cells []ForecastCell
}

// Forecast projects probability-weighted utilization per person per bucket.
func Forecast(st reducer.State, buckets []Bucket) []ForecastRow {
	var rows []ForecastRow
	for _, p := range activePeople(st) {
		row := ForecastRow{Code: p.ShortCode, Name: p.Name}
		for _, b := range buckets {
			var weighted float64
			for _, a := range st.Allocations {
				if a.Email != p.Email || !covers(a, b.Start) {
					continue
				}
				status, prob := "", 100.0
				if proj, ok := st.Projects[a.ProjectID]; ok {
					status, prob = proj.Status, float64(proj.Probability)
				}
				if !roster.CountsTowardLoad(status) {
					continue
				}
				weighted += a.Hours * prob / 100.0
			}
			util := 0.0
			if p.Capacity > 0 {
				util = weighted / p.Capacity * 100
			}
			row.Cells = append(row.Cells, ForecastCell{Utilization: util, WeightedHours: weighted})
		}
		rows = append(rows, row)
	}
	return rows
}

// TimelineCell marks one person-bucket: gone, on leave, or utilized.
type TimelineCell struct {
	Left        bool
	PTO         bool
	Utilization float64
}

type TimelineRow struct {
	Code  string
	Name  string
	Cells []TimelineCell
}

// Timeline builds the utilization and PTO heatmap.
func Timeline(st reducer.State, buckets []Bucket) []TimelineRow {
	var rows []TimelineRow
	for _, p := range activePeople(st) {
		row := TimelineRow{Code: p.ShortCode, Name: p.Name}
		for _, b := range buckets {
			if p.ExitDate != "" && b.Start > p.ExitDate {
				row.Cells = append(row.Cells, TimelineCell{Left: true})
				continue
			}
			cell := TimelineCell{Utilization: roster.UtilizationAt(p.Email, b.Start, st)}
			for _, leave := range p.Unavailability {
				if leave.StartDate < b.End && leave.EndDate >= b.Start {
					cell.PTO = true
					break
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// SummaryCell aggregates committed hours per person code within a bucket.
type SummaryCell struct {
	HoursByCode map[string]float64
	Total       float64
}

type SummaryRow struct {
	Code  string
	Name  string
	Lead  string
	Cells []SummaryCell
}

// Summary lists per-project staffing by bucket, with the lead's code.
func Summary(st reducer.State, buckets []Bucket) []SummaryRow {
	var rows []SummaryRow
	for _, proj := range sortedProjects(st) {
		if proj.Status == domain.StatusDeleted {
			continue
		}
		var allocs []domain.Allocation
		for _, a := range st.Allocations {
			if a.ProjectID == proj.ID {
				allocs = append(allocs, a)
			}
		}
		lead := "N/A"
		for _, a := range allocs {
			if a.IsLead {
				lead = personCode(st, a.Email)
				break
			}
		}
		row := SummaryRow{Code: proj.ShortCode, Name: proj.Name, Lead: lead}
		for _, b := range buckets {
			cell := SummaryCell{HoursByCode: map[string]float64{}}
			for _, a := range allocs {
				end := a.EndDate
				if end == "" {
					end = "9999-12-31"
				}
				if a.StartDate < b.End && end >= b.Start {
					code := personCode(st, a.Email)
					cell.HoursByCode[code] += a.Hours
					cell.Total += a.Hours
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// TimeoffRow is one logged unavailability window.
type TimeoffRow struct {
	Code   string
	Name   string
	Start  string
	End    string
	Reason string
}

// Timeoff flattens every person's unavailability log, inactive people
// included: history is never hidden.
func Timeoff(st reducer.State) []TimeoffRow {
	var rows []TimeoffRow
	for _, p := range sortedPeople(st) {
		for _, u := range p.Unavailability {
			rows = append(rows, TimeoffRow{
				Code:   p.ShortCode,
				Name:   p.Name,
				Start:  u.StartDate,
				End:    u.EndDate,
				Reason: u.Reason,
			})
		}
	}
	return rows
}

// SkillGap compares the highest level a live project demands against the
// highest level any active consultant offers.
type SkillGap struct {
	Skill     string
	Required  int
	Available int
	Covered   bool
}

// SkillGaps analyzes demand from Active and Proposed projects against the
// active roster's supply, one row per demanded skill.
func SkillGaps(st reducer.State) []SkillGap {
	required := map[string]int{}
	for _, p := range st.Projects {
		if p.Status != domain.StatusActive && p.Status != domain.StatusProposed {
			continue
		}
		for _, s := range p.RequiredSkills {
			if name, level, ok := roster.ParseSkill(s); ok {
				key := strings.ToLower(name)
				if level > required[key] {
					required[key] = level
				}
			}
		}
	}
	available := map[string]int{}
	for _, p := range st.People {
		if !p.IsActive {
			continue
		}
		for _, s := range p.Skills {
			if name, level, ok := roster.ParseSkill(s); ok {
				key := strings.ToLower(name)
				if level > available[key] {
					available[key] = level
				}
			}
		}
	}
	var gaps []SkillGap
	for skill, level := range required {
		gaps = append(gaps, SkillGap{
			Skill:     skill,
			Required:  level,
			Available: available[skill],
			Covered:   available[skill] >= level,
		})
	}
	sort.Slice(gaps, func(i, k int) bool { return gaps[i].Skill < gaps[k].Skill })
	return gaps
}

func covers(a domain.Allocation, date string) bool {
	end := a.EndDate
	if end == "" {
		end = "2099-12-31"
	}
	return a.StartDate <= date && date <= end
}

func personCode(st reducer.State, email string) string {
	if p, ok := st.People[email]; ok {
		if p.ShortCode != "" {
			return p.ShortCode
		}
		if p.Name != "" {
			return p.Name
		}
	}
	return email
}

func activePeople(st reducer.State) []domain.Person {
	var people []domain.Person
	for _, p := range sortedPeople(st) {
		if p.IsActive {
			people = append(people, p)
		}
	}
	return people
}

// sortedPeople orders by short code then email so table rows are stable
// across runs despite map iteration order.
func sortedPeople(st reducer.State) []domain.Person {
	people := make([]domain.Person, 0, len(st.People))
	for _, p := range st.People {
		people = append(people, p)
	}
	sort.Slice(people, func(i, k int) bool {
		if people[i].ShortCode != people[k].ShortCode {
			return people[i].ShortCode < people[k].ShortCode
		}
		return people[i].Email < people[k].Email
	})
	return people
}

func sortedProjects(st reducer.State) []domain.Project {
	projects := make([]domain.Project, 0, len(st.Projects))
	for _, p := range st.Projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, k int) bool { return projects[i].ID < projects[k].ID })
	return projects
}

func sortedAllocations(st reducer.State) []domain.Allocation {
	allocs := make([]domain.Allocation, 0, len(st.Allocations))
	for _, a := range st.Allocations {
		allocs = append(allocs, a)
	}
	sort.Slice(allocs, func(i, k int) bool { return allocs[i].ID < allocs[k].ID })
	return allocs
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
