package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rostr/internal/config"
	"rostr/internal/domain"
	"rostr/internal/journal"
	"rostr/internal/ledger"
	"rostr/internal/report"
	"rostr/internal/roster"
	"rostr/pkg/logger"
)

const dateLayout = "2006-01-02"

var rootCmd = &cobra.Command{
	Use:   "rostr",
	Short: "Rostr CLI",
	Long: `Rostr tracks consultants, projects, and time-bound staffing allocations.
Every change is an event appended to an immutable journal; current state is
always a replay of that history. Single operator, single process: run one
command at a time.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	_ = godotenv.Load(filepath.Join(viper.GetString("workspace"), ".env"))
	viper.SetEnvPrefix("ROSTR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose (development) logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(peopleCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(rebuildCmd())
	rootCmd.AddCommand(configCmd())
}

// --- people ---

func peopleCmd() *cobra.Command {
	people := &cobra.Command{
		Use:   "people",
		Short: "Manage consultants, skills, and availability",
	}
	people.AddCommand(peopleAddCmd())
	people.AddCommand(peopleListCmd())
	people.AddCommand(peopleEditCmd())
	people.AddCommand(peopleTimeoffCmd())
	people.AddCommand(peopleOffboardCmd())
	people.AddCommand(peopleDeleteCmd())
	return people
}

func peopleAddCmd() *cobra.Command {
	var email, name, shortCode, designation string
	var capacity, experience float64
	var skills []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a consultant to the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || name == "" {
				return fmt.Errorf("--email and --name are required")
			}
			if err := validateSkills(skills); err != nil {
				return err
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				people := l.Store.People()
				if cur, ok := people[email]; ok && cur.IsActive {
					return fmt.Errorf("%s is already active in the roster", email)
				}
				if !cmd.Flags().Changed("capacity") {
					capacity = cfg.DefaultCapacity
				}
				if capacity < 0 {
					return fmt.Errorf("capacity must not be negative")
				}
				if shortCode == "" {
					shortCode = roster.ShortCode(name, cfg.PersonCodeLen, people)
				}
				p := domain.Person{
					Email:               email,
					Name:                name,
					ShortCode:           shortCode,
					Designation:         designation,
					Capacity:            capacity,
					Experience:          experience,
					ExperienceUpdatedAt: l.Now().UTC().Format(dateLayout),
					Skills:              skills,
					IsActive:            true,
				}
				if p.Skills == nil {
					p.Skills = []string{}
				}
				if _, err := l.Append(journal.TypePersonAdded, p); err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (stable identity)")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&shortCode, "short-code", "", "roster code (auto-generated if omitted)")
	cmd.Flags().StringVar(&designation, "designation", "", "designation, e.g. Lead Engineer")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "weekly hours capacity (workspace default if omitted)")
	cmd.Flags().Float64Var(&experience, "experience", 0, "total years of experience to date")
	cmd.Flags().StringArrayVar(&skills, "skill", []string{}, "skill as name:level, level 1-10 (repeatable)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func peopleListCmd() *cobra.Command {
	var skill, search string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				people := sortedPeople(l.Store.People())
				now := l.Now()
				var rows []domain.Person
				for _, p := range people {
					if !all && !p.IsActive {
						continue
					}
					if skill != "" && !roster.HasSkill(p.Skills, skill) {
						continue
					}
					if search != "" {
						haystack := strings.ToLower(p.Email + " " + p.Name + " " + strings.Join(p.Skills, " "))
						if !strings.Contains(haystack, strings.ToLower(search)) {
							continue
						}
					}
					rows = append(rows, p)
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("The roster is currently empty.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Consultant Roster")
				tw.AppendHeader(table.Row{"Code", "Email", "Name", "Designation", "Exp (Now)", "Skills"})
				for _, p := range rows {
					exp := roster.DynamicExperience(p.Experience, p.ExperienceUpdatedAt, now)
					skillsCol := roster.FormatSkills(p.Skills)
					if skillsCol == "" {
						skillsCol = "No skills logged"
					}
					tw.AppendRow(table.Row{p.ShortCode, p.Email, p.Name, p.Designation,
						fmt.Sprintf("%.1fy", exp), skillsCol})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&skill, "skill", "s", "", "filter by skill name")
	cmd.Flags().StringVarP(&search, "search", "q", "", "search name, email, or skills")
	cmd.Flags().BoolVar(&all, "all", false, "include deactivated consultants")
	return cmd
}

func peopleEditCmd() *cobra.Command {
	var name, shortCode, designation, experienceDate string
	var capacity, experience float64
	var skills []string
	cmd := &cobra.Command{
		Use:   "edit <email>",
		Short: "Edit a consultant (only the given flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.PersonPatch{Email: args[0]}
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("short-code") {
				upper := strings.ToUpper(shortCode)
				patch.ShortCode = &upper
			}
			if cmd.Flags().Changed("designation") {
				patch.Designation = &designation
			}
			if cmd.Flags().Changed("capacity") {
				if capacity < 0 {
					return fmt.Errorf("capacity must not be negative")
				}
				patch.Capacity = &capacity
			}
			if cmd.Flags().Changed("skill") {
				if err := validateSkills(skills); err != nil {
					return err
				}
				patch.Skills = &skills
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				if cmd.Flags().Changed("experience") {
					patch.Experience = &experience
					asserted := l.Now().UTC().Format(dateLayout)
					if cmd.Flags().Changed("experience-updated") {
						if err := validateDate(experienceDate); err != nil {
							return err
						}
						asserted = experienceDate
					}
					patch.ExperienceUpdatedAt = &asserted
				}
				if _, err := l.Append(journal.TypePersonEdited, patch); err != nil {
					return err
				}
				return printJSONOrTable(l.Store.People()[patch.Email])
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&shortCode, "short-code", "", "roster code")
	cmd.Flags().StringVar(&designation, "designation", "", "designation")
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "weekly hours capacity")
	cmd.Flags().Float64Var(&experience, "experience", 0, "years of experience as of today")
	cmd.Flags().StringVar(&experienceDate, "experience-updated", "", "date the experience value was asserted (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&skills, "skill", []string{}, "replacement skill list as name:level (repeatable)")
	return cmd
}

func peopleTimeoffCmd() *cobra.Command {
	var start, end, reason string
	cmd := &cobra.Command{
		Use:   "timeoff <email>",
		Short: "Log an unavailability window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(start); err != nil {
				return err
			}
			if err := validateDate(end); err != nil {
				return err
			}
			if end < start {
				return fmt.Errorf("end date %s is before start date %s", end, start)
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				id, err := l.Append(journal.TypeUnavailabilityAdded, domain.UnavailabilityPayload{
					Email:     args[0],
					StartDate: start,
					EndDate:   end,
					Reason:    reason,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Logged %s for %s (%s to %s), event %s\n", reason, args[0], start, end, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", "PTO", "reason, e.g. PTO, Training")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func peopleOffboardCmd() *cobra.Command {
	var exitDate string
	cmd := &cobra.Command{
		Use:   "offboard <email>",
		Short: "Record a consultant's last working day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(exitDate); err != nil {
				return err
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				id, err := l.Append(journal.TypePersonOffboarded, domain.OffboardPayload{
					Email:    args[0],
					ExitDate: exitDate,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Offboarding scheduled for %s, event %s\n", exitDate, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&exitDate, "exit-date", "", "last working day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("exit-date")
	return cmd
}

func peopleDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <email>",
		Short: "Deactivate a consultant (history is preserved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				id, err := l.Append(journal.TypePersonDeleted, domain.PersonRef{Email: args[0]})
				if err != nil {
					return err
				}
				fmt.Printf("Deactivated %s, event %s\n", args[0], id)
				return nil
			})
		},
	}
	return cmd
}

// --- project ---

func projectCmd() *cobra.Command {
	prj := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and staffing allocations",
	}
	prj.AddCommand(projectAddCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectEditCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectAllocateCmd())
	prj.AddCommand(projectUnallocateCmd())
	return prj
}

func projectAddCmd() *cobra.Command {
	var name, desc, status, uniqueCode, hours string
	var probability int
	var skills []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			st, err := normalizeStatus(status)
			if err != nil {
				return err
			}
			if probability < 0 || probability > 100 {
				return fmt.Errorf("probability must be 0-100")
			}
			if err := validateSkills(skills); err != nil {
				return err
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				projects := l.Store.Projects()
				p := domain.Project{
					ID:               roster.ProjectID(name, projects),
					Name:             name,
					ShortCode:        roster.ProjectShortCode(name, cfg.ProjectCodeLen, projects),
					UniqueCode:       uniqueCode,
					Description:      desc,
					Status:           st,
					Probability:      probability,
					TotalHoursNeeded: domain.Hours(hours),
					RequiredSkills:   skills,
				}
				if p.RequiredSkills == nil {
					p.RequiredSkills = []string{}
				}
				if _, err := l.Append(journal.TypeProjectAdded, p); err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&desc, "description", "", "brief description")
	cmd.Flags().StringVar(&status, "status", domain.StatusProposed, "Proposed, Active, Completed, or Lost")
	cmd.Flags().IntVar(&probability, "probability", 100, "win probability percent (0-100)")
	cmd.Flags().StringVar(&uniqueCode, "unique-code", "", "optional internal project code")
	cmd.Flags().StringVar(&hours, "hours", "", "total hours needed, or a sentinel like TBD")
	cmd.Flags().StringArrayVar(&skills, "skill", []string{}, "required skill as name:level (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	var skill string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				st := l.Store.State()
				var rows []domain.Project
				for _, p := range sortedProjects(st.Projects) {
					if !all && p.Status == domain.StatusDeleted {
						continue
					}
					if skill != "" && !roster.HasSkill(p.RequiredSkills, skill) {
						continue
					}
					rows = append(rows, p)
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("The project list is empty.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Projects Overview")
				tw.AppendHeader(table.Row{"S-Code", "U-Code", "Name", "Status", "Prob %", "Team", "Required Skills"})
				for _, p := range rows {
					var team []string
					for _, a := range st.Allocations {
						if a.ProjectID != p.ID {
							continue
						}
						code := a.Email
						if person, ok := st.People[a.Email]; ok && person.ShortCode != "" {
							code = person.ShortCode
						}
						if a.IsLead {
							code += "*"
						}
						team = append(team, code)
					}
					sort.Strings(team)
					teamCol := strings.Join(team, ", ")
					if teamCol == "" {
						teamCol = "-"
					}
					tw.AppendRow(table.Row{p.ShortCode, orDash(p.UniqueCode), p.Name, p.Status,
						fmt.Sprintf("%d%%", p.Probability), teamCol, roster.FormatSkills(p.RequiredSkills)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&skill, "skill", "s", "", "filter by required skill name")
	cmd.Flags().BoolVar(&all, "all", false, "include deleted projects")
	return cmd
}

func projectEditCmd() *cobra.Command {
	var name, shortCode, uniqueCode, desc, status, hours string
	var probability int
	var skills []string
	cmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Edit a project (only the given flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.ProjectPatch{ID: args[0]}
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("short-code") {
				upper := strings.ToUpper(shortCode)
				patch.ShortCode = &upper
			}
			if cmd.Flags().Changed("unique-code") {
				patch.UniqueCode = &uniqueCode
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("status") {
				st, err := normalizeStatus(status)
				if err != nil {
					return err
				}
				patch.Status = &st
			}
			if cmd.Flags().Changed("probability") {
				if probability < 0 || probability > 100 {
					return fmt.Errorf("probability must be 0-100")
				}
				patch.Probability = &probability
			}
			if cmd.Flags().Changed("hours") {
				h := domain.Hours(hours)
				patch.TotalHoursNeeded = &h
			}
			if cmd.Flags().Changed("skill") {
				if err := validateSkills(skills); err != nil {
					return err
				}
				patch.RequiredSkills = &skills
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				if _, err := l.Append(journal.TypeProjectEdited, patch); err != nil {
					return err
				}
				return printJSONOrTable(l.Store.Projects()[patch.ID])
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&shortCode, "short-code", "", "short code")
	cmd.Flags().StringVar(&uniqueCode, "unique-code", "", "internal project code")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "Proposed, Active, Completed, or Lost")
	cmd.Flags().IntVar(&probability, "probability", 0, "win probability percent (0-100)")
	cmd.Flags().StringVar(&hours, "hours", "", "total hours needed, or a sentinel like TBD")
	cmd.Flags().StringArrayVar(&skills, "skill", []string{}, "replacement required-skill list (repeatable)")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Mark a project Deleted (history is preserved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				id, err := l.Append(journal.TypeProjectDeleted, domain.ProjectRef{ProjectID: args[0]})
				if err != nil {
					return err
				}
				fmt.Printf("Project %s marked Deleted, event %s\n", args[0], id)
				return nil
			})
		},
	}
	return cmd
}

func projectAllocateCmd() *cobra.Command {
	var projectRef, personRef, start, end string
	var hours float64
	var isLead bool
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Commit a consultant's weekly hours to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hours <= 0 {
				return fmt.Errorf("--hours must be positive")
			}
			if err := validateDate(start); err != nil {
				return err
			}
			if end != "" {
				if err := validateDate(end); err != nil {
					return err
				}
				if end < start {
					return fmt.Errorf("end date %s is before start date %s", end, start)
				}
			}
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				st := l.Store.State()
				proj, err := resolveProject(st.Projects, projectRef)
				if err != nil {
					return err
				}
				person, err := resolvePerson(st.People, personRef)
				if err != nil {
					return err
				}
				if !person.IsActive {
					fmt.Printf("note: %s is deactivated\n", person.Email)
				}
				if !roster.Matches(person.Skills, proj.RequiredSkills) {
					fmt.Printf("note: %s does not meet the required skills for %s\n", person.Email, proj.ID)
				}
				if end == "" {
					startDate, _ := time.Parse(dateLayout, start)
					end = startDate.AddDate(0, 0, 365).Format(dateLayout)
				}
				a := domain.Allocation{
					ID:        newAllocationID(),
					ProjectID: proj.ID,
					Email:     person.Email,
					Hours:     hours,
					IsLead:    isLead,
					StartDate: start,
					EndDate:   end,
				}
				if _, err := l.Append(journal.TypeAllocationAdded, a); err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&projectRef, "project", "", "project slug id or short code")
	cmd.Flags().StringVar(&personRef, "person", "", "consultant email or short code")
	cmd.Flags().Float64Var(&hours, "hours", 0, "weekly hours committed")
	cmd.Flags().BoolVar(&isLead, "lead", false, "mark as project lead")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD, defaults to start + 365 days)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("hours")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func projectUnallocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unallocate <allocation-id>",
		Short: "Remove an allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				id, err := l.Append(journal.TypeAllocationRemoved, domain.AllocationRef{AllocationID: args[0]})
				if err != nil {
					return err
				}
				fmt.Printf("Allocation %s removed, event %s\n", args[0], id)
				return nil
			})
		},
	}
	return cmd
}

// --- report ---

func reportCmd() *cobra.Command {
	rep := &cobra.Command{
		Use:   "report",
		Short: "Generate utilization, forecast, and gap reports",
	}
	rep.AddCommand(reportCurrentCmd())
	rep.AddCommand(reportForecastCmd())
	rep.AddCommand(reportTimelineCmd())
	rep.AddCommand(reportSummaryCmd())
	rep.AddCommand(reportTimeoffCmd())
	rep.AddCommand(reportSkillsCmd())
	return rep
}

func reportCurrentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Today's team utilization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				today := l.Now().UTC().Format(dateLayout)
				rows := report.CurrentUtilization(l.Store.State(), today)
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle(fmt.Sprintf("Team Utilization Summary (%s)", today))
				tw.AppendHeader(table.Row{"Code", "Name", "Cap.", "Util.", "Active Projects"})
				for _, r := range rows {
					breakdown := strings.Join(r.Projects, ", ")
					if breakdown == "" {
						breakdown = "Bench"
					}
					tw.AppendRow(table.Row{r.Code, r.Name, fmt.Sprintf("%.0fh", r.Capacity),
						colorize(fmt.Sprintf("%.0f%%", r.Utilization), utilizationColors(r.Utilization, cfg)), breakdown})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reportForecastCmd() *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Probability-weighted monthly forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				if months == 0 {
					months = cfg.ForecastMonths
				}
				buckets := report.MonthlyBuckets(l.Now(), months)
				rows := report.Forecast(l.Store.State(), buckets)
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle(fmt.Sprintf("%d-Month Probability Forecast", months))
				header := table.Row{"Code", "Name"}
				for _, b := range buckets {
					header = append(header, b.Label)
				}
				tw.AppendHeader(header)
				for _, r := range rows {
					row := table.Row{r.Code, r.Name}
					for _, c := range r.Cells {
						row = append(row, colorize(fmt.Sprintf("%.0f%% (%.1fh)", c.Utilization, c.WeightedHours),
							utilizationColors(c.Utilization, cfg)))
					}
					tw.AppendRow(row)
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&months, "months", "m", 0, "months ahead (workspace default if omitted)")
	return cmd
}

func reportTimelineCmd() *cobra.Command {
	var interval string
	var periods int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Utilization and PTO heatmap",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				buckets := report.IntervalBuckets(l.Now(), interval, periods)
				rows := report.Timeline(l.Store.State(), buckets)
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Utilization & PTO Heatmap")
				header := table.Row{"Code", "Name"}
				for _, b := range buckets {
					header = append(header, b.Label)
				}
				tw.AppendHeader(header)
				for _, r := range rows {
					row := table.Row{r.Code, r.Name}
					for _, c := range r.Cells {
						switch {
						case c.Left:
							row = append(row, "LEFT")
						case c.PTO:
							row = append(row, colorize(fmt.Sprintf("%.0f%%", c.Utilization),
								utilizationColors(c.Utilization, cfg))+", PTO")
						case c.Utilization > 0:
							row = append(row, colorize(fmt.Sprintf("%.0f%%", c.Utilization),
								utilizationColors(c.Utilization, cfg)))
						default:
							row = append(row, ".")
						}
					}
					tw.AppendRow(row)
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&interval, "interval", "i", "week", "bucket interval: day, week, or month")
	cmd.Flags().IntVarP(&periods, "periods", "p", 4, "number of buckets")
	return cmd
}

func reportSummaryCmd() *cobra.Command {
	var interval string
	var periods int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Per-project allocation summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				buckets := report.IntervalBuckets(l.Now(), interval, periods)
				rows := report.Summary(l.Store.State(), buckets)
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Project Allocation Summary")
				header := table.Row{"S-Code", "Project", "Lead"}
				for _, b := range buckets {
					header = append(header, b.Label)
				}
				tw.AppendHeader(header)
				for _, r := range rows {
					row := table.Row{r.Code, r.Name, r.Lead}
					for _, c := range r.Cells {
						if len(c.HoursByCode) == 0 {
							row = append(row, ".")
							continue
						}
						codes := make([]string, 0, len(c.HoursByCode))
						for code := range c.HoursByCode {
							codes = append(codes, code)
						}
						sort.Strings(codes)
						var lines []string
						for _, code := range codes {
							lines = append(lines, fmt.Sprintf("%s:%.0fh", code, c.HoursByCode[code]))
						}
						lines = append(lines, fmt.Sprintf("Tot:%.0fh", c.Total))
						row = append(row, strings.Join(lines, "\n"))
					}
					tw.AppendRow(row)
					tw.AppendSeparator()
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&interval, "interval", "i", "week", "bucket interval: day, week, or month")
	cmd.Flags().IntVarP(&periods, "periods", "p", 4, "number of buckets")
	return cmd
}

func reportTimeoffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeoff",
		Short: "Roster unavailability log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				rows := report.Timeoff(l.Store.State())
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("No unavailability has been logged.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Roster Unavailability Log")
				tw.AppendHeader(table.Row{"Code", "Name", "Start", "End", "Reason"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.Code, r.Name, r.Start, r.End, r.Reason})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func reportSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Organizational skill gap analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				gaps := report.SkillGaps(l.Store.State())
				if viper.GetBool("json") {
					return printJSON(gaps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Organizational Skill Gap Analysis")
				tw.AppendHeader(table.Row{"Skill", "Max Req.", "Max Avail.", "Status"})
				for _, g := range gaps {
					status := colorize("Covered", text.Colors{text.FgGreen})
					if !g.Covered {
						status = colorize("GAP", text.Colors{text.FgRed})
					}
					tw.AppendRow(table.Row{g.Skill, g.Required, g.Available, status})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- log / rebuild / config ---

func logCmd() *cobra.Command {
	logC := &cobra.Command{
		Use:   "log",
		Short: "Event journal",
	}
	logC.AddCommand(logTailCmd())
	return logC
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				events, err := l.Journal.ReadAll()
				if err != nil {
					return err
				}
				if evtType != "" {
					var filtered []journal.Event
					for _, ev := range events {
						if ev.Type == evtType {
							filtered = append(filtered, ev)
						}
					}
					events = filtered
				}
				if len(events) > n {
					events = events[len(events)-n:]
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Event ID", "Timestamp", "Type", "Payload"})
				for _, ev := range events {
					payload := string(ev.Payload)
					if len(payload) > 60 {
						payload = payload[:57] + "..."
					}
					tw.AppendRow(table.Row{ev.ID, ev.Timestamp, ev.Type, payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Replay the journal and rewrite the state snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(func(l *ledger.Ledger, cfg config.Config) error {
				st, err := l.Store.Rebuild()
				if err != nil {
					return err
				}
				fmt.Printf("Rebuilt state: %d people, %d projects, %d allocations\n",
					len(st.People), len(st.Projects), len(st.Allocations))
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Workspace preferences",
	}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default rostr.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})
	return cfgCmd
}

// --- helpers ---

func withLedger(fn func(*ledger.Ledger, config.Config) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	mode := logger.ProductionMode
	if viper.GetBool("verbose") {
		mode = logger.DevelopmentMode
	}
	log := logger.New(mode)
	defer log.Sync()
	l, err := ledger.Open(filepath.Join(workspace, ".rostr"), log)
	if err != nil {
		return err
	}
	return fn(l, cfg)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateDate(s string) error {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return nil
}

func validateSkills(skills []string) error {
	for _, s := range skills {
		name, level, ok := roster.ParseSkill(s)
		if !ok || name == "" {
			return fmt.Errorf("invalid skill %q, use name:level", s)
		}
		if level < 1 || level > 10 {
			return fmt.Errorf("skill level for %q must be 1-10", name)
		}
	}
	return nil
}

func normalizeStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proposed":
		return domain.StatusProposed, nil
	case "active":
		return domain.StatusActive, nil
	case "completed":
		return domain.StatusCompleted, nil
	case "lost":
		return domain.StatusLost, nil
	}
	return "", fmt.Errorf("invalid status %q (Proposed, Active, Completed, Lost)", s)
}

func resolveProject(projects map[string]domain.Project, ref string) (domain.Project, error) {
	if p, ok := projects[ref]; ok {
		return p, nil
	}
	for _, p := range projects {
		if p.ShortCode != "" && strings.EqualFold(p.ShortCode, ref) {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("project %q not found (slug id or short code)", ref)
}

func resolvePerson(people map[string]domain.Person, ref string) (domain.Person, error) {
	if p, ok := people[ref]; ok {
		return p, nil
	}
	for _, p := range people {
		if p.ShortCode != "" && strings.EqualFold(p.ShortCode, ref) {
			return p, nil
		}
	}
	return domain.Person{}, fmt.Errorf("consultant %q not found (email or short code)", ref)
}

// newAllocationID mirrors the short random ids allocations have always had:
// the first 8 hex characters of a v4 UUID.
func newAllocationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func utilizationColors(pct float64, cfg config.Config) text.Colors {
	switch {
	case pct > 100:
		return text.Colors{text.FgRed}
	case pct >= cfg.UtilizationTarget:
		return text.Colors{text.FgGreen}
	default:
		return text.Colors{text.FgYellow}
	}
}

func colorize(s string, c text.Colors) string {
	if viper.GetBool("json") {
		return s
	}
	return c.Sprint(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedPeople(people map[string]domain.Person) []domain.Person {
	out := make([]domain.Person, 0, len(people))
	for _, p := range people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].ShortCode != out[k].ShortCode {
			return out[i].ShortCode < out[k].ShortCode
		}
		return out[i].Email < out[k].Email
	})
	return out
}

func sortedProjects(projects map[string]domain.Project) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}
