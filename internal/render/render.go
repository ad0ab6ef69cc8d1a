package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/samber/lo"
)

const (
	OutcomeSolved             = "solved"
	OutcomeNoSolution         = "no_solution"
	OutcomeVerificationFailed = "verification_failed"
	OutcomeBudgetExceeded     = "budget_exceeded"
)

// Sort orders sessions by the declared position of their time slot. Sessions sharing a slot keep
// their assignment order.
func Sort(timetable model.Timetable, modelInput model.ModelInput) model.Timetable {
	sorted := slices.Clone(timetable)
	slices.SortStableFunc(sorted, func(a, b model.Session) int {
		return modelInput.SlotOrdinal(a.Day, a.Time) - modelInput.SlotOrdinal(b.Day, b.Time)
	})
	return sorted
}

// Text writes one line per session, or "No solution found." for a nil timetable
func Text(w io.Writer, timetable model.Timetable, modelInput model.ModelInput) error {
	if timetable == nil {
		_, err := fmt.Fprintln(w, "No solution found.")
		return err
	}

	if _, err := fmt.Fprintln(w, "Schedule:"); err != nil {
		return err
	}
	for _, session := range Sort(timetable, modelInput) {
		_, err := fmt.Fprintf(w, "Group: %v, Subject: %v, Lesson %d, Day: %v, Time: %v, Hall: %v, Lecturer: %v\n",
			session.Group, session.Subject, session.Lesson, session.Day, session.Time, session.Hall, session.Lecturer)
		if err != nil {
			return err
		}
	}
	return nil
}

type Report struct {
	RunID      string        `json:"run_id"`
	Strategy   string        `json:"strategy"`
	Outcome    string        `json:"outcome"`
	Statistics Statistics    `json:"statistics"`
	Groups     []GroupReport `json:"groups"`
}

type Statistics struct {
	Variables  int     `json:"variables"`
	Nodes      uint64  `json:"nodes"`
	Backtracks uint64  `json:"backtracks"`
	Checks     uint64  `json:"checks"`
	MaxDepth   int     `json:"max_depth"`
	Seconds    float64 `json:"seconds"`
}

type GroupReport struct {
	Group    string          `json:"group"`
	Sessions []SessionReport `json:"sessions"`
}

type SessionReport struct {
	Subject  string `json:"subject"`
	Lesson   uint64 `json:"lesson"`
	Day      string `json:"day"`
	Time     string `json:"time"`
	Hall     string `json:"hall"`
	Lecturer string `json:"lecturer"`
}

// NewReport groups the sorted sessions by group, with groups in declaration order
func NewReport(strategy, outcome string, stats model.SearchStats, timetable model.Timetable, modelInput model.ModelInput) Report {
	sessions := lo.GroupBy(Sort(timetable, modelInput), func(session model.Session) string {
		return session.Group
	})

	groups := make([]GroupReport, 0)
	if timetable != nil {
		groups = lo.Map(modelInput.Groups, func(group model.Group, _ int) GroupReport {
			return GroupReport{
				Group: group.Name,
				Sessions: lo.Map(sessions[group.Name], func(session model.Session, _ int) SessionReport {
					return SessionReport{
						Subject:  session.Subject,
						Lesson:   session.Lesson,
						Day:      session.Day,
						Time:     session.Time,
						Hall:     session.Hall,
						Lecturer: session.Lecturer,
					}
				}),
			}
		})
	}

	return Report{
		RunID:    uuid.NewString(),
		Strategy: strategy,
		Outcome:  outcome,
		Statistics: Statistics{
			Variables:  stats.Variables,
			Nodes:      stats.Nodes,
			Backtracks: stats.Backtracks,
			Checks:     stats.Checks,
			MaxDepth:   stats.MaxDepth,
			Seconds:    stats.SearchTime.Round(time.Microsecond).Seconds(),
		},
		Groups: groups,
	}
}

func JSON(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
