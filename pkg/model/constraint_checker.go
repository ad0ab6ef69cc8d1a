package model

import "github.com/samber/lo"

const DefaultMaxDailySessions = 2

// constraintChecker decides whether a candidate value can join a partial assignment
type constraintChecker interface {
	// Checks the candidate (varA, valA) against one assigned pair (varB, valB)
	Consistent(varA Variable, valA Value, varB Variable, valB Value, assignment *Assignment) bool

	// Checks the candidate against every assigned variable, including the lecturer's daily load
	IsConsistent(assignment *Assignment, variable Variable, value Value) bool

	// Checks the purely pairwise rules (timing, hall capacity and lecturer double-booking)
	Compatible(varA Variable, valA Value, varB Variable, valB Value) bool
}

// A lecturer's load on a day is the number of distinct sessions they teach, where a session is
// identified by subject, day and time
type sessionKey struct {
	subject string
	day     string
	time    string
}

type constraintCheckerStandard struct {
	groupCapacities  map[string]uint64
	hallCapacities   map[string]uint64
	maxDailySessions int
}

func newConstraintChecker(groupCapacities, hallCapacities map[string]uint64, maxDailySessions int) constraintChecker {
	if maxDailySessions <= 0 {
		maxDailySessions = DefaultMaxDailySessions
	}
	return &constraintCheckerStandard{
		groupCapacities:  groupCapacities,
		hallCapacities:   hallCapacities,
		maxDailySessions: maxDailySessions,
	}
}

func (checker *constraintCheckerStandard) Consistent(varA Variable, valA Value, varB Variable, valB Value, assignment *Assignment) bool {
	// Identity
	if varA == varB && valA == valB {
		return true
	}

	// Disjoint time
	if valA.Day != valB.Day || valA.Time != valB.Time {
		return true
	}

	// Lecturer daily load
	if valA.Lecturer == valB.Lecturer {
		load := checker.dailyLoad(assignment, valA.Lecturer, valA.Day,
			sessionKey{varA.Subject, valA.Day, valA.Time},
			sessionKey{varB.Subject, valB.Day, valB.Time},
		)
		if load > checker.maxDailySessions {
			return false
		}
	}

	return checker.Compatible(varA, valA, varB, valB)
}

func (checker *constraintCheckerStandard) Compatible(varA Variable, valA Value, varB Variable, valB Value) bool {
	if valA.Day != valB.Day || valA.Time != valB.Time {
		return true
	}

	// Hall capacity
	if valA.Hall == valB.Hall {
		students := checker.groupCapacities[varA.Group] + checker.groupCapacities[varB.Group]
		if students > checker.hallCapacities[valA.Hall] {
			return false
		}
	}

	// Lecturer double-booking
	return valA.Lecturer != valB.Lecturer
}

func (checker *constraintCheckerStandard) IsConsistent(assignment *Assignment, variable Variable, value Value) bool {
	if checker.dailyLoad(assignment, value.Lecturer, value.Day, sessionKey{variable.Subject, value.Day, value.Time}) > checker.maxDailySessions {
		return false
	}

	consistent := true
	assignment.Each(func(other Variable, otherValue Value) bool {
		consistent = checker.Consistent(variable, value, other, otherValue, assignment)
		return consistent
	})
	return consistent
}

// Counts the distinct sessions the lecturer teaches on the day, including the extra keys under test
func (checker *constraintCheckerStandard) dailyLoad(assignment *Assignment, lecturer, day string, extra ...sessionKey) int {
	sessions := lo.SliceToMap(extra, func(key sessionKey) (sessionKey, bool) { return key, true })
	assignment.Each(func(variable Variable, value Value) bool {
		if value.Lecturer == lecturer && value.Day == day {
			sessions[sessionKey{variable.Subject, value.Day, value.Time}] = true
		}
		return true
	})
	return len(sessions)
}
