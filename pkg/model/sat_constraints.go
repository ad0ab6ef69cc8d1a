package model

import (
	"github.com/samber/lo"
)

type dailyLoadKey struct {
	lecturer string
	day      string
}

// lecturerDay gathers everything a lecturer could teach on a day. Each distinct session owns an
// auxiliary SAT variable that is forced true by any candidate placing the lecturer in it.
type lecturerDay struct {
	key         dailyLoadKey
	sessions    []sessionKey
	auxiliaries []uint64
	literals    [][]uint64 // Candidate indices per session
	registers   [][]uint64 // Sequential counter registers, nil when the limit is encoded by subsets
}

type slotCandidate struct {
	variable  int
	candidate int
}

type constraintState struct {
	domainModel      DomainModel
	checker          constraintChecker
	indexer          indexer
	generator        combinationGenerator
	maxDailySessions int

	slots        map[TimeSlot][]slotCandidate // Candidates per time slot, in variable then candidate order
	slotOrder    []TimeSlot
	lecturerDays []lecturerDay

	variables uint64 // Candidate and auxiliary variables together
}

func newConstraintState(domainModel DomainModel, maxDailySessions int) constraintState {
	if maxDailySessions <= 0 {
		maxDailySessions = DefaultMaxDailySessions
	}

	state := constraintState{
		domainModel:      domainModel,
		checker:          newConstraintChecker(domainModel.GroupCapacities, domainModel.HallCapacities, maxDailySessions),
		indexer:          newIndexer(domainModel),
		generator:        newCombinationGenerator(),
		maxDailySessions: maxDailySessions,
		slots:            make(map[TimeSlot][]slotCandidate),
		slotOrder:        make([]TimeSlot, 0),
		lecturerDays:     make([]lecturerDay, 0),
	}

	lecturerDayIndex := make(map[dailyLoadKey]int)
	sessionIndex := make(map[dailyLoadKey]map[sessionKey]int)

	for i, variable := range domainModel.Variables {
		for j, value := range domainModel.Domains[variable] {
			index := state.indexer.Index(i, j)

			slot := TimeSlot{Day: value.Day, Time: value.Time}
			if _, ok := state.slots[slot]; !ok {
				state.slotOrder = append(state.slotOrder, slot)
			}
			state.slots[slot] = append(state.slots[slot], slotCandidate{variable: i, candidate: j})

			key := dailyLoadKey{lecturer: value.Lecturer, day: value.Day}
			position, ok := lecturerDayIndex[key]
			if !ok {
				position = len(state.lecturerDays)
				lecturerDayIndex[key] = position
				sessionIndex[key] = make(map[sessionKey]int)
				state.lecturerDays = append(state.lecturerDays, lecturerDay{key: key})
			}

			session := sessionKey{subject: variable.Subject, day: value.Day, time: value.Time}
			current := &state.lecturerDays[position]
			sessionPosition, ok := sessionIndex[key][session]
			if !ok {
				sessionPosition = len(current.sessions)
				sessionIndex[key][session] = sessionPosition
				current.sessions = append(current.sessions, session)
				current.literals = append(current.literals, make([]uint64, 0))
			}
			current.literals[sessionPosition] = append(current.literals[sessionPosition], index)
		}
	}

	// Auxiliaries come right after the candidate indices
	next := state.indexer.Candidates() + 1
	for i := range state.lecturerDays {
		state.lecturerDays[i].auxiliaries = make([]uint64, len(state.lecturerDays[i].sessions))
		for j := range state.lecturerDays[i].sessions {
			state.lecturerDays[i].auxiliaries[j] = next
			next++
		}
	}

	// Registers follow, only for the lecturer-days where the counter is the smaller encoding
	for i := range state.lecturerDays {
		sessions := len(state.lecturerDays[i].sessions)
		if !combinationsExceed(sessions, maxDailySessions+1, counterClauses(sessions, maxDailySessions)) {
			continue
		}
		registers := make([][]uint64, sessions-1)
		for j := range registers {
			registers[j] = make([]uint64, maxDailySessions)
			for k := range registers[j] {
				registers[j][k] = next
				next++
			}
		}
		state.lecturerDays[i].registers = registers
	}
	state.variables = next - 1

	return state
}

// Every variable takes at least one of its candidates
func completenessConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0, len(state.domainModel.Variables))
	for i, variable := range state.domainModel.Variables {
		clause := lo.Times(len(state.domainModel.Domains[variable]), func(j int) int64 {
			return int64(state.indexer.Index(i, j))
		})
		clauses = append(clauses, clause)
	}
	return clauses
}

// Every variable takes at most one of its candidates
func uniquenessConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for i, variable := range state.domainModel.Variables {
		size := len(state.domainModel.Domains[variable])
		for j := range size - 1 {
			for k := j + 1; k < size; k++ {
				clauses = append(clauses, []int64{-int64(state.indexer.Index(i, j)), -int64(state.indexer.Index(i, k))})
			}
		}
	}
	return clauses
}

// Two candidates of different variables at the same time slot cannot both hold if they overfill a hall
// or double-book a lecturer
func conflictConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, slot := range state.slotOrder {
		candidates := state.slots[slot]
		for a := range len(candidates) - 1 {
			for b := a + 1; b < len(candidates); b++ {
				first, second := candidates[a], candidates[b]
				if first.variable == second.variable {
					continue
				}

				varA, varB := state.domainModel.Variables[first.variable], state.domainModel.Variables[second.variable]
				valA, valB := state.domainModel.Domains[varA][first.candidate], state.domainModel.Domains[varB][second.candidate]
				if !state.checker.Compatible(varA, valA, varB, valB) {
					clauses = append(clauses, []int64{
						-int64(state.indexer.Index(first.variable, first.candidate)),
						-int64(state.indexer.Index(second.variable, second.candidate)),
					})
				}
			}
		}
	}
	return clauses
}

// A candidate placing a lecturer in a session forces the session's auxiliary
func dailyLoadLinkConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, load := range state.lecturerDays {
		for i, literals := range load.literals {
			auxiliary := int64(load.auxiliaries[i])
			for _, literal := range literals {
				clauses = append(clauses, []int64{-int64(literal), auxiliary})
			}
		}
	}
	return clauses
}

// No lecturer teaches more than the allowed number of distinct sessions per day. Small lecturer-days
// forbid every subset of max+1 sessions; larger ones use a sequential counter, which grows linearly.
func dailyLoadLimitConstraints(state constraintState) [][]int64 {
	clauses := make([][]int64, 0)
	for _, load := range state.lecturerDays {
		if load.registers != nil {
			clauses = append(clauses, sequentialCounter(load.auxiliaries, load.registers)...)
			continue
		}

		for _, combination := range state.generator.Combinations(len(load.sessions), state.maxDailySessions+1) {
			clauses = append(clauses, lo.Map(combination, func(session int, _ int) int64 {
				return -int64(load.auxiliaries[session])
			}))
		}
	}
	return clauses
}

// sequentialCounter encodes "at most k of literals hold" with k = len(registers[0]). registers[i][j]
// holds when at least j+1 of literals[0..i] do; there is one register row per literal but the last.
func sequentialCounter(literals []uint64, registers [][]uint64) [][]int64 {
	n, k := len(literals), len(registers[0])
	x := func(i int) int64 { return int64(literals[i]) }
	r := func(i, j int) int64 { return int64(registers[i][j]) }

	clauses := make([][]int64, 0, counterClauses(n, k))

	//** First literal
	clauses = append(clauses, []int64{-x(0), r(0, 0)})
	for j := 1; j < k; j++ {
		clauses = append(clauses, []int64{-r(0, j)})
	}

	//** Middle literals
	for i := 1; i < n-1; i++ {
		clauses = append(clauses,
			[]int64{-x(i), r(i, 0)},
			[]int64{-r(i-1, 0), r(i, 0)},
		)
		for j := 1; j < k; j++ {
			clauses = append(clauses,
				[]int64{-x(i), -r(i-1, j-1), r(i, j)},
				[]int64{-r(i-1, j), r(i, j)},
			)
		}
		clauses = append(clauses, []int64{-x(i), -r(i-1, k-1)})
	}

	//** Last literal
	clauses = append(clauses, []int64{-x(n - 1), -r(n-2, k-1)})

	return clauses
}

// counterClauses is the size of the sequential counter for n literals and limit k
func counterClauses(n, k int) int {
	if n <= k {
		return 0
	}
	return k + 1 + (n-2)*(2*k+1)
}

// combinationsExceed reports whether C(n, r) > limit, without computing more of C(n, r) than needed
func combinationsExceed(n, r, limit int) bool {
	if r > n {
		return false
	}

	// C(n-r+i, i) grows with i and ends at C(n, r)
	count := 1
	for i := 1; i <= r; i++ {
		count = count * (n - r + i) / i
		if count > limit {
			return true
		}
	}
	return false
}
