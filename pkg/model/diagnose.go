package model

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// lecturerSlot is the resource a session consumes exclusively: a lecturer at a time slot
type lecturerSlot struct {
	Day      string
	Time     string
	Lecturer string
}

// Diagnosis is the outcome of a quick infeasibility test. Unmatched variables could not get a lecturer
// slot of their own in a maximum matching, which proves there is no solution. An empty Unmatched does
// not prove there is one, since hall capacity and daily load are ignored.
type Diagnosis struct {
	Variables int
	Matched   int
	Unmatched []Variable
}

func (diagnosis Diagnosis) Infeasible() bool {
	return len(diagnosis.Unmatched) > 0
}

// Diagnose matches every variable to a distinct lecturer slot from its domain
func Diagnose(domainModel DomainModel) (Diagnosis, error) {
	resources := make([]lecturerSlot, 0)
	relationships := make(map[Variable]map[lecturerSlot]bool)
	seen := make(map[lecturerSlot]bool)

	for _, variable := range domainModel.Variables {
		relationships[variable] = make(map[lecturerSlot]bool)
		for _, value := range domainModel.Domains[variable] {
			resource := lecturerSlot{Day: value.Day, Time: value.Time, Lecturer: value.Lecturer}
			relationships[variable][resource] = true
			if !seen[resource] {
				seen[resource] = true
				resources = append(resources, resource)
			}
		}
	}

	// Build neighbors predicate based on relationships
	neighbors := func(variableAny any, resourceAny any) (bool, error) {
		variable := variableAny.(Variable)
		resource := resourceAny.(lecturerSlot)

		return relationships[variable][resource], nil
	}

	// Transform variables and resources to slices of any
	variablesAny := lo.Map(domainModel.Variables, func(variable Variable, _ int) any { return variable })
	resourcesAny := lo.Map(resources, func(resource lecturerSlot, _ int) any { return resource })

	graph, err := bipartitegraph.NewBipartiteGraph(variablesAny, resourcesAny, neighbors)
	if err != nil {
		return Diagnosis{}, err
	}

	matching := graph.LargestMatching()

	matched := make(map[int]bool, len(matching))
	for _, edge := range matching {
		matched[edge.Node1] = true
	}

	return Diagnosis{
		Variables: len(domainModel.Variables),
		Matched:   len(matching),
		Unmatched: lo.Filter(domainModel.Variables, func(_ Variable, i int) bool { return !matched[i] }),
	}, nil
}
