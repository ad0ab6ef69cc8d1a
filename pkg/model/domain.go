package model

import (
	"fmt"
)

// Variable is one lesson instance of a group-subject pairing
type Variable struct {
	Group   string
	Subject string
	Lesson  uint64
}

func (variable Variable) String() string {
	return fmt.Sprintf("%v~%v#%d", variable.Group, variable.Subject, variable.Lesson)
}

// Value is a candidate placement for a variable
type Value struct {
	Day      string
	Time     string
	Hall     string
	Lecturer string
}

// DomainModel holds the variables, their candidate domains and the read-only capacity tables the
// constraint checker needs. It is computed once and never mutated during search.
type DomainModel struct {
	Variables       []Variable
	Domains         map[Variable][]Value
	GroupCapacities map[string]uint64
	HallCapacities  map[string]uint64

	reasons map[Variable]string // Why a domain came out empty
}

// BuildDomainModel enumerates variables (group, subject, lesson) and their domains. Domain order is
// time slots outer, halls middle and lecturers inner.
func BuildDomainModel(modelInput ModelInput) DomainModel {
	domainModel := DomainModel{
		Variables:       make([]Variable, 0),
		Domains:         make(map[Variable][]Value),
		GroupCapacities: modelInput.GroupCapacities(),
		HallCapacities:  modelInput.HallCapacities(),
		reasons:         make(map[Variable]string),
	}

	for _, group := range modelInput.Groups {
		// Halls are filtered once per group since eligibility depends only on capacity
		halls := make([]string, 0, len(modelInput.Halls))
		for _, hall := range modelInput.Halls {
			if hall.Capacity >= group.Capacity {
				halls = append(halls, hall.Name)
			}
		}

		for _, subjectName := range group.Subjects {
			subject, _ := modelInput.Subject(subjectName)
			lecturers := modelInput.QualifiedLecturers(subjectName)

			for lesson := range subject.Hours {
				variable := Variable{Group: group.Name, Subject: subjectName, Lesson: lesson}
				domain := make([]Value, 0, len(modelInput.TimeSlots)*len(halls)*len(lecturers))

				for _, slot := range modelInput.TimeSlots {
					for _, hall := range halls {
						for _, lecturer := range lecturers {
							domain = append(domain, Value{Day: slot.Day, Time: slot.Time, Hall: hall, Lecturer: lecturer})
						}
					}
				}

				if len(domain) == 0 {
					domainModel.reasons[variable] = emptyDomainReason(modelInput, group, subjectName, halls, lecturers)
				}

				domainModel.Variables = append(domainModel.Variables, variable)
				domainModel.Domains[variable] = domain
			}
		}
	}

	return domainModel
}

func emptyDomainReason(modelInput ModelInput, group Group, subject string, halls, lecturers []string) string {
	switch {
	case len(lecturers) == 0:
		return fmt.Sprintf("no lecturer is qualified to teach %q", subject)
	case len(halls) == 0:
		return fmt.Sprintf("no hall seats group %q (capacity %d)", group.Name, group.Capacity)
	case len(modelInput.TimeSlots) == 0:
		return "no time slots are configured"
	default:
		return "empty domain"
	}
}

// Validate reports every variable whose domain is empty. Such variables make the search fail
// deterministically, so they are surfaced before search starts.
func (domainModel DomainModel) Validate() error {
	invalid := make([]EmptyDomain, 0)
	for _, variable := range domainModel.Variables {
		if len(domainModel.Domains[variable]) == 0 {
			invalid = append(invalid, EmptyDomain{Variable: variable, Reason: domainModel.reasons[variable]})
		}
	}

	if len(invalid) > 0 {
		return &InvalidConfigurationError{EmptyDomains: invalid}
	}
	return nil
}

// DomainSizes sums up the candidate values across all variables
func (domainModel DomainModel) DomainSizes() (total, smallest, largest int) {
	for i, variable := range domainModel.Variables {
		size := len(domainModel.Domains[variable])
		total += size
		if i == 0 || size < smallest {
			smallest = size
		}
		if size > largest {
			largest = size
		}
	}
	return total, smallest, largest
}
