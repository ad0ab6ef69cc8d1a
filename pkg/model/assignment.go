package model

import (
	"fmt"
	"log"
)

// Session is a scheduled lesson: a variable together with its assigned value
type Session struct {
	Group    string
	Subject  string
	Lesson   uint64
	Day      string
	Time     string
	Hall     string
	Lecturer string
}

func (session Session) Variable() Variable {
	return Variable{Group: session.Group, Subject: session.Subject, Lesson: session.Lesson}
}

func (session Session) Value() Value {
	return Value{Day: session.Day, Time: session.Time, Hall: session.Hall, Lecturer: session.Lecturer}
}

func newSession(variable Variable, value Value) Session {
	return Session{
		Group:    variable.Group,
		Subject:  variable.Subject,
		Lesson:   variable.Lesson,
		Day:      value.Day,
		Time:     value.Time,
		Hall:     value.Hall,
		Lecturer: value.Lecturer,
	}
}

type Timetable []Session

// Assignment is the search state: a mapping from variables to values whose insertions and removals
// are strictly nested (last in, first out).
type Assignment struct {
	order  []Variable
	values map[Variable]Value
}

func NewAssignment(capacity int) *Assignment {
	return &Assignment{
		order:  make([]Variable, 0, capacity),
		values: make(map[Variable]Value, capacity),
	}
}

// Assign pushes a tentative value for an unassigned variable
func (assignment *Assignment) Assign(variable Variable, value Value) {
	if _, ok := assignment.values[variable]; ok {
		log.Panicf("variable %v is already assigned", variable)
	}
	assignment.order = append(assignment.order, variable)
	assignment.values[variable] = value
}

// Unassign undoes the most recent assignment, which must belong to the given variable
func (assignment *Assignment) Unassign(variable Variable) {
	if len(assignment.order) == 0 || assignment.order[len(assignment.order)-1] != variable {
		log.Panicf("variable %v is not the last assigned one", variable)
	}
	assignment.order = assignment.order[:len(assignment.order)-1]
	delete(assignment.values, variable)
}

func (assignment *Assignment) Len() int {
	return len(assignment.order)
}

func (assignment *Assignment) Value(variable Variable) (Value, bool) {
	value, ok := assignment.values[variable]
	return value, ok
}

func (assignment *Assignment) Contains(variable Variable) bool {
	_, ok := assignment.values[variable]
	return ok
}

// Each visits the assigned variables in insertion order until visit returns false
func (assignment *Assignment) Each(visit func(variable Variable, value Value) bool) {
	for _, variable := range assignment.order {
		if !visit(variable, assignment.values[variable]) {
			return
		}
	}
}

// Variables returns the assigned variables in insertion order
func (assignment *Assignment) Variables() []Variable {
	return append([]Variable(nil), assignment.order...)
}

func (assignment *Assignment) Clone() *Assignment {
	clone := NewAssignment(cap(assignment.order))
	assignment.Each(func(variable Variable, value Value) bool {
		clone.Assign(variable, value)
		return true
	})
	return clone
}

// Timetable lists the assignment as sessions in insertion order
func (assignment *Assignment) Timetable() Timetable {
	timetable := make(Timetable, 0, len(assignment.order))
	assignment.Each(func(variable Variable, value Value) bool {
		timetable = append(timetable, newSession(variable, value))
		return true
	})
	return timetable
}

func (assignment *Assignment) String() string {
	return fmt.Sprintf("assignment(%d)", len(assignment.order))
}
