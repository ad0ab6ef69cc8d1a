package model

import "context"

// Timetabler builds a timetable for an institution and verifies timetables against it.
// A nil timetable with a nil error means the instance has no solution.
type Timetabler interface {
	Build(
		ctx context.Context,
		modelInput ModelInput,
	) (timetable Timetable, err error)

	Verify(
		timetable Timetable,
		modelInput ModelInput,
	) bool
}
