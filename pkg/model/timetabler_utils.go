package model

import (
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// prepareDomainModel builds the variables and domains and rejects configurations with empty domains
// before any search starts
func prepareDomainModel(modelInput ModelInput, logger *zap.Logger) (DomainModel, error) {
	domainModel := BuildDomainModel(modelInput)

	total, smallest, largest := domainModel.DomainSizes()
	logger.Info("domain model built",
		zap.Int("variables", len(domainModel.Variables)),
		zap.Int("values", total),
		zap.Int("smallestDomain", smallest),
		zap.Int("largestDomain", largest),
	)

	if err := domainModel.Validate(); err != nil {
		return DomainModel{}, err
	}
	return domainModel, nil
}

func verify(timetable Timetable, modelInput ModelInput, maxDailySessions int) bool {
	if maxDailySessions <= 0 {
		maxDailySessions = DefaultMaxDailySessions
	}

	//** Initialize dependencies
	domainModel := BuildDomainModel(modelInput)

	//** Initialize lecturer-assistance (lecturer -> slot)
	lecturerAssistance := make(map[string]map[TimeSlot]bool)

	//** Initialize hall-occupancy (slot, hall -> groups seated)
	hallOccupancy := make(map[[3]string][]string)

	//** Initialize daily-load (lecturer, day -> sessions)
	dailyLoad := make(map[[2]string]map[sessionKey]bool)

	scheduled := make(map[Variable]bool)

	for _, session := range timetable {
		variable, value := session.Variable(), session.Value()
		slot := TimeSlot{Day: session.Day, Time: session.Time}
		occupancyKey := [3]string{session.Day, session.Time, session.Hall}
		loadKey := [2]string{session.Lecturer, session.Day}
		hallCapacity := domainModel.HallCapacities[session.Hall]
		groupCapacity := domainModel.GroupCapacities[session.Group]

		// Check that:
		// - The session belongs to a variable of the model and is scheduled once
		// - Its value is a candidate of the variable's domain (known slot, fitting hall, qualified lecturer)
		// - The lecturer is not already teaching in the slot
		// - Every group already seated in the hall at the slot fits together with this one
		domain, known := domainModel.Domains[variable]
		if !known || scheduled[variable] ||
			!slices.Contains(domain, value) ||
			lecturerAssistance[session.Lecturer][slot] ||
			lo.SomeBy(hallOccupancy[occupancyKey], func(group string) bool {
				return domainModel.GroupCapacities[group]+groupCapacity > hallCapacity
			}) {
			return false
		}

		if _, ok := lecturerAssistance[session.Lecturer]; !ok {
			lecturerAssistance[session.Lecturer] = make(map[TimeSlot]bool)
		}
		if _, ok := dailyLoad[loadKey]; !ok {
			dailyLoad[loadKey] = make(map[sessionKey]bool)
		}

		lecturerAssistance[session.Lecturer][slot] = true                                 // Store lecturer assistance
		hallOccupancy[occupancyKey] = append(hallOccupancy[occupancyKey], session.Group)  // Store hall occupancy
		dailyLoad[loadKey][sessionKey{session.Subject, session.Day, session.Time}] = true // Store daily load
		scheduled[variable] = true                                                        // Store variable scheduled
	}

	// Check no lecturer exceeds the daily load
	if lo.SomeBy(lo.Values(dailyLoad), func(sessions map[sessionKey]bool) bool {
		return len(sessions) > maxDailySessions
	}) {
		return false
	}

	// Check whether every variable is scheduled
	return len(scheduled) == len(domainModel.Variables)
}
