package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type RawTimeSlot struct {
	Day  string `mapstructure:"day" validate:"required"`
	Time string `mapstructure:"time" validate:"required"`
}

type RawSubject struct {
	Name  string `mapstructure:"name" validate:"required"`
	Hours uint64 `mapstructure:"hours"`
}

type RawGroup struct {
	Name         string   `mapstructure:"name" validate:"required"`
	Capacity     uint64   `mapstructure:"capacity" validate:"gt=0"`
	SubjectNames []string `mapstructure:"subject_names" validate:"dive,required"`
}

type RawLecturer struct {
	Name             string   `mapstructure:"name" validate:"required"`
	CanTeachSubjects []string `mapstructure:"can_teach_subjects" validate:"dive,required"`
}

type RawHall struct {
	Name     string `mapstructure:"name" validate:"required"`
	Capacity uint64 `mapstructure:"capacity"`
}

type RawSchedule struct {
	TimeSlots []RawTimeSlot `mapstructure:"time_slots" validate:"dive"`
	Subjects  []RawSubject  `mapstructure:"subjects" validate:"dive"`
	Groups    []RawGroup    `mapstructure:"groups" validate:"dive"`
	Lecturers []RawLecturer `mapstructure:"lecturers" validate:"dive"`
	Halls     []RawHall     `mapstructure:"halls" validate:"dive"`
}

type RawModelInput struct {
	Schedule RawSchedule `mapstructure:"schedule"`
}

type TimeSlot struct {
	Day  string
	Time string
}

type Subject struct {
	Name  string
	Hours uint64
}

type Group struct {
	Name     string
	Capacity uint64
	Subjects []string
}

type Lecturer struct {
	Name     string
	Subjects []string
}

type Hall struct {
	Name     string
	Capacity uint64
}

// ModelInput is the in-memory entity store the core reads from. Every collection keeps the order in
// which it was declared, since enumeration order drives domain order and therefore the search.
type ModelInput struct {
	TimeSlots []TimeSlot
	Subjects  []Subject
	Groups    []Group
	Lecturers []Lecturer
	Halls     []Hall

	subjects     map[string]Subject
	groups       map[string]Group
	halls        map[string]Hall
	qualified    map[string][]string // Lecturers per subject, in declaration order
	slotOrdinals map[TimeSlot]int
}

var validate = validator.New()

// InputFromFile decodes a schedule description. The format is chosen by extension: .yaml/.yml, .json or .toml
func InputFromFile(file string) (ModelInput, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, fmt.Errorf("read input file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".yaml", ".yml":
		return InputFromYaml(content)
	case ".json":
		return InputFromJson(content)
	case ".toml":
		return InputFromToml(content)
	default:
		return ModelInput{}, fmt.Errorf("unsupported input format %q", ext)
	}
}

func InputFromYaml(content []byte) (ModelInput, error) {
	var inputYaml map[string]any
	if err := yaml.Unmarshal(content, &inputYaml); err != nil {
		return ModelInput{}, fmt.Errorf("parse yaml input: %w", err)
	}
	return decodeRawInput(inputYaml)
}

func InputFromJson(content []byte) (ModelInput, error) {
	var inputJson map[string]any
	decoder := json.NewDecoder(bytes.NewReader(content))
	if err := decoder.Decode(&inputJson); err != nil {
		return ModelInput{}, fmt.Errorf("parse json input: %w", err)
	}
	return decodeRawInput(inputJson)
}

func InputFromToml(content []byte) (ModelInput, error) {
	var inputToml map[string]any
	if err := toml.Unmarshal(content, &inputToml); err != nil {
		return ModelInput{}, fmt.Errorf("parse toml input: %w", err)
	}
	return decodeRawInput(inputToml)
}

// decodeRawInput rejects keys that match no field, so a misspelled key fails instead of dropping data
func decodeRawInput(document map[string]any) (ModelInput, error) {
	var rawInput RawModelInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(wholeNumberHook),
		ErrorUnused: true,
		Result:      &rawInput,
	})
	if err != nil {
		return ModelInput{}, fmt.Errorf("decode input: %w", err)
	}

	if err := decoder.Decode(document); err != nil {
		return ModelInput{}, fmt.Errorf("decode input: %w", err)
	}
	return ProcessRawInput(rawInput)
}

// wholeNumberHook refuses to truncate fractional numbers into the unsigned fields (hours, capacities).
// JSON and TOML floats both reach the decoder as float64.
func wholeNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Uint64 || (from.Kind() != reflect.Float64 && from.Kind() != reflect.Float32) {
		return data, nil
	}

	number := reflect.ValueOf(data).Float()
	if number != math.Trunc(number) {
		return nil, fmt.Errorf("%v is not a whole number", number)
	}
	return data, nil
}

// ProcessRawInput validates a decoded schedule and builds the lookup tables used by the core
func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	if err := validate.Struct(rawInput); err != nil {
		return ModelInput{}, fmt.Errorf("invalid input: %w", err)
	}
	raw := rawInput.Schedule

	input := ModelInput{
		subjects:     make(map[string]Subject),
		groups:       make(map[string]Group),
		halls:        make(map[string]Hall),
		qualified:    make(map[string][]string),
		slotOrdinals: make(map[TimeSlot]int),
	}

	//** Time slots
	for _, rawSlot := range raw.TimeSlots {
		slot := TimeSlot{Day: rawSlot.Day, Time: rawSlot.Time}
		if _, ok := input.slotOrdinals[slot]; ok {
			return ModelInput{}, fmt.Errorf("duplicate time slot %v %v", slot.Day, slot.Time)
		}
		input.slotOrdinals[slot] = len(input.TimeSlots)
		input.TimeSlots = append(input.TimeSlots, slot)
	}

	//** Subjects
	for _, rawSubject := range raw.Subjects {
		if _, ok := input.subjects[rawSubject.Name]; ok {
			return ModelInput{}, fmt.Errorf("duplicate subject %q", rawSubject.Name)
		}
		subject := Subject{Name: rawSubject.Name, Hours: rawSubject.Hours}
		input.subjects[subject.Name] = subject
		input.Subjects = append(input.Subjects, subject)
	}

	//** Groups
	for _, rawGroup := range raw.Groups {
		if _, ok := input.groups[rawGroup.Name]; ok {
			return ModelInput{}, fmt.Errorf("duplicate group %q", rawGroup.Name)
		}
		if unknown, ok := lo.Find(rawGroup.SubjectNames, func(name string) bool {
			_, known := input.subjects[name]
			return !known
		}); ok {
			return ModelInput{}, fmt.Errorf("group %q takes unknown subject %q", rawGroup.Name, unknown)
		}
		if duplicates := lo.FindDuplicates(rawGroup.SubjectNames); len(duplicates) > 0 {
			return ModelInput{}, fmt.Errorf("group %q lists subject %q more than once", rawGroup.Name, duplicates[0])
		}

		group := Group{
			Name:     rawGroup.Name,
			Capacity: rawGroup.Capacity,
			Subjects: append([]string(nil), rawGroup.SubjectNames...),
		}
		input.groups[group.Name] = group
		input.Groups = append(input.Groups, group)
	}

	//** Lecturers
	names := make(map[string]bool)
	for _, rawLecturer := range raw.Lecturers {
		if names[rawLecturer.Name] {
			return ModelInput{}, fmt.Errorf("duplicate lecturer %q", rawLecturer.Name)
		}
		names[rawLecturer.Name] = true

		for _, subject := range lo.Uniq(rawLecturer.CanTeachSubjects) {
			if _, ok := input.subjects[subject]; !ok {
				return ModelInput{}, fmt.Errorf("lecturer %q can teach unknown subject %q", rawLecturer.Name, subject)
			}
			input.qualified[subject] = append(input.qualified[subject], rawLecturer.Name)
		}

		input.Lecturers = append(input.Lecturers, Lecturer{
			Name:     rawLecturer.Name,
			Subjects: lo.Uniq(rawLecturer.CanTeachSubjects),
		})
	}

	//** Halls
	for _, rawHall := range raw.Halls {
		if _, ok := input.halls[rawHall.Name]; ok {
			return ModelInput{}, fmt.Errorf("duplicate hall %q", rawHall.Name)
		}
		hall := Hall{Name: rawHall.Name, Capacity: rawHall.Capacity}
		input.halls[hall.Name] = hall
		input.Halls = append(input.Halls, hall)
	}

	return input, nil
}

// QualifiedLecturers returns the lecturers able to teach the subject, in declaration order
func (input ModelInput) QualifiedLecturers(subject string) []string {
	return input.qualified[subject]
}

func (input ModelInput) Subject(name string) (Subject, bool) {
	subject, ok := input.subjects[name]
	return subject, ok
}

func (input ModelInput) Group(name string) (Group, bool) {
	group, ok := input.groups[name]
	return group, ok
}

func (input ModelInput) Hall(name string) (Hall, bool) {
	hall, ok := input.halls[name]
	return hall, ok
}

// SlotOrdinal returns the position of the time slot in the declared enumeration, or -1 if unknown
func (input ModelInput) SlotOrdinal(day, time string) int {
	ordinal, ok := input.slotOrdinals[TimeSlot{Day: day, Time: time}]
	if !ok {
		return -1
	}
	return ordinal
}

func (input ModelInput) GroupCapacities() map[string]uint64 {
	return lo.SliceToMap(input.Groups, func(group Group) (string, uint64) {
		return group.Name, group.Capacity
	})
}

func (input ModelInput) HallCapacities() map[string]uint64 {
	return lo.SliceToMap(input.Halls, func(hall Hall) (string, uint64) {
		return hall.Name, hall.Capacity
	})
}
