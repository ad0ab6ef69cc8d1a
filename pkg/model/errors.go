package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSearchBudgetExceeded is returned when the node or time budget runs out before the search
// either finds a solution or proves there is none
var ErrSearchBudgetExceeded = errors.New("search budget exceeded")

type EmptyDomain struct {
	Variable Variable
	Reason   string
}

// InvalidConfigurationError lists every variable that has no candidate value at all
type InvalidConfigurationError struct {
	EmptyDomains []EmptyDomain
}

func (err *InvalidConfigurationError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "invalid configuration: %d variable(s) have an empty domain", len(err.EmptyDomains))
	for _, emptyDomain := range err.EmptyDomains {
		fmt.Fprintf(&builder, "\n\t%v: %v", emptyDomain.Variable, emptyDomain.Reason)
	}
	return builder.String()
}

type budgetError struct {
	cause error
}

func (err budgetError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSearchBudgetExceeded, err.cause)
}

func (err budgetError) Is(target error) bool {
	return target == ErrSearchBudgetExceeded
}

func (err budgetError) Unwrap() error {
	return err.cause
}
