package domain

import "strings"

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// transitions is the only source of truth for the order lifecycle.
// COMPLETED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusCreated:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// NormalizeStatus uppercases the input and maps the single-L alias
// CANCELED to the canonical CANCELLED spelling.
func NormalizeStatus(s string) Status {
	up := Status(strings.ToUpper(strings.TrimSpace(s)))
	if up == "CANCELED" {
		return StatusCancelled
	}
	return up
}

// CanTransition reports whether from -> to is an allowed transition.
// Repeating the current status is not allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
