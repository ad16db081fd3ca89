package models

import (
	dErrors "caseflow/pkg/domain-errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the full state machine. Cancellation from rejected or
// cancelled is accepted as a re-cancel; only completed is closed to it.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCompleted, StatusCancelled},
	StatusRejected:  {StatusCancelled},
	StatusCancelled: {StatusCancelled},
	StatusCompleted: nil,
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown transfer status: "+raw)
	}
	return s, nil
}

// IsActive reports whether a transfer in s blocks a new transfer for the same learner.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
