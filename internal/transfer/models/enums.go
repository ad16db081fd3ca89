package models

import (
	dErrors "caseflow/pkg/domain-errors"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown transfer priority: "+raw)
	}
	return p, nil
}

type Reason string

const (
	ReasonProgramCompletion        Reason = "program_completion"
	ReasonGeographicalRelocation   Reason = "geographical_relocation"
	ReasonSpecializedSupportNeeded Reason = "specialized_support_needed"
	ReasonCapacityConstraints      Reason = "capacity_constraints"
	ReasonFamilyRequest            Reason = "family_request"
	ReasonImprovedFit              Reason = "improved_fit"
	ReasonOther                    Reason = "other"
)

func (r Reason) IsValid() bool {
	switch r {
	case ReasonProgramCompletion, ReasonGeographicalRelocation, ReasonSpecializedSupportNeeded,
		ReasonCapacityConstraints, ReasonFamilyRequest, ReasonImprovedFit, ReasonOther:
		return true
	}
	return false
}
