// Package domain holds the typed identifiers and caller identity shared across packages.
//
// IDs are distinct named UUID types so a LearnerID can never be passed where an
// InstitutionID is expected. Parse functions are the trust boundary for raw input.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "caseflow/pkg/domain-errors"
)

type (
	UserID          uuid.UUID
	InstitutionID   uuid.UUID
	LearnerID       uuid.UUID
	TransferID      uuid.UUID
	TimelineEventID uuid.UUID
)

// maxIDLength bounds raw input before it reaches uuid.Parse. The longest accepted
// form is the braced/urn variant.
const maxIDLength = 45

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(raw) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseInstitutionID(s string) (InstitutionID, error) {
	u, err := parseUUID(s, "institution id")
	return InstitutionID(u), err
}

func ParseLearnerID(s string) (LearnerID, error) {
	u, err := parseUUID(s, "learner id")
	return LearnerID(u), err
}

func ParseTransferID(s string) (TransferID, error) {
	u, err := parseUUID(s, "transfer id")
	return TransferID(u), err
}

func NewUserID() UserID                   { return UserID(uuid.New()) }
func NewInstitutionID() InstitutionID     { return InstitutionID(uuid.New()) }
func NewLearnerID() LearnerID             { return LearnerID(uuid.New()) }
func NewTransferID() TransferID           { return TransferID(uuid.New()) }
func NewTimelineEventID() TimelineEventID { return TimelineEventID(uuid.New()) }

func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id InstitutionID) String() string   { return uuid.UUID(id).String() }
func (id LearnerID) String() string       { return uuid.UUID(id).String() }
func (id TransferID) String() string      { return uuid.UUID(id).String() }
func (id TimelineEventID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id InstitutionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LearnerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id InstitutionID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id LearnerID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id TransferID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TimelineEventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *InstitutionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LearnerID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TransferID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TimelineEventID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
