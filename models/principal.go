package models

import (
	"github.com/google/uuid"
)

// Kind tags which identity collection a principal belongs to. Job seekers and
// recruiters live in two separate tables; there is no unified identity table.
type Kind string

const (
	KindJobSeeker Kind = "job_seeker"
	KindRecruiter Kind = "recruiter"
)

func (k Kind) Valid() bool {
	return k == KindJobSeeker || k == KindRecruiter
}

// PrincipalRef identifies an actor by id plus kind.
type PrincipalRef struct {
	ID   uuid.UUID `json:"principal_id"`
	Kind Kind      `json:"kind"`
}

// Principal is a resolved identity with the display fields the conversation
// views expose. CompanyName is set for recruiters only.
type Principal struct {
	ID          uuid.UUID
	Kind        Kind
	Name        string
	Email       string
	CompanyName string
}

func (p Principal) Ref() PrincipalRef {
	return PrincipalRef{ID: p.ID, Kind: p.Kind}
}
