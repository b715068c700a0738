package models

import (
	"time"

	"github.com/google/uuid"
)

type JobSeeker struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FullName  string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j JobSeeker) Principal() Principal {
	return Principal{ID: j.ID, Kind: KindJobSeeker, Name: j.FullName, Email: j.Email}
}
