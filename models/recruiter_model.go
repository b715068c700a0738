package models

import (
	"time"

	"github.com/google/uuid"
)

type Recruiter struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FullName    string    `gorm:"not null"`
	Email       string    `gorm:"uniqueIndex;not null"`
	CompanyName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Recruiter) Principal() Principal {
	return Principal{ID: r.ID, Kind: KindRecruiter, Name: r.FullName, Email: r.Email, CompanyName: r.CompanyName}
}
