package models

import (
	"time"

	"github.com/google/uuid"
)

// RevokedCredential blacklists a bearer token until it would have expired
// anyway. Rows past ExpiresAt are purged by a scheduled job.
type RevokedCredential struct {
	Token       string    `gorm:"primary_key"`
	PrincipalID uuid.UUID `gorm:"type:uuid;not null"`
	Kind        Kind      `gorm:"type:varchar(16);not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
}
