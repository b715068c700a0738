package database

import (
	"fmt"

	"github.com/hirebridge/hirebridge/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.JobSeeker{},
		&models.Recruiter{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.RevokedCredential{},
	)
}
