package database

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskpilot/chat-api/internal/infrastructure/database/entities"
)

// Migrate applies the schema via gorm auto migration.
func Migrate(db *gorm.DB, logger zerolog.Logger) error {
	err := db.AutoMigrate(
		&entities.SchemaConversation{},
		&entities.SchemaMessage{},
		&entities.SchemaTask{},
	)
	if err != nil {
		return err
	}
	logger.Info().Msg("database migrations applied")
	return nil
}
