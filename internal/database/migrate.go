package database

import (
	"fmt"

	"github.com/pageza/mealplanner/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunMigrations creates or updates every table.
// On Postgres the pgvector extension and the recipe vector index are installed first.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	postgres := db.Dialector.Name() == "postgres"

	if postgres {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	} else {
		log.Info("Using GORM auto-migration without pgvector", zap.String("dialect", db.Dialector.Name()))
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	if postgres {
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_recipes_embedding ON recipes USING ivfflat (embedding vector_l2_ops) WITH (lists = 100)`).Error; err != nil {
			return fmt.Errorf("failed to create embedding index: %w", err)
		}
	}

	log.Info("Database migrations applied")
	return nil
}
