package main

import (
	"flag"
	"os"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/logger"
	"github.com/pageza/mealplanner/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	reset := flag.Bool("reset", false, "Drop every table before migrating (development only)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console", Development: true})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if *reset {
		if cfg.Environment.IsProduction() {
			log.Fatal("Refusing to reset a production database")
		}
		if err := dropAll(db); err != nil {
			log.Fatal("Failed to drop tables", zap.Error(err))
		}
		log.Warn("Dropped all tables")
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("All migrations applied successfully")
}

// dropAll drops tables in reverse dependency order.
func dropAll(db *gorm.DB) error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return err
		}
	}
	return nil
}
