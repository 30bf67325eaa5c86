package main

import (
	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/logger"
	"github.com/pageza/mealplanner/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "testpassword123"

type testUser struct {
	name     string
	email    string
	verified bool
	role     models.Role
	diet     []string
}

var testUsers = []testUser{
	{name: "John Doe", email: "john.doe@example.com", verified: true, role: models.RoleUser, diet: []string{"vegetarian"}},
	{name: "Jane Smith", email: "jane.smith@example.com", verified: true, role: models.RoleUser, diet: []string{"gluten-free"}},
	{name: "Bob Wilson", email: "bob.wilson@example.com", verified: false, role: models.RoleUser},
	{name: "Admin User", email: "admin@example.com", verified: true, role: models.RoleAdmin},
	{name: "Super Admin", email: "superadmin@example.com", verified: true, role: models.RoleSuperAdmin},
	{name: "Test Unverified", email: "unverified@example.com", verified: false, role: models.RoleUser},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Environment.IsProduction() {
		zap.NewExample().Fatal("Refusing to seed test users in production")
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: "console", Development: true})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	for _, u := range testUsers {
		var existing int64
		if err := db.Model(&models.User{}).Where("email = ?", u.email).Count(&existing).Error; err != nil {
			log.Fatal("Failed to check existing user", zap.Error(err))
		}
		if existing > 0 {
			log.Info("User already exists, skipping", zap.String("email", u.email))
			continue
		}

		user := models.User{
			Name:               u.name,
			Email:              u.email,
			PasswordHash:       string(hash),
			Role:               u.role,
			EmailVerified:      u.verified,
			DietaryPreferences: u.diet,
			IsActive:           true,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Error("Failed to create user", zap.String("email", u.email), zap.Error(err))
			continue
		}
		log.Info("Created test user",
			zap.String("email", u.email),
			zap.String("role", string(u.role)),
			zap.Bool("verified", u.verified),
		)
	}

	var verified, unverified int64
	db.Model(&models.User{}).Where("email_verified = ?", true).Count(&verified)
	db.Model(&models.User{}).Where("email_verified = ?", false).Count(&unverified)
	log.Info("Test users ready",
		zap.Int64("verified", verified),
		zap.Int64("unverified", unverified),
		zap.String("password", testPassword),
	)
}
