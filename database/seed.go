package database

import (
	"context"
	"errors"
	"fmt"

	"studio-site-backend/config"
	"studio-site-backend/models"
	"studio-site-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrAdminPasswordMissing is returned when seeding without ADMIN_PASSWORD.
var ErrAdminPasswordMissing = errors.New("ADMIN_PASSWORD must be set to seed the admin user")

// SeedInitialAdmin creates the first admin account when no user has the
// configured email. It expects the users table to be fully migrated.
func SeedInitialAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	log.Info("seeding initial admin user", zap.String("email", cfg.AdminEmail))

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		log.Info("admin user already exists, skipping", zap.Uint("id", existing.ID))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	if cfg.AdminPassword == "" {
		return ErrAdminPasswordMissing
	}
	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.AdminName
	admin := models.User{
		Email:    cfg.AdminEmail,
		Name:     &name,
		Password: hash,
		Role:     "admin",
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Info("admin user seeded", zap.Uint("id", admin.ID))
	return nil
}
