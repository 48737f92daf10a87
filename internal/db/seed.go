package db

import (
	"errors"
	"log/slog"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/models"
	"gorm.io/gorm"
)

// SeedAdmin makes sure at least one admin exists. When none does, the user
// named username is promoted, or created with password. Nothing happens
// without a password.
func SeedAdmin(db *gorm.DB, username, password string, cost int, log *slog.Logger) error {
	var admins int64
	if err := db.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		log.Warn("no admin found, promoting existing user", "username", username, "user_id", existing.ID)
		return db.Model(&models.User{}).Where("id = ?", existing.ID).Update("is_admin", true).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if password == "" {
		log.Warn("no admin exists and ADMIN_PASSWORD is empty; skipping bootstrap admin")
		return nil
	}
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u := models.User{Username: username, Password: hash, IsAdmin: true}
	if err := db.Create(&u).Error; err != nil {
		return TranslateError(err)
	}
	log.Info("bootstrap admin created", "username", username, "user_id", u.ID)
	return nil
}
