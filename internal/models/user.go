package models

import (
	"time"
)

// User is an account allowed to sign in. Admins manage users and letters.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password    string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed
	Nom         string    `gorm:"size:255" json:"nom"`
	Prenom      string    `gorm:"size:255" json:"prenom"`
	Email       string    `gorm:"size:255" json:"email"`
	PhoneNumber string    `gorm:"size:50" json:"phone_number"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}
