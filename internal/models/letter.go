package models

import (
	"time"

	"gorm.io/datatypes"
)

// LetterStatus is the adoption state of a deliberation letter.
type LetterStatus string

const (
	LetterStatusPending  LetterStatus = "en_attente"
	LetterStatusAdopted  LetterStatus = "adoptee"
	LetterStatusRejected LetterStatus = "rejetee"
)

// Valid reports whether s is a known status.
func (s LetterStatus) Valid() bool {
	switch s {
	case LetterStatusPending, LetterStatusAdopted, LetterStatusRejected:
		return true
	}
	return false
}

// ParseLetterStatus maps "" to the default status and rejects unknown values.
func ParseLetterStatus(s string) (LetterStatus, bool) {
	if s == "" {
		return LetterStatusPending, true
	}
	st := LetterStatus(s)
	return st, st.Valid()
}

// Letter is a stored deliberation. Letters are never deleted.
type Letter struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedBy          uint           `gorm:"index;not null" json:"created_by"`
	Creator            *User          `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	LetterNumber       string         `gorm:"size:50;not null;index:idx_letters_lookup,priority:2" json:"letter_number"`
	Year               int            `gorm:"not null;index:idx_letters_lookup,priority:1" json:"year"`
	SequenceNumber     string         `gorm:"size:50;not null;default:'1'" json:"sequence_number"`
	Title              string         `gorm:"type:text;not null" json:"title"`
	DeliberationNumber string         `gorm:"size:50;not null" json:"deliberation_number"`
	Content            datatypes.JSON `gorm:"not null" json:"content"`
	Status             LetterStatus   `gorm:"size:20;not null;default:'en_attente'" json:"status"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`

	// CreatorUsername is filled by list queries joining users.
	CreatorUsername string `gorm:"->;-:migration" json:"created_by_username,omitempty"`
}
