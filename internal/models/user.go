package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns car listings. PasswordHash holds the bcrypt
// hash and must never reach a client.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	LastLogin    *time.Time
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	Cars []Car `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}
