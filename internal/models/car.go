package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CarTags is the fixed-shape metadata bundle attached to every car.
type CarTags struct {
	CarType string `json:"car_type"`
	Company string `json:"company"`
	Dealer  string `json:"dealer"`
}

// Car is a single listing. Images holds stored filenames in display order:
// retained images first, newly uploaded ones appended.
type Car struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string                      `gorm:"type:text;not null"`
	Description string                      `gorm:"type:text;not null"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Tags        datatypes.JSONType[CarTags] `gorm:"type:jsonb"`
	OwnerID     uuid.UUID                   `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time                   `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	Owner User `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
}
