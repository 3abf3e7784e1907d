package model

import (
	"time"

	"github.com/google/uuid"
)

// AddressModel is the GORM-specific struct for the 'addresses' table.
type AddressModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       *uuid.UUID `gorm:"type:uuid;index"`
	StoreID      *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Street       string     `gorm:"type:varchar(255);not null"`
	Neighborhood string     `gorm:"type:varchar(120)"`
	City         string     `gorm:"type:varchar(120);not null"`
	Number       string     `gorm:"type:varchar(20)"`
	State        string     `gorm:"type:varchar(60);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (AddressModel) TableName() string {
	return "addresses"
}
