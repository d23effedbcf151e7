package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents a tenant using the service. Vendors and invoices are
// always scoped to a single company.
type Company struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	APIKey       string    `json:"api_key" gorm:"type:varchar(255);uniqueIndex;not null"`
	Tier         string    `json:"tier" gorm:"type:varchar(50);default:'free'"`
	MonthlyQuota int       `json:"monthly_quota" gorm:"default:50"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
