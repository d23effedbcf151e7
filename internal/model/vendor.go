package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor is a trusted billing counterparty curated by a company. The fraud
// engine only ever reads vendors; it never creates or mutates them.
type Vendor struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID  `json:"company_id" gorm:"type:uuid;index;index:idx_vendors_company_vat,priority:1;not null"`
	Name             string     `json:"name" gorm:"type:varchar(255);not null"`
	VATNumber        string     `json:"vat_number" gorm:"type:varchar(50);index:idx_vendors_company_vat,priority:2"`
	IBAN             string     `json:"iban" gorm:"type:varchar(50)"`
	Email            string     `json:"email" gorm:"type:varchar(255)"`
	Phone            string     `json:"phone" gorm:"type:varchar(50)"`
	Address          string     `json:"address" gorm:"type:text"`
	IsVerified       bool       `json:"is_verified" gorm:"default:false"`
	VerificationDate *time.Time `json:"verification_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
