package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus tracks the processing lifecycle of an uploaded invoice
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusAnalyzed InvoiceStatus = "analyzed"
)

// RiskStatus is the three-way verdict derived from the aggregate risk score
type RiskStatus string

const (
	RiskStatusSafe       RiskStatus = "safe"
	RiskStatusSuspicious RiskStatus = "suspicious"
	RiskStatusFraudulent RiskStatus = "fraudulent"
)

// Invoice holds the uploaded file metadata, the fields extracted from the
// recognized text, and the latest risk assessment. Risk fields are replaced
// as a whole on every analysis run, never partially updated.
type Invoice struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;index;not null"`

	// File info
	FilePath string `json:"file_path" gorm:"type:varchar(500);not null"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type" gorm:"type:varchar(50)"`

	// Extracted data
	VendorName    string           `json:"vendor_name" gorm:"type:varchar(255)"`
	VendorVAT     string           `json:"vendor_vat" gorm:"type:varchar(50)"`
	VendorIBAN    string           `json:"vendor_iban" gorm:"type:varchar(50)"`
	VendorEmail   string           `json:"vendor_email" gorm:"type:varchar(255)"`
	InvoiceNumber string           `json:"invoice_number" gorm:"type:varchar(100)"`
	InvoiceDate   *time.Time       `json:"invoice_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty" gorm:"type:decimal(10,2)"`
	Currency      string           `json:"currency" gorm:"type:varchar(3);default:'EUR'"`

	// Analysis results
	RiskScore       int           `json:"risk_score"`
	Status          InvoiceStatus `json:"status" gorm:"type:varchar(50);default:'pending'"`
	RiskStatus      RiskStatus    `json:"risk_status" gorm:"type:varchar(50)"`
	FraudIndicators IndicatorList `json:"fraud_indicators" gorm:"type:jsonb"`

	OCRConfidence    float64    `json:"ocr_confidence"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	AnalyzedAt       *time.Time `json:"analyzed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
