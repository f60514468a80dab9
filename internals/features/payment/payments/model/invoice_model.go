package model

import (
	"time"

	"github.com/google/uuid"
)

// Invoice holds the sequential receipt number minted on first capture.
type Invoice struct {
	InvoiceID            uuid.UUID `gorm:"column:invoice_id;type:uuid;default:gen_random_uuid();primaryKey" json:"invoice_id"`
	InvoiceNumber        string    `gorm:"column:invoice_number;type:varchar(30);index" json:"invoice_number"`
	InvoiceApplicationID uuid.UUID `gorm:"column:invoice_application_id;type:uuid;not null;index" json:"invoice_application_id"`
	InvoicePaymentID     string    `gorm:"column:invoice_payment_id;type:varchar(100)" json:"invoice_payment_id"`
	InvoiceAmount        int       `gorm:"column:invoice_amount;not null" json:"invoice_amount"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Invoice) TableName() string { return "invoices" }
