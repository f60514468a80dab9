package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
)

/* ===================== Model ===================== */

// Payment is one row per distinct payment attempt/order. Rows are created at
// order creation or at the first event referencing an unseen payment id, and
// updated (never deleted) on every later status transition. Payments are
// retained even when the application is deleted.
type Payment struct {
	PaymentRowID uuid.UUID `gorm:"column:payment_row_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_row_id"`

	// Gateway id, or the "None" sentinel for offline/code payments.
	PaymentID string `gorm:"column:payment_id;type:varchar(100);not null;index" json:"payment_id"`
	OrderID   string `gorm:"column:order_id;type:varchar(100);not null;index" json:"order_id"`

	PaymentUserID        uuid.UUID `gorm:"column:payment_user_id;type:uuid;not null;index" json:"payment_user_id"`
	PaymentApplicationID uuid.UUID `gorm:"column:payment_application_id;type:uuid;not null;index" json:"payment_application_id"`
	PaymentCollegeID     uuid.UUID `gorm:"column:payment_college_id;type:uuid;not null;index" json:"payment_college_id"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'attempted'" json:"payment_status"`

	// attempt_time is set on insert only; the status-named timestamps below
	// move with every status change (audit-log discipline).
	PaymentAttemptTime time.Time  `gorm:"column:payment_attempt_time;not null" json:"payment_attempt_time"`
	PaymentCapturedAt  *time.Time `gorm:"column:payment_captured_at" json:"payment_captured_at,omitempty"`
	PaymentRefundedAt  *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`
	PaymentFailedAt    *time.Time `gorm:"column:payment_failed_at" json:"payment_failed_at,omitempty"`

	PaymentErrorCode        *string    `gorm:"column:payment_error_code;type:varchar(60)" json:"payment_error_code,omitempty"`
	PaymentErrorDescription *string    `gorm:"column:payment_error_description;type:text" json:"payment_error_description,omitempty"`
	PaymentErrorAt          *time.Time `gorm:"column:payment_error_at" json:"payment_error_at,omitempty"`

	PaymentMerchant *string `gorm:"column:payment_merchant;type:varchar(120)" json:"payment_merchant,omitempty"`

	// Rupees. Paise conversion happens only at the gateway boundary.
	PaymentOrderAmount int `gorm:"column:payment_order_amount;not null;default:0" json:"payment_order_amount"`
	PaymentPaidAmount  int `gorm:"column:payment_paid_amount;not null;default:0" json:"payment_paid_amount"`

	PaymentMethod string  `gorm:"column:payment_method;type:varchar(30);not null;default:'As per Flow'" json:"payment_method"`
	UsedPromocode *string `gorm:"column:used_promocode;type:varchar(60)" json:"used_promocode,omitempty"`
	UsedVoucher   *string `gorm:"column:used_voucher;type:varchar(60)" json:"used_voucher,omitempty"`

	PaymentDevice *string `gorm:"column:payment_device;type:varchar(60)" json:"payment_device,omitempty"`
	DeviceOS      *string `gorm:"column:device_os;type:varchar(60)" json:"device_os,omitempty"`

	// Offline captures only: operator note + uploaded receipt URLs.
	PaymentReason      *string                     `gorm:"column:payment_reason;type:text" json:"payment_reason,omitempty"`
	PaymentAttachments datatypes.JSONSlice[string] `gorm:"column:payment_attachments;type:jsonb" json:"payment_attachments,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsSentinel() bool {
	return p.PaymentID == "" || p.PaymentID == constants.SentinelPaymentID
}
