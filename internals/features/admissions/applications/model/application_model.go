package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
)

/* ===================== Embedded payment state ===================== */

// PaymentSnapshot is the latest known payment state for the application.
// Once its status is "captured" the monetary/promocode fields are frozen
// (first capture wins); only the attempts history keeps logging.
type PaymentSnapshot struct {
	PaymentID     string     `json:"payment_id"`
	OrderID       string     `json:"order_id"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	PaymentMethod string     `json:"payment_method"`
	UsedPromocode *string    `json:"used_promocode,omitempty"`
	UsedVoucher   *string    `json:"used_voucher,omitempty"`
	PaidAmount    int        `json:"paid_amount"`
	PaymentDevice *string    `json:"payment_device,omitempty"`
	DeviceOS      *string    `json:"device_os,omitempty"`
}

// PaymentAttempt is one entry of the append-only attempt audit trail
// (newest first). Entries are mutated in place only to move the status of a
// matching payment_id, never removed.
type PaymentAttempt struct {
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	AttemptTime   time.Time `json:"attempt_time"`
	PaymentMethod string    `json:"payment_method"`
	PaidAmount    int       `json:"paid_amount"`
	UsedPromocode *string   `json:"used_promocode,omitempty"`
	UsedVoucher   *string   `json:"used_voucher,omitempty"`
}

// Preference is one course-specialization preference; order matters for the
// fee calculation only.
type Preference struct {
	Specialization string `json:"specialization"`
	Rank           int    `json:"rank"`
}

/* ===================== Model ===================== */

type Application struct {
	ApplicationID uuid.UUID `gorm:"column:application_id;type:uuid;default:gen_random_uuid();primaryKey" json:"application_id"`

	ApplicationStudentID uuid.UUID `gorm:"column:application_student_id;type:uuid;not null;index" json:"application_student_id"`
	ApplicationCourseID  uuid.UUID `gorm:"column:application_course_id;type:uuid;not null;index" json:"application_course_id"`
	ApplicationCollegeID uuid.UUID `gorm:"column:application_college_id;type:uuid;not null;index" json:"application_college_id"`

	// Monotonic non-decreasing; written only through the stage service.
	ApplicationCurrentStage float64 `gorm:"column:application_current_stage;type:numeric(4,2);not null;default:1.25" json:"application_current_stage"`

	ApplicationPaymentInitiated bool `gorm:"column:application_payment_initiated;not null;default:false" json:"application_payment_initiated"`

	ApplicationPaymentInfo     datatypes.JSONType[PaymentSnapshot] `gorm:"column:application_payment_info;type:jsonb" json:"application_payment_info"`
	ApplicationPaymentAttempts datatypes.JSONSlice[PaymentAttempt] `gorm:"column:application_payment_attempts;type:jsonb" json:"application_payment_attempts"`
	ApplicationPreferenceInfo  datatypes.JSONSlice[Preference]     `gorm:"column:application_preference_info;type:jsonb" json:"application_preference_info"`

	ApplicationFee int `gorm:"column:application_fee;not null;default:0" json:"application_fee"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Application) TableName() string { return "applications" }

/* ===================== Helpers ===================== */

func (a *Application) PaymentStatus() string {
	return a.ApplicationPaymentInfo.Data().Status
}

func (a *Application) IsPaid() bool {
	return a.PaymentStatus() == constants.PaymentStatusCaptured
}

// FindAttempt returns the index of the attempt matching paymentID, or -1.
// The sentinel payment id never matches by payment id. When no entry knows
// the payment id yet — the entry recorded at order creation predates the
// gateway assigning one — the match falls back to order id so the entry is
// updated in place instead of duplicated.
func (a *Application) FindAttempt(paymentID, orderID string) int {
	attempts := []PaymentAttempt(a.ApplicationPaymentAttempts)

	if paymentID != constants.SentinelPaymentID && paymentID != "" {
		for i := range attempts {
			if attempts[i].PaymentID == paymentID {
				return i
			}
		}
	}
	if orderID != "" {
		for i := range attempts {
			if attempts[i].OrderID == orderID {
				return i
			}
		}
	}
	return -1
}
