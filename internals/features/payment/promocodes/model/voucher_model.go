package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Model ===================== */

// VoucherBatch groups single-use flat-discount codes issued together.
type VoucherBatch struct {
	VoucherBatchID        uuid.UUID `gorm:"column:voucher_batch_id;type:uuid;default:gen_random_uuid();primaryKey" json:"voucher_batch_id"`
	VoucherBatchCollegeID uuid.UUID `gorm:"column:voucher_batch_college_id;type:uuid;not null;index" json:"voucher_batch_college_id"`
	VoucherBatchName      string    `gorm:"column:voucher_batch_name;type:varchar(120);not null" json:"voucher_batch_name"`

	VoucherBatchStartDate time.Time `gorm:"column:voucher_batch_start_date;not null" json:"voucher_batch_start_date"`
	VoucherBatchEndDate   time.Time `gorm:"column:voucher_batch_end_date;not null" json:"voucher_batch_end_date"`

	Vouchers []Voucher `gorm:"foreignKey:VoucherBatchID;references:VoucherBatchID" json:"vouchers,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (VoucherBatch) TableName() string { return "voucher_batches" }

// Voucher is redeemed exactly once: the redeem UPDATE filters on
// code AND used=false, so a concurrent duplicate matches zero rows.
type Voucher struct {
	VoucherID      uuid.UUID `gorm:"column:voucher_id;type:uuid;default:gen_random_uuid();primaryKey" json:"voucher_id"`
	VoucherBatchID uuid.UUID `gorm:"column:voucher_batch_id;type:uuid;not null;index" json:"voucher_batch_id"`

	VoucherCode string `gorm:"column:voucher_code;type:varchar(60);not null;unique" json:"voucher_code"`
	VoucherUsed bool   `gorm:"column:voucher_used;not null;default:false" json:"voucher_used"`

	VoucherUsedByStudent     *uuid.UUID `gorm:"column:voucher_used_by_student;type:uuid" json:"voucher_used_by_student,omitempty"`
	VoucherUsedByApplication *uuid.UUID `gorm:"column:voucher_used_by_application;type:uuid" json:"voucher_used_by_application,omitempty"`
	VoucherUsedAt            *time.Time `gorm:"column:voucher_used_at" json:"voucher_used_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Voucher) TableName() string { return "vouchers" }
