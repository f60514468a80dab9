package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
	========================================================
	  Read-side entities

	The admissions core only reads these (name, fee rules,
	segment membership). Their own CRUD lives in other
	services.
========================================================
*/

type Student struct {
	StudentID        uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentCollegeID uuid.UUID `gorm:"column:student_college_id;type:uuid;not null;index" json:"student_college_id"`
	StudentName      string    `gorm:"column:student_name;type:varchar(120);not null" json:"student_name"`
	StudentEmail     *string   `gorm:"column:student_email;type:varchar(120)" json:"student_email,omitempty"`
	StudentPhone     *string   `gorm:"column:student_phone;type:varchar(20)" json:"student_phone,omitempty"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Student) TableName() string { return "students" }

type Course struct {
	CourseID        uuid.UUID `gorm:"column:course_id;type:uuid;default:gen_random_uuid();primaryKey" json:"course_id"`
	CourseCollegeID uuid.UUID `gorm:"column:course_college_id;type:uuid;not null;index" json:"course_college_id"`
	CourseName      string    `gorm:"column:course_name;type:varchar(120);not null" json:"course_name"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "courses" }

/* ===================== Fee rules ===================== */

// AdditionalFeeRule adds a per-extra-preference surcharge once the number of
// chosen preferences reaches TriggerCount.
type AdditionalFeeRule struct {
	TriggerCount int `json:"trigger_count"`
	Amount       int `json:"amount"`
}

// FeeRules is stored as JSONB on the college row. BaseFees maps
// course name → first preference → rupee fee.
type FeeRules struct {
	BaseFees       map[string]map[string]int `json:"base_fees"`
	AdditionalFees []AdditionalFeeRule       `json:"additional_fees"`
	FeeCap         int                       `json:"fee_cap"`
}

type College struct {
	CollegeID       uuid.UUID                    `gorm:"column:college_id;type:uuid;default:gen_random_uuid();primaryKey" json:"college_id"`
	CollegeName     string                       `gorm:"column:college_name;type:varchar(120);not null" json:"college_name"`
	CollegeMerchant *string                      `gorm:"column:college_merchant;type:varchar(120)" json:"college_merchant,omitempty"`
	CollegeFeeRules datatypes.JSONType[FeeRules] `gorm:"column:college_fee_rules;type:jsonb" json:"college_fee_rules"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (College) TableName() string { return "colleges" }

/* ===================== Segments ===================== */

// Segments restrict promocode eligibility to named student cohorts.

type SegmentMember struct {
	SegmentMemberID uuid.UUID `gorm:"column:segment_member_id;type:uuid;default:gen_random_uuid();primaryKey" json:"segment_member_id"`
	SegmentID       uuid.UUID `gorm:"column:segment_id;type:uuid;not null;index:idx_segment_members_pair" json:"segment_id"`
	StudentID       uuid.UUID `gorm:"column:student_id;type:uuid;not null;index:idx_segment_members_pair" json:"student_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SegmentMember) TableName() string { return "segment_members" }
