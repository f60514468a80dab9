package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Constants ===================== */

const (
	PromocodeStatusActive   = "Active"
	PromocodeStatusInactive = "Inactive"
	PromocodeStatusUpcoming = "Upcoming"
	PromocodeStatusExpired  = "Expired"
)

/* ===================== Model ===================== */

// Redemption is one applied_by entry. The reconciliation engine guards
// against recording the same application twice for a code.
type Redemption struct {
	StudentID     uuid.UUID `json:"student_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	CourseID      uuid.UUID `json:"course_id"`
	CourseFee     int       `json:"course_fee"`
}

type Promocode struct {
	PromocodeID uuid.UUID `gorm:"column:promocode_id;type:uuid;default:gen_random_uuid();primaryKey" json:"promocode_id"`

	PromocodeCollegeID uuid.UUID `gorm:"column:promocode_college_id;type:uuid;not null;index" json:"promocode_college_id"`

	PromocodeCode     string `gorm:"column:promocode_code;type:varchar(60);not null;unique" json:"promocode_code"`
	PromocodeDiscount int    `gorm:"column:promocode_discount;not null;check:promocode_discount >= 0 AND promocode_discount <= 100" json:"promocode_discount"`

	PromocodeStartDate time.Time `gorm:"column:promocode_start_date;not null" json:"promocode_start_date"`
	PromocodeEndDate   time.Time `gorm:"column:promocode_end_date;not null" json:"promocode_end_date"`

	// applied_count <= units, enforced by the redeem filter.
	PromocodeUnits        int `gorm:"column:promocode_units;not null" json:"promocode_units"`
	PromocodeAppliedCount int `gorm:"column:promocode_applied_count;not null;default:0" json:"promocode_applied_count"`

	// Empty means open to everyone.
	PromocodeSegmentIDs pq.StringArray `gorm:"column:promocode_segment_ids;type:text[]" json:"promocode_segment_ids"`

	// Explicit kill switch; Active/Upcoming/Expired are derived from dates.
	PromocodeInactive bool `gorm:"column:promocode_inactive;not null;default:false" json:"promocode_inactive"`

	PromocodeAppliedBy datatypes.JSONSlice[Redemption] `gorm:"column:promocode_applied_by;type:jsonb;default:'[]'" json:"promocode_applied_by"`

	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Promocode) TableName() string { return "promocodes" }

/* ===================== Helpers ===================== */

// DerivedStatus resolves the display status from the kill switch and the
// date window.
func (p *Promocode) DerivedStatus(now time.Time) string {
	if p.PromocodeInactive {
		return PromocodeStatusInactive
	}
	if now.Before(p.PromocodeStartDate) {
		return PromocodeStatusUpcoming
	}
	if now.After(p.PromocodeEndDate) {
		return PromocodeStatusExpired
	}
	return PromocodeStatusActive
}

func (p *Promocode) HasCapacity() bool {
	return p.PromocodeAppliedCount < p.PromocodeUnits
}

func (p *Promocode) AlreadyAppliedTo(applicationID uuid.UUID) bool {
	for _, r := range []Redemption(p.PromocodeAppliedBy) {
		if r.ApplicationID == applicationID {
			return true
		}
	}
	return false
}
