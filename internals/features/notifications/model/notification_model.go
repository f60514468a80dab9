package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationEvent feeds the in-app notification center.
type NotificationEvent struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;default:gen_random_uuid();primaryKey" json:"notification_id"`

	NotificationStudentID     uuid.UUID `gorm:"column:notification_student_id;type:uuid;not null;index" json:"notification_student_id"`
	NotificationApplicationID uuid.UUID `gorm:"column:notification_application_id;type:uuid;not null;index" json:"notification_application_id"`
	NotificationCollegeID     uuid.UUID `gorm:"column:notification_college_id;type:uuid;not null;index" json:"notification_college_id"`

	NotificationTitle string `gorm:"column:notification_title;type:varchar(160);not null" json:"notification_title"`
	NotificationBody  string `gorm:"column:notification_body;type:text;not null" json:"notification_body"`
	NotificationRead  bool   `gorm:"column:notification_read;not null;default:false" json:"notification_read"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (NotificationEvent) TableName() string { return "notifications" }
