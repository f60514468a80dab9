package model

import (
	"time"

	"github.com/google/uuid"
)

// TimelineEvent is the human-readable activity feed entry counselors and
// dashboards read per application.
type TimelineEvent struct {
	TimelineEventID uuid.UUID `gorm:"column:timeline_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"timeline_event_id"`

	TimelineEventStudentID     uuid.UUID `gorm:"column:timeline_event_student_id;type:uuid;not null;index" json:"timeline_event_student_id"`
	TimelineEventApplicationID uuid.UUID `gorm:"column:timeline_event_application_id;type:uuid;not null;index" json:"timeline_event_application_id"`
	TimelineEventCollegeID     uuid.UUID `gorm:"column:timeline_event_college_id;type:uuid;not null;index" json:"timeline_event_college_id"`

	TimelineEventType    string `gorm:"column:timeline_event_type;type:varchar(60);not null" json:"timeline_event_type"`
	TimelineEventStatus  string `gorm:"column:timeline_event_status;type:varchar(30);not null" json:"timeline_event_status"`
	TimelineEventMessage string `gorm:"column:timeline_event_message;type:text;not null" json:"timeline_event_message"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TimelineEvent) TableName() string { return "timeline_events" }
