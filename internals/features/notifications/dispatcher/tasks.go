package dispatcher

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	"admissionsdesk_backend/internals/features/notifications/model"
)

// taskHandler executes one task with a single error boundary: whatever a
// task does wrong ends up in the log, never at the caller.
type taskHandler struct {
	db   *gorm.DB
	mail MailSender
}

func newTaskHandler(db *gorm.DB, mail MailSender) *taskHandler {
	if mail == nil {
		mail = LogMailSender{}
	}
	return &taskHandler{db: db, mail: mail}
}

func (h *taskHandler) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] dispatch %s panicked: %v", task.Kind, r)
		}
	}()

	var err error
	switch task.Kind {
	case constants.DispatchReceiptEmail:
		err = h.mail.SendReceiptEmail(task.Payload)
	case constants.DispatchTimelineEvent:
		err = h.recordTimelineEvent(task.Payload)
	case constants.DispatchNotificationEvent:
		err = h.recordNotification(task.Payload)
	default:
		err = fmt.Errorf("unknown task kind %q", task.Kind)
	}
	if err != nil {
		log.Printf("[ERROR] dispatch %s failed: %v", task.Kind, err)
	}
}

func (h *taskHandler) recordTimelineEvent(payload map[string]interface{}) error {
	studentID, err := uuidField(payload, "student_id")
	if err != nil {
		return err
	}
	applicationID, err := uuidField(payload, "application_id")
	if err != nil {
		return err
	}
	collegeID, err := uuidField(payload, "college_id")
	if err != nil {
		return err
	}

	event := model.TimelineEvent{
		TimelineEventStudentID:     studentID,
		TimelineEventApplicationID: applicationID,
		TimelineEventCollegeID:     collegeID,
		TimelineEventType:          strField(payload, "event_type"),
		TimelineEventStatus:        strField(payload, "event_status"),
		TimelineEventMessage:       strField(payload, "message"),
	}
	return h.db.Create(&event).Error
}

func (h *taskHandler) recordNotification(payload map[string]interface{}) error {
	studentID, err := uuidField(payload, "student_id")
	if err != nil {
		return err
	}
	applicationID, err := uuidField(payload, "application_id")
	if err != nil {
		return err
	}
	collegeID, err := uuidField(payload, "college_id")
	if err != nil {
		return err
	}

	event := model.NotificationEvent{
		NotificationStudentID:     studentID,
		NotificationApplicationID: applicationID,
		NotificationCollegeID:     collegeID,
		NotificationTitle:         strField(payload, "title"),
		NotificationBody:          strField(payload, "body"),
	}
	return h.db.Create(&event).Error
}

func strField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func uuidField(payload map[string]interface{}, key string) (uuid.UUID, error) {
	raw := strField(payload, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("payload %s: %w", key, err)
	}
	return id, nil
}
