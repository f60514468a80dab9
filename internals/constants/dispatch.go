package constants

/* ===================== Side-effect kinds ===================== */

const (
	DispatchReceiptEmail      = "receipt_email"
	DispatchTimelineEvent     = "timeline_event"
	DispatchNotificationEvent = "notification_event"
)
