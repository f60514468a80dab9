package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/notifications/controller"
)

// NotificationUserRoutes mounts the applicant-facing feed endpoints.
func NotificationUserRoutes(user fiber.Router, db *gorm.DB) {
	ctrl := controller.NewNotificationController(db)

	user.Get("/timeline/:application_id", ctrl.GetTimelineByApplication)
	user.Get("/notifications/:student_id", ctrl.GetNotificationsByStudent)
	user.Patch("/notifications/:notification_id/read", ctrl.MarkNotificationRead)
}
