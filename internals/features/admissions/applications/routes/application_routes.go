package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/admissions/applications/controller"
	payService "admissionsdesk_backend/internals/features/payment/payments/service"
)

// ApplicationUserRoutes mounts the applicant-facing application endpoints.
func ApplicationUserRoutes(user fiber.Router, db *gorm.DB, dispatcher payService.Dispatcher) {
	ctrl := controller.NewApplicationController(db, dispatcher)

	apps := user.Group("/applications")
	apps.Post("/", ctrl.CreateApplication)
	apps.Get("/by-student/:student_id", ctrl.GetApplicationsByStudent)
	apps.Get("/:application_id", ctrl.GetApplication)
	apps.Patch("/:application_id/stage", ctrl.AdvanceStage)
	apps.Patch("/:application_id/documents-uploaded", ctrl.MarkDocumentsUploaded)
	apps.Put("/:application_id/preferences", ctrl.UpdatePreferences)
}

// ApplicationAdminRoutes mounts the operator endpoints.
func ApplicationAdminRoutes(admin fiber.Router, db *gorm.DB, dispatcher payService.Dispatcher) {
	ctrl := controller.NewApplicationController(db, dispatcher)

	apps := admin.Group("/applications")
	apps.Get("/", ctrl.ListApplications)
	apps.Patch("/:application_id/stage", ctrl.ForceStage)
}
