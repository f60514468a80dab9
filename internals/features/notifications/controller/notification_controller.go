package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/notifications/model"
	helper "admissionsdesk_backend/internals/helpers"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GET /api/u/timeline/:application_id
func (ctrl *NotificationController) GetTimelineByApplication(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var events []model.TimelineEvent
	if err := ctrl.DB.Where("timeline_event_application_id = ?", appID).
		Order("created_at DESC").Find(&events).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load timeline")
	}
	return helper.JsonOK(c, "Timeline loaded", events)
}

// GET /api/u/notifications/:student_id
func (ctrl *NotificationController) GetNotificationsByStudent(c *fiber.Ctx) error {
	studentID, err := helper.ParseUUIDParam(c, "student_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "student_id is not a valid UUID")
	}

	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.NotificationEvent{}).
		Where("notification_student_id = ?", studentID)
	if c.QueryBool("unread") {
		q = q.Where("notification_read = false")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not count notifications")
	}

	var events []model.NotificationEvent
	if err := q.Order("created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&events).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load notifications")
	}

	return helper.JsonList(c, "Notifications loaded", events,
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/u/notifications/:notification_id/read
func (ctrl *NotificationController) MarkNotificationRead(c *fiber.Ctx) error {
	notifID, err := helper.ParseUUIDParam(c, "notification_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "notification_id is not a valid UUID")
	}

	res := ctrl.DB.Model(&model.NotificationEvent{}).
		Where("notification_id = ? AND notification_read = false", notifID).
		Update("notification_read", true)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not update notification")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Notification not found or already read")
	}
	return helper.JsonOK(c, "Notification marked read", fiber.Map{"notification_id": notifID})
}
