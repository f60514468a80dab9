package controller

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	"admissionsdesk_backend/internals/features/admissions/applications/dto"
	"admissionsdesk_backend/internals/features/admissions/applications/model"
	"admissionsdesk_backend/internals/features/admissions/applications/service"
	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
	payService "admissionsdesk_backend/internals/features/payment/payments/service"
	helper "admissionsdesk_backend/internals/helpers"
)

type ApplicationController struct {
	DB         *gorm.DB
	Dispatcher payService.Dispatcher
}

func NewApplicationController(db *gorm.DB, dispatcher payService.Dispatcher) *ApplicationController {
	return &ApplicationController{DB: db, Dispatcher: dispatcher}
}

// profileStages are the stages a profile-section save may claim. Payment
// capture, documents-uploaded and the final declaration travel their
// own gated paths.
var profileStages = map[float64]bool{
	constants.StageBasicDetails:     true,
	constants.StageParentsDetails:   true,
	constants.StageAddress:          true,
	constants.StageEducationDetails: true,
}

/*
	========================================================
	  Create / read
========================================================
*/

// POST /api/u/applications
func (ctrl *ApplicationController) CreateApplication(c *fiber.Ctx) error {
	var body dto.CreateApplicationRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	studentID, _ := uuid.Parse(body.StudentID)
	courseID, _ := uuid.Parse(body.CourseID)
	collegeID, _ := uuid.Parse(body.CollegeID)

	var student dirModel.Student
	if err := ctrl.DB.Where("student_id = ?", studentID).First(&student).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Student not found")
	}
	var course dirModel.Course
	if err := ctrl.DB.Where("course_id = ? AND course_college_id = ?", courseID, collegeID).First(&course).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Course not found for this college")
	}
	var college dirModel.College
	if err := ctrl.DB.Where("college_id = ?", collegeID).First(&college).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "College not found")
	}

	// one live application per student+course
	var existing model.Application
	err := ctrl.DB.Where("application_student_id = ? AND application_course_id = ?", studentID, courseID).
		First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "An application for this course already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not check existing applications")
	}

	prefs := make([]model.Preference, 0, len(body.Preferences))
	names := make([]string, 0, len(body.Preferences))
	for _, p := range body.Preferences {
		prefs = append(prefs, model.Preference{Specialization: p.Specialization, Rank: p.Rank})
		names = append(names, p.Specialization)
	}

	fee, _ := payService.CalculateApplicationFee(names, college.CollegeFeeRules.Data(), course.CourseName)

	app := model.Application{
		ApplicationStudentID:      studentID,
		ApplicationCourseID:       courseID,
		ApplicationCollegeID:      collegeID,
		ApplicationCurrentStage:   constants.StageEnquiry,
		ApplicationPreferenceInfo: datatypes.NewJSONSlice(prefs),
		ApplicationFee:            fee,
	}
	if err := ctrl.DB.Create(&app).Error; err != nil {
		log.Println("[ERROR] application create failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not create application")
	}

	ctrl.dispatchStageTimeline(&app, constants.StageEnquiry)

	return helper.JsonCreated(c, "Application created", app)
}

// GET /api/u/applications/:application_id
func (ctrl *ApplicationController) GetApplication(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var app model.Application
	if err := ctrl.DB.Where("application_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load application")
	}
	return helper.JsonOK(c, "Application loaded", app)
}

// GET /api/u/applications/by-student/:student_id
func (ctrl *ApplicationController) GetApplicationsByStudent(c *fiber.Ctx) error {
	studentID, err := helper.ParseUUIDParam(c, "student_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "student_id is not a valid UUID")
	}

	var apps []model.Application
	if err := ctrl.DB.Where("application_student_id = ?", studentID).
		Order("created_at DESC").Find(&apps).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load applications")
	}
	return helper.JsonOK(c, "Applications loaded", apps)
}

// GET /api/a/applications — paginated operator listing, optional stage filter
func (ctrl *ApplicationController) ListApplications(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctrl.DB.Model(&model.Application{})
	if stage := c.QueryFloat("stage"); stage > 0 {
		q = q.Where("application_current_stage = ?", stage)
	}
	if collegeID := helper.GetCollegeUUID(c); collegeID != uuid.Nil {
		q = q.Where("application_college_id = ?", collegeID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not count applications")
	}

	var apps []model.Application
	if err := q.Order("created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&apps).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load applications")
	}

	return helper.JsonList(c, "Applications loaded", apps,
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

/*
	========================================================
	  Stage progression
========================================================
*/

// PATCH /api/u/applications/:application_id/stage
func (ctrl *ApplicationController) AdvanceStage(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var body dto.AdvanceStageRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var won bool
	switch {
	case profileStages[body.Stage]:
		won, err = service.AdvanceStage(ctrl.DB, appID, body.Stage)
	case body.Stage == constants.StageDeclared:
		// declaration only follows documents-uploaded
		won, err = service.DeclareApplication(ctrl.DB, appID)
	default:
		return fiber.NewError(fiber.StatusUnprocessableEntity,
			fmt.Sprintf("Stage %.2f cannot be set directly", body.Stage))
	}
	if err != nil {
		log.Println("[ERROR] stage advance failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not advance stage")
	}
	if !won {
		// already at or past the candidate; the call is a no-op, not a failure
		return helper.JsonOK(c, "Stage unchanged", fiber.Map{"advanced": false, "stage": body.Stage})
	}

	ctrl.dispatchStageTimelineByID(appID, body.Stage)

	return helper.JsonOK(c, "Stage advanced", fiber.Map{"advanced": true, "stage": body.Stage})
}

// PATCH /api/u/applications/:application_id/documents-uploaded
func (ctrl *ApplicationController) MarkDocumentsUploaded(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	won, err := service.AdvanceStageAfterUpload(ctrl.DB, appID, constants.StageDocumentsUploaded)
	if err != nil {
		log.Println("[ERROR] documents-uploaded advance failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not advance stage")
	}
	if !won {
		return fiber.NewError(fiber.StatusConflict,
			"Documents can only be marked uploaded right after the fee is captured")
	}

	ctrl.dispatchStageTimelineByID(appID, constants.StageDocumentsUploaded)

	return helper.JsonOK(c, "Documents recorded, stage advanced", fiber.Map{
		"advanced": true,
		"stage":    constants.StageDocumentsUploaded,
	})
}

// PATCH /api/a/applications/:application_id/stage — unconditional, auditable
func (ctrl *ApplicationController) ForceStage(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var body dto.ForceStageRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if constants.StageLabel(body.Stage) == "Unknown" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Unknown stage value")
	}

	if err := service.ForceStage(ctrl.DB, appID, body.Stage); err != nil {
		log.Println("[ERROR] force stage failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not set stage")
	}

	log.Printf("[WARN] stage forced to %.2f on application %s: %s", body.Stage, appID, body.Reason)
	return helper.JsonOK(c, "Stage set", fiber.Map{"stage": body.Stage})
}

/*
	========================================================
	  Preferences
========================================================
*/

// PUT /api/u/applications/:application_id/preferences
//
// The fee is derived from preferences, so they freeze once payment starts.
func (ctrl *ApplicationController) UpdatePreferences(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var body dto.UpdatePreferencesRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var app model.Application
	if err := ctrl.DB.Where("application_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load application")
	}
	if app.ApplicationPaymentInitiated || app.IsPaid() {
		return fiber.NewError(fiber.StatusConflict, "Preferences are locked once payment has started")
	}

	var college dirModel.College
	if err := ctrl.DB.Where("college_id = ?", app.ApplicationCollegeID).First(&college).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "College not found")
	}
	var course dirModel.Course
	if err := ctrl.DB.Where("course_id = ?", app.ApplicationCourseID).First(&course).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Course not found")
	}

	prefs := make([]model.Preference, 0, len(body.Preferences))
	names := make([]string, 0, len(body.Preferences))
	for _, p := range body.Preferences {
		prefs = append(prefs, model.Preference{Specialization: p.Specialization, Rank: p.Rank})
		names = append(names, p.Specialization)
	}
	fee, _ := payService.CalculateApplicationFee(names, college.CollegeFeeRules.Data(), course.CourseName)

	updates := map[string]interface{}{
		"application_preference_info": datatypes.NewJSONSlice(prefs),
		"application_fee":             fee,
	}
	if err := ctrl.DB.Model(&model.Application{}).
		Where("application_id = ? AND application_payment_initiated = false", appID).
		Updates(updates).Error; err != nil {
		log.Println("[ERROR] preferences update failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not update preferences")
	}

	return helper.JsonOK(c, "Preferences updated", fiber.Map{
		"preferences":     prefs,
		"application_fee": fee,
	})
}

/* ===================== Timeline helpers ===================== */

func (ctrl *ApplicationController) dispatchStageTimelineByID(appID uuid.UUID, stage float64) {
	var app model.Application
	if err := ctrl.DB.Where("application_id = ?", appID).First(&app).Error; err != nil {
		log.Printf("[WARN] timeline skipped, application %s reload failed: %v", appID, err)
		return
	}
	ctrl.dispatchStageTimeline(&app, stage)
}

func (ctrl *ApplicationController) dispatchStageTimeline(app *model.Application, stage float64) {
	if ctrl.Dispatcher == nil {
		return
	}
	ctrl.Dispatcher.Dispatch(constants.DispatchTimelineEvent, map[string]interface{}{
		"student_id":     app.ApplicationStudentID.String(),
		"application_id": app.ApplicationID.String(),
		"college_id":     app.ApplicationCollegeID.String(),
		"event_type":     "Stage",
		"event_status":   "Done",
		"message":        constants.StageLabel(stage),
	})
}
