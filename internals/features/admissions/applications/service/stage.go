package service

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	"admissionsdesk_backend/internals/features/admissions/applications/model"
)

/*
	========================================================
	  Stage tracker

	current_stage only moves forward. The advance is a single
	conditional UPDATE so that two concurrent webhook
	deliveries cannot both read the old stage and both win;
	the loser simply matches zero rows.
========================================================
*/

// ShouldAdvance is the monotonic rule on its own.
func ShouldAdvance(current, candidate float64) bool {
	return candidate > current
}

// ShouldAdvanceFrom gates transitions that are only legal from one
// specific stage.
func ShouldAdvanceFrom(current, from, candidate float64) bool {
	return current == from && candidate > current
}

// ShouldAdvanceAfterUpload gates the documents-uploaded transition: it is
// only legal directly from the payment-captured stage.
func ShouldAdvanceAfterUpload(current, candidate float64) bool {
	return ShouldAdvanceFrom(current, constants.StagePaymentCaptured, candidate)
}

// ShouldDeclare gates the declaration: it is only legal once the
// documents are in.
func ShouldDeclare(current float64) bool {
	return ShouldAdvanceFrom(current, constants.StageDocumentsUploaded, constants.StageDeclared)
}

// AdvanceStage moves the application forward iff candidate is strictly
// greater than the stored stage. Returns whether this call won the advance.
func AdvanceStage(db *gorm.DB, applicationID uuid.UUID, candidate float64) (bool, error) {
	res := db.Model(&model.Application{}).
		Where("application_id = ? AND application_current_stage < ?", applicationID, candidate).
		Update("application_current_stage", candidate)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdvanceStageFrom applies a single-origin transition atomically: the
// UPDATE only matches while the stored stage is exactly `from`.
func AdvanceStageFrom(db *gorm.DB, applicationID uuid.UUID, from, candidate float64) (bool, error) {
	res := db.Model(&model.Application{}).
		Where("application_id = ? AND application_current_stage = ? AND ? > application_current_stage",
			applicationID, from, candidate).
		Update("application_current_stage", candidate)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdvanceStageAfterUpload applies the upload special case atomically.
func AdvanceStageAfterUpload(db *gorm.DB, applicationID uuid.UUID, candidate float64) (bool, error) {
	return AdvanceStageFrom(db, applicationID, constants.StagePaymentCaptured, candidate)
}

// DeclareApplication moves documents-uploaded to declared atomically.
func DeclareApplication(db *gorm.DB, applicationID uuid.UUID) (bool, error) {
	return AdvanceStageFrom(db, applicationID, constants.StageDocumentsUploaded, constants.StageDeclared)
}

// ForceStage sets the stage unconditionally. Admin tooling only; the
// reconciliation engine never calls this.
func ForceStage(db *gorm.DB, applicationID uuid.UUID, stage float64) error {
	return db.Model(&model.Application{}).
		Where("application_id = ?", applicationID).
		Update("application_current_stage", stage).Error
}
