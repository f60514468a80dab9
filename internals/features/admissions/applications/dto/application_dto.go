package dto

import (
	"github.com/go-playground/validator/v10"
)

/* ===================== Requests ===================== */

type CreateApplicationRequest struct {
	StudentID   string              `json:"student_id" validate:"required,uuid"`
	CourseID    string              `json:"course_id" validate:"required,uuid"`
	CollegeID   string              `json:"college_id" validate:"required,uuid"`
	Preferences []PreferenceRequest `json:"preferences" validate:"omitempty,min=1,dive"`
}

type PreferenceRequest struct {
	Specialization string `json:"specialization" validate:"required,min=2,max=120"`
	Rank           int    `json:"rank" validate:"gte=0"`
}

func (r *CreateApplicationRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

type UpdatePreferencesRequest struct {
	Preferences []PreferenceRequest `json:"preferences" validate:"required,min=1,dive"`
}

func (r *UpdatePreferencesRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

// AdvanceStageRequest carries the stage a profile-section save wants to move
// the pipeline to. The value must be one of the stage vocabulary; the
// payment-captured stage is owned by reconciliation and rejected here.
type AdvanceStageRequest struct {
	Stage float64 `json:"stage" validate:"required,gt=0"`
}

func (r *AdvanceStageRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

type ForceStageRequest struct {
	Stage  float64 `json:"stage" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required,min=3"`
}

func (r *ForceStageRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}
