package dto

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

/* ===================== Requests ===================== */

type CreatePromocodeRequest struct {
	Code       string    `json:"code" validate:"required,min=3,max=60,uppercase"`
	Discount   int       `json:"discount" validate:"required,gte=1,lte=100"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	Units      int       `json:"units" validate:"required,gte=1"`
	SegmentIDs []string  `json:"segment_ids" validate:"omitempty,dive,uuid"`
}

func (r *CreatePromocodeRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(r); err != nil {
		return err
	}
	if !r.EndDate.After(r.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

type CreateVoucherBatchRequest struct {
	Name      string    `json:"name" validate:"required,min=3,max=120"`
	Count     int       `json:"count" validate:"required,gte=1,lte=1000"`
	Prefix    string    `json:"prefix" validate:"omitempty,min=2,max=12,uppercase"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

func (r *CreateVoucherBatchRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(r); err != nil {
		return err
	}
	if !r.EndDate.After(r.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}

type VerifyCodeRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid"`
	Code          string `json:"code" validate:"required,min=3,max=60"`
}

func (r *VerifyCodeRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}
