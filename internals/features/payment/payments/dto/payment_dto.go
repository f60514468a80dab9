package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

/* ===================== Requests ===================== */

type CreateOrderRequest struct {
	ApplicationID string  `json:"application_id" validate:"required,uuid"`
	Promocode     *string `json:"promocode" validate:"omitempty,min=3,max=60"`
	PaymentDevice *string `json:"payment_device" validate:"omitempty,max=60"`
	DeviceOS      *string `json:"device_os" validate:"omitempty,max=60"`
}

func (r *CreateOrderRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

type VerifyPaymentRequest struct {
	ApplicationID     string `json:"application_id" validate:"required,uuid"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

func (r *VerifyPaymentRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

type OfflineCaptureRequest struct {
	ApplicationID string   `json:"application_id" validate:"required,uuid"`
	Amount        int      `json:"amount" validate:"required,gt=0"`
	Reason        string   `json:"reason" validate:"required,min=3"`
	Attachments   []string `json:"attachments" validate:"omitempty,dive,url"`
}

func (r *OfflineCaptureRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	return v.Struct(r)
}

type ApplyCodeRequest struct {
	ApplicationID string `json:"application_id" validate:"required,uuid"`
	Code          string `json:"code" validate:"required,min=3,max=60"`
}

func (r *ApplyCodeRequest) Validate(v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(r); err != nil {
		return err
	}
	if strings.TrimSpace(r.Code) == "" {
		return errors.New("code must not be blank")
	}
	return nil
}
