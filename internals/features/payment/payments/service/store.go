package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	"admissionsdesk_backend/internals/features/payment/payments/model"
)

/*
	========================================================
	  Payment record store

	One row per distinct attempt/order. Matching is by
	payment_id once it is known; sentinel rows (offline,
	codes) and order-created-not-yet-paid rows match by
	order_id.
========================================================
*/

// UpsertAttempt inserts or updates the payment row for a fact. Insert sets
// attempt_time; update never rewrites it. Every status write also sets the
// status-named timestamp. Calling twice with the same (payment_id, status)
// only refreshes metadata.
func UpsertAttempt(tx *gorm.DB, fact *PaymentFact, userID, collegeID uuid.UUID) (*model.Payment, error) {
	var row model.Payment

	q := tx.Model(&model.Payment{})
	if fact.PaymentID != "" && fact.PaymentID != constants.SentinelPaymentID {
		q = q.Where("payment_id = ?", fact.PaymentID)
	} else {
		q = q.Where("order_id = ? AND payment_id = ?", fact.OrderID, constants.SentinelPaymentID)
	}

	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && fact.OrderID != "" {
		// first gateway event for an order created earlier: the row still
		// carries the sentinel payment id
		err = tx.Model(&model.Payment{}).
			Where("order_id = ? AND payment_id = ?", fact.OrderID, constants.SentinelPaymentID).
			First(&row).Error
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return insertAttempt(tx, fact, userID, collegeID)
	case err != nil:
		return nil, err
	}

	updates := map[string]interface{}{
		"payment_status": fact.Status,
	}
	setStatusTimestamp(updates, fact.Status, fact.At)

	if fact.PaidAmount > 0 {
		updates["payment_paid_amount"] = fact.PaidAmount
	}
	if fact.PaymentID != "" && row.PaymentID != fact.PaymentID {
		// order row learned its gateway payment id
		updates["payment_id"] = fact.PaymentID
	}
	if fact.PaymentMethod != "" && row.PaymentMethod != fact.PaymentMethod {
		updates["payment_method"] = fact.PaymentMethod
	}
	if fact.ErrorCode != nil {
		updates["payment_error_code"] = *fact.ErrorCode
		updates["payment_error_at"] = fact.At
	}
	if fact.ErrorDescription != nil {
		updates["payment_error_description"] = *fact.ErrorDescription
	}
	if fact.Promocode != nil {
		updates["used_promocode"] = *fact.Promocode
	}
	if fact.Voucher != nil {
		updates["used_voucher"] = *fact.Voucher
	}

	if err := tx.Model(&row).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func insertAttempt(tx *gorm.DB, fact *PaymentFact, userID, collegeID uuid.UUID) (*model.Payment, error) {
	paymentID := fact.PaymentID
	if paymentID == "" {
		paymentID = constants.SentinelPaymentID
	}

	row := model.Payment{
		PaymentID:               paymentID,
		OrderID:                 fact.OrderID,
		PaymentUserID:           userID,
		PaymentApplicationID:    fact.ApplicationID,
		PaymentCollegeID:        collegeID,
		PaymentStatus:           fact.Status,
		PaymentAttemptTime:      fact.At,
		PaymentOrderAmount:      fact.OrderAmount,
		PaymentPaidAmount:       fact.PaidAmount,
		PaymentMethod:           fact.PaymentMethod,
		UsedPromocode:           fact.Promocode,
		UsedVoucher:             fact.Voucher,
		PaymentDevice:           fact.PaymentDevice,
		DeviceOS:                fact.DeviceOS,
		PaymentMerchant:         fact.Merchant,
		PaymentErrorCode:        fact.ErrorCode,
		PaymentErrorDescription: fact.ErrorDescription,
		PaymentReason:           fact.Reason,
	}
	if len(fact.Attachments) > 0 {
		row.PaymentAttachments = datatypes.JSONSlice[string](fact.Attachments)
	}
	applyStatusTimestamp(&row, fact.Status, fact.At)

	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func setStatusTimestamp(updates map[string]interface{}, status string, at time.Time) {
	switch status {
	case constants.PaymentStatusCaptured:
		updates["payment_captured_at"] = at
	case constants.PaymentStatusRefunded:
		updates["payment_refunded_at"] = at
	case constants.PaymentStatusFailed:
		updates["payment_failed_at"] = at
	}
}

func applyStatusTimestamp(row *model.Payment, status string, at time.Time) {
	t := at
	switch status {
	case constants.PaymentStatusCaptured:
		row.PaymentCapturedAt = &t
	case constants.PaymentStatusRefunded:
		row.PaymentRefundedAt = &t
	case constants.PaymentStatusFailed:
		row.PaymentFailedAt = &t
	}
}

/* ===================== Lookups ===================== */

func FindByPaymentID(db *gorm.DB, paymentID string) (*model.Payment, error) {
	var row model.Payment
	if err := db.Where("payment_id = ?", paymentID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func FindByOrderID(db *gorm.DB, orderID string) (*model.Payment, error) {
	var row model.Payment
	if err := db.Where("order_id = ?", orderID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func FindByApplicationID(db *gorm.DB, applicationID uuid.UUID) ([]model.Payment, error) {
	var rows []model.Payment
	err := db.Where("payment_application_id = ?", applicationID).
		Order("payment_attempt_time DESC").
		Find(&rows).Error
	return rows, err
}
