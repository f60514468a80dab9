package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
	"admissionsdesk_backend/internals/features/payment/promocodes/model"
)

/*
	========================================================
	  Promocode/Voucher ledger

	Verify answers "what would this code be worth" with a
	status string (expired/foreign codes are expected
	outcomes, not errors). Redeem records the spend exactly
	once via conditional UPDATE filters.
========================================================
*/

const (
	CodeTypePromocode = "Promocode"
	CodeTypeVoucher   = "Voucher"
)

type VerifyResult struct {
	Status   string `json:"status"`
	Type     string `json:"type,omitempty"`
	Discount int    `json:"discount,omitempty"` // percent
	Amount   int    `json:"amount"`             // payable after discount, rupees
}

var ErrCodeSpent = errors.New("code already spent")

type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

/* ===================== Verify ===================== */

// Verify checks code existence, date window, capacity and segment
// eligibility, and computes the payable amount. preferenceFee, when set,
// limits the discount to the first-preference fee component.
func (s *LedgerService) Verify(code string, courseFee int, studentID uuid.UUID, preferenceFee *int) (VerifyResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return VerifyResult{Status: constants.CodeStatusInvalid, Amount: courseFee}, nil
	}

	now := time.Now()

	var promo model.Promocode
	err := s.DB.Where("promocode_code = ?", code).First(&promo).Error
	switch {
	case err == nil:
		return s.verifyPromocode(&promo, courseFee, studentID, preferenceFee, now)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to vouchers
	default:
		return VerifyResult{}, err
	}

	var voucher model.Voucher
	err = s.DB.Where("voucher_code = ?", code).First(&voucher).Error
	switch {
	case err == nil:
		return s.verifyVoucher(&voucher, now)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return VerifyResult{Status: constants.CodeStatusInvalid, Amount: courseFee}, nil
	default:
		return VerifyResult{}, err
	}
}

func (s *LedgerService) verifyPromocode(promo *model.Promocode, courseFee int, studentID uuid.UUID, preferenceFee *int, now time.Time) (VerifyResult, error) {
	if promo.DerivedStatus(now) != model.PromocodeStatusActive {
		return VerifyResult{Status: constants.CodeStatusInvalid, Amount: courseFee}, nil
	}
	// Capacity exhausted behaves as Invalid even inside the date window.
	if !promo.HasCapacity() {
		return VerifyResult{Status: constants.CodeStatusInvalid, Amount: courseFee}, nil
	}

	if len(promo.PromocodeSegmentIDs) > 0 {
		member, err := s.isSegmentMember(studentID, promo.PromocodeSegmentIDs)
		if err != nil {
			return VerifyResult{}, err
		}
		if !member {
			return VerifyResult{Status: constants.CodeStatusNotApplicable, Amount: courseFee}, nil
		}
	}

	return VerifyResult{
		Status:   constants.CodeStatusApplied,
		Type:     CodeTypePromocode,
		Discount: promo.PromocodeDiscount,
		Amount:   DiscountedAmount(courseFee, preferenceFee, promo.PromocodeDiscount),
	}, nil
}

func (s *LedgerService) verifyVoucher(voucher *model.Voucher, now time.Time) (VerifyResult, error) {
	if voucher.VoucherUsed {
		return VerifyResult{Status: constants.CodeStatusInvalid}, nil
	}

	var batch model.VoucherBatch
	if err := s.DB.Where("voucher_batch_id = ?", voucher.VoucherBatchID).First(&batch).Error; err != nil {
		return VerifyResult{}, err
	}
	if now.Before(batch.VoucherBatchStartDate) || now.After(batch.VoucherBatchEndDate) {
		return VerifyResult{Status: constants.CodeStatusInvalid}, nil
	}

	// Vouchers waive the full fee.
	return VerifyResult{
		Status:   constants.CodeStatusApplied,
		Type:     CodeTypeVoucher,
		Discount: 100,
		Amount:   0,
	}, nil
}

func (s *LedgerService) isSegmentMember(studentID uuid.UUID, segmentIDs []string) (bool, error) {
	ids := make([]uuid.UUID, 0, len(segmentIDs))
	for _, raw := range segmentIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			log.Printf("[WARN] promocode segment id %q is not a UUID, skipped", raw)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return false, nil
	}

	var count int64
	err := s.DB.Model(&dirModel.SegmentMember{}).
		Where("student_id = ? AND segment_id IN ?", studentID, ids).
		Count(&count).Error
	return count > 0, err
}

/* ===================== Amount math ===================== */

// DiscountedAmount applies the percent discount. With a preference fee the
// discount covers only the first-preference component; the remaining
// surcharge is added back undiscounted.
func DiscountedAmount(courseFee int, preferenceFee *int, discount int) int {
	if preferenceFee != nil && *preferenceFee > 0 && *preferenceFee < courseFee {
		return *preferenceFee*(100-discount)/100 + (courseFee - *preferenceFee)
	}
	return courseFee - courseFee*discount/100
}

/* ===================== Redeem ===================== */

// RedeemPromocode appends the redemption and bumps the counter in one
// UPDATE. The filter rejects exhausted codes and applications already on the
// ledger, so a webhook retry is a no-op with ErrCodeSpent.
func (s *LedgerService) RedeemPromocode(tx *gorm.DB, code string, red model.Redemption) error {
	entry, err := json.Marshal([]model.Redemption{red})
	if err != nil {
		return err
	}
	guard, err := json.Marshal([]map[string]uuid.UUID{{"application_id": red.ApplicationID}})
	if err != nil {
		return err
	}

	res := tx.Model(&model.Promocode{}).
		Where("promocode_code = ? AND promocode_applied_count < promocode_units AND NOT (promocode_applied_by @> ?::jsonb)",
			code, string(guard)).
		Updates(map[string]interface{}{
			"promocode_applied_count": gorm.Expr("promocode_applied_count + 1"),
			"promocode_applied_by":    gorm.Expr("promocode_applied_by || ?::jsonb", string(entry)),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("promocode %s: %w", code, ErrCodeSpent)
	}
	return nil
}

// RedeemVoucher flips used=false → true for exactly one caller.
func (s *LedgerService) RedeemVoucher(tx *gorm.DB, code string, studentID, applicationID uuid.UUID) error {
	now := time.Now()
	res := tx.Model(&model.Voucher{}).
		Where("voucher_code = ? AND voucher_used = false", code).
		Updates(map[string]interface{}{
			"voucher_used":                true,
			"voucher_used_by_student":     studentID,
			"voucher_used_by_application": applicationID,
			"voucher_used_at":             now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("voucher %s: %w", code, ErrCodeSpent)
	}
	return nil
}

// VoucherSpentBy reports whether a spent voucher was spent by the given
// application. Distinguishes a replayed redeem (benign) from losing the
// code to someone else.
func (s *LedgerService) VoucherSpentBy(tx *gorm.DB, code string, applicationID uuid.UUID) (bool, error) {
	var voucher model.Voucher
	if err := tx.Where("voucher_code = ?", code).First(&voucher).Error; err != nil {
		return false, err
	}
	return voucher.VoucherUsedByApplication != nil && *voucher.VoucherUsedByApplication == applicationID, nil
}
