package controller

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
	"admissionsdesk_backend/internals/features/payment/promocodes/dto"
	"admissionsdesk_backend/internals/features/payment/promocodes/model"
	"admissionsdesk_backend/internals/features/payment/promocodes/service"
	helper "admissionsdesk_backend/internals/helpers"
)

type PromocodeController struct {
	DB     *gorm.DB
	Ledger *service.LedgerService
}

func NewPromocodeController(db *gorm.DB, ledger *service.LedgerService) *PromocodeController {
	return &PromocodeController{DB: db, Ledger: ledger}
}

/*
	========================================================
	  Promocodes (operator)
========================================================
*/

// POST /api/a/promocodes
func (ctrl *PromocodeController) CreatePromocode(c *fiber.Ctx) error {
	var body dto.CreatePromocodeRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	collegeID := helper.GetCollegeUUID(c)
	if collegeID == uuid.Nil {
		return fiber.NewError(fiber.StatusForbidden, "No college bound to this session")
	}

	promo := model.Promocode{
		PromocodeCollegeID:  collegeID,
		PromocodeCode:       strings.ToUpper(strings.TrimSpace(body.Code)),
		PromocodeDiscount:   body.Discount,
		PromocodeStartDate:  body.StartDate,
		PromocodeEndDate:    body.EndDate,
		PromocodeUnits:      body.Units,
		PromocodeSegmentIDs: pq.StringArray(body.SegmentIDs),
	}
	if err := ctrl.DB.Create(&promo).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fiber.NewError(fiber.StatusConflict, "A promocode with this code already exists")
		}
		log.Println("[ERROR] promocode create failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not create promocode")
	}

	return helper.JsonCreated(c, "Promocode created", promo)
}

// GET /api/a/promocodes — paginated, with derived status
func (ctrl *PromocodeController) ListPromocodes(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)
	collegeID := helper.GetCollegeUUID(c)

	q := ctrl.DB.Model(&model.Promocode{})
	if collegeID != uuid.Nil {
		q = q.Where("promocode_college_id = ?", collegeID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not count promocodes")
	}

	var promos []model.Promocode
	if err := q.Order("created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&promos).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load promocodes")
	}

	now := time.Now()
	items := make([]fiber.Map, 0, len(promos))
	for i := range promos {
		items = append(items, fiber.Map{
			"promocode": promos[i],
			"status":    promos[i].DerivedStatus(now),
		})
	}

	return helper.JsonList(c, "Promocodes loaded", items,
		helper.BuildPaginationFromPage(total, paging.Page, paging.PerPage))
}

// PATCH /api/a/promocodes/:promocode_id/deactivate — kill switch, immediate
func (ctrl *PromocodeController) DeactivatePromocode(c *fiber.Ctx) error {
	promoID, err := helper.ParseUUIDParam(c, "promocode_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "promocode_id is not a valid UUID")
	}

	res := ctrl.DB.Model(&model.Promocode{}).
		Where("promocode_id = ? AND promocode_inactive = false", promoID).
		Update("promocode_inactive", true)
	if res.Error != nil {
		log.Println("[ERROR] promocode deactivate failed:", res.Error)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate promocode")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Promocode not found or already inactive")
	}

	return helper.JsonOK(c, "Promocode deactivated", fiber.Map{"promocode_id": promoID})
}

/*
	========================================================
	  Voucher batches (operator)
========================================================
*/

// voucherCharset avoids 0/O and 1/I, codes get read over the phone.
const voucherCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomVoucherCode(prefix string) (string, error) {
	const bodyLen = 8
	var sb strings.Builder
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString("-")
	}
	for i := 0; i < bodyLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(voucherCharset))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(voucherCharset[n.Int64()])
	}
	return sb.String(), nil
}

// POST /api/a/vouchers/batch
func (ctrl *PromocodeController) CreateVoucherBatch(c *fiber.Ctx) error {
	var body dto.CreateVoucherBatchRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	collegeID := helper.GetCollegeUUID(c)
	if collegeID == uuid.Nil {
		return fiber.NewError(fiber.StatusForbidden, "No college bound to this session")
	}

	batch := model.VoucherBatch{
		VoucherBatchCollegeID: collegeID,
		VoucherBatchName:      body.Name,
		VoucherBatchStartDate: body.StartDate,
		VoucherBatchEndDate:   body.EndDate,
	}

	err := ctrl.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		vouchers := make([]model.Voucher, 0, body.Count)
		for i := 0; i < body.Count; i++ {
			code, err := randomVoucherCode(body.Prefix)
			if err != nil {
				return fmt.Errorf("voucher code generation: %w", err)
			}
			vouchers = append(vouchers, model.Voucher{
				VoucherBatchID: batch.VoucherBatchID,
				VoucherCode:    code,
			})
		}
		if err := tx.CreateInBatches(vouchers, 200).Error; err != nil {
			return err
		}
		batch.Vouchers = vouchers
		return nil
	})
	if err != nil {
		log.Println("[ERROR] voucher batch create failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not create voucher batch")
	}

	return helper.JsonCreated(c, fmt.Sprintf("Voucher batch created with %d codes", body.Count), batch)
}

// GET /api/a/vouchers/batch/:voucher_batch_id
func (ctrl *PromocodeController) GetVoucherBatch(c *fiber.Ctx) error {
	batchID, err := helper.ParseUUIDParam(c, "voucher_batch_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "voucher_batch_id is not a valid UUID")
	}

	var batch model.VoucherBatch
	if err := ctrl.DB.Preload("Vouchers").
		Where("voucher_batch_id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Voucher batch not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load voucher batch")
	}
	return helper.JsonOK(c, "Voucher batch loaded", batch)
}

/*
	========================================================
	  Verify (applicant)
========================================================
*/

// POST /api/u/promocodes/verify
//
// Read-only preview of what a code would do against an application's fee.
// Nothing is redeemed here; redemption happens inside payment
// reconciliation.
func (ctrl *PromocodeController) VerifyCode(c *fiber.Ctx) error {
	var body dto.VerifyCodeRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	appID, _ := uuid.Parse(body.ApplicationID)
	var app appModel.Application
	if err := ctrl.DB.Where("application_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load application")
	}

	res, err := ctrl.Ledger.Verify(body.Code, app.ApplicationFee, app.ApplicationStudentID, nil)
	if err != nil {
		log.Println("[ERROR] code verify failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not verify code")
	}

	return helper.JsonOK(c, res.Status, res)
}
