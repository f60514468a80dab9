package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/payment/promocodes/controller"
	"admissionsdesk_backend/internals/features/payment/promocodes/service"
	"admissionsdesk_backend/internals/middlewares"
)

// PromocodeUserRoutes mounts the applicant-facing verify endpoint.
func PromocodeUserRoutes(user fiber.Router, db *gorm.DB, ledger *service.LedgerService) {
	ctrl := controller.NewPromocodeController(db, ledger)

	user.Post("/promocodes/verify", middlewares.PromocodeRateLimiter(), ctrl.VerifyCode)
}

// PromocodeAdminRoutes mounts the operator endpoints for promocodes and
// voucher batches.
func PromocodeAdminRoutes(admin fiber.Router, db *gorm.DB, ledger *service.LedgerService) {
	ctrl := controller.NewPromocodeController(db, ledger)

	promo := admin.Group("/promocodes")
	promo.Post("/", ctrl.CreatePromocode)
	promo.Get("/", ctrl.ListPromocodes)
	promo.Patch("/:promocode_id/deactivate", ctrl.DeactivatePromocode)

	vouchers := admin.Group("/vouchers")
	vouchers.Post("/batch", ctrl.CreateVoucherBatch)
	vouchers.Get("/batch/:voucher_batch_id", ctrl.GetVoucherBatch)
}
