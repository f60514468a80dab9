package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/payment/payments/controller"
	"admissionsdesk_backend/internals/features/payment/payments/service"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
	"admissionsdesk_backend/internals/helpers/storage"
	"admissionsdesk_backend/internals/middlewares"
)

// PaymentWebhookRoutes mounts the gateway callback. No auth: the webhook
// authenticates with its signature, not a JWT.
func PaymentWebhookRoutes(api fiber.Router, db *gorm.DB, engine *service.Engine, ledger *promoService.LedgerService, fs storage.FileStorage) {
	ctrl := controller.NewPaymentController(db, engine, ledger, fs)

	api.Post("/payments/webhook/razorpay", ctrl.HandleRazorpayWebhook)
}

// PaymentUserRoutes mounts the applicant-facing payment endpoints.
func PaymentUserRoutes(user fiber.Router, db *gorm.DB, engine *service.Engine, ledger *promoService.LedgerService, fs storage.FileStorage) {
	ctrl := controller.NewPaymentController(db, engine, ledger, fs)

	pay := user.Group("/payments")
	pay.Post("/order", middlewares.OrderRateLimiter(), ctrl.CreateOrder)
	pay.Post("/verify", ctrl.VerifyClientPayment)
	pay.Post("/promocode/apply", middlewares.PromocodeRateLimiter(), ctrl.ApplyCode)
	pay.Get("/by-application/:application_id", ctrl.GetPaymentsByApplication)
	pay.Get("/invoice/:application_id", ctrl.GetInvoiceByApplication)
}

// PaymentAdminRoutes mounts the operator endpoints.
func PaymentAdminRoutes(admin fiber.Router, db *gorm.DB, engine *service.Engine, ledger *promoService.LedgerService, fs storage.FileStorage) {
	ctrl := controller.NewPaymentController(db, engine, ledger, fs)

	pay := admin.Group("/payments")
	pay.Post("/offline", ctrl.OfflineCapture)
	pay.Post("/reconcile-order/:order_id", ctrl.ReconcileOrder)
	pay.Get("/by-id/:payment_id", ctrl.GetPaymentByID)
}
