package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/configs"
	"admissionsdesk_backend/internals/constants"
	appRoutes "admissionsdesk_backend/internals/features/admissions/applications/routes"
	notifRoutes "admissionsdesk_backend/internals/features/notifications/routes"
	payRoutes "admissionsdesk_backend/internals/features/payment/payments/routes"
	payService "admissionsdesk_backend/internals/features/payment/payments/service"
	promoRoutes "admissionsdesk_backend/internals/features/payment/promocodes/routes"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
	"admissionsdesk_backend/internals/helpers/storage"
	"admissionsdesk_backend/internals/middlewares/auth"
)

// SetupRoutes wires the three route surfaces:
//
//	/api   — public: gateway webhook (signature-authenticated) and health
//	/api/u — authenticated applicant endpoints
//	/api/a — counselor/admin endpoints
func SetupRoutes(app *fiber.App, db *gorm.DB, engine *payService.Engine, ledger *promoService.LedgerService, dispatcher payService.Dispatcher, fs storage.FileStorage) {
	BaseRoutes(app, db)

	api := app.Group("/api")
	payRoutes.PaymentWebhookRoutes(api, db, engine, ledger, fs)

	user := api.Group("/u", auth.AuthJWT(auth.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	}))
	appRoutes.ApplicationUserRoutes(user, db, dispatcher)
	payRoutes.PaymentUserRoutes(user, db, engine, ledger, fs)
	promoRoutes.PromocodeUserRoutes(user, db, ledger)
	notifRoutes.NotificationUserRoutes(user, db)

	admin := api.Group("/a", auth.AuthJWT(auth.AuthJWTOpts{
		Secret:       configs.JWTSecret,
		RequireRoles: constants.StaffRoles,
	}))
	appRoutes.ApplicationAdminRoutes(admin, db, dispatcher)
	payRoutes.PaymentAdminRoutes(admin, db, engine, ledger, fs)
	promoRoutes.PromocodeAdminRoutes(admin, db, ledger)
}
