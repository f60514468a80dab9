package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/configs"
	"admissionsdesk_backend/internals/constants"
	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
	"admissionsdesk_backend/internals/features/payment/payments/dto"
	"admissionsdesk_backend/internals/features/payment/payments/model"
	"admissionsdesk_backend/internals/features/payment/payments/service"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
	helper "admissionsdesk_backend/internals/helpers"
	"admissionsdesk_backend/internals/helpers/storage"
)

/*
	========================================================
	  Controller
========================================================
*/

type PaymentController struct {
	DB      *gorm.DB
	Engine  *service.Engine
	Ledger  *promoService.LedgerService
	Storage storage.FileStorage
}

func NewPaymentController(db *gorm.DB, engine *service.Engine, ledger *promoService.LedgerService, fs storage.FileStorage) *PaymentController {
	if fs == nil {
		fs = storage.LogStorage{}
	}
	return &PaymentController{DB: db, Engine: engine, Ledger: ledger, Storage: fs}
}

func (ctrl *PaymentController) loadApplication(id string) (*appModel.Application, error) {
	appID, err := uuid.Parse(id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}
	var app appModel.Application
	if err := ctrl.DB.Where("application_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return nil, err
	}
	return &app, nil
}

// applicationFee resolves the payable fee (college fee rules + preferences)
// and the first-preference component a promocode may discount.
func (ctrl *PaymentController) applicationFee(app *appModel.Application) (total int, preferenceFee int, err error) {
	var college dirModel.College
	if err := ctrl.DB.Where("college_id = ?", app.ApplicationCollegeID).First(&college).Error; err != nil {
		return 0, 0, fiber.NewError(fiber.StatusNotFound, "College not found")
	}
	var course dirModel.Course
	if err := ctrl.DB.Where("course_id = ?", app.ApplicationCourseID).First(&course).Error; err != nil {
		return 0, 0, fiber.NewError(fiber.StatusNotFound, "Course not found")
	}

	prefs := []appModel.Preference(app.ApplicationPreferenceInfo)
	names := make([]string, 0, len(prefs))
	for _, p := range prefs {
		names = append(names, p.Specialization)
	}

	total, perExtra := service.CalculateApplicationFee(names, college.CollegeFeeRules.Data(), course.CourseName)
	preferenceFee = service.FirstPreferenceComponent(total, perExtra, len(names))
	return total, preferenceFee, nil
}

/*
	========================================================
	  Order creation
========================================================
*/

// POST /api/u/payments/order
func (ctrl *PaymentController) CreateOrder(c *fiber.Ctx) error {
	var body dto.CreateOrderRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	app, err := ctrl.loadApplication(body.ApplicationID)
	if err != nil {
		return err
	}
	if app.IsPaid() {
		return fiber.NewError(fiber.StatusConflict, "Application fee already captured")
	}

	amount, prefFee, err := ctrl.applicationFee(app)
	if err != nil {
		return err
	}
	if amount <= 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Application fee is not configured")
	}

	// Optional promocode on the order
	var promocode *string
	if body.Promocode != nil {
		res, err := ctrl.Ledger.Verify(*body.Promocode, amount, app.ApplicationStudentID, &prefFee)
		if err != nil {
			log.Println("[ERROR] promocode verify failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not verify promocode")
		}
		if res.Status != constants.CodeStatusApplied {
			return fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("Promocode: %s", res.Status))
		}
		if res.Amount <= 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Code waives the full fee, use the code redemption endpoint")
		}
		amount = res.Amount
		promocode = body.Promocode
	}

	receipt := fmt.Sprintf("app-%s-%d", app.ApplicationID, time.Now().UnixNano())
	order, err := service.CreateGatewayOrder(amount, receipt, map[string]interface{}{
		"application_id": app.ApplicationID.String(),
	})
	if err != nil {
		log.Println("[ERROR] gateway order create failed:", err)
		return fiber.NewError(fiber.StatusBadGateway, "Could not create payment order")
	}

	// first order marks the application as payment-initiated
	if !app.ApplicationPaymentInitiated {
		if err := ctrl.DB.Model(&appModel.Application{}).
			Where("application_id = ?", app.ApplicationID).
			Update("application_payment_initiated", true).Error; err != nil {
			log.Println("[ERROR] payment_initiated update failed:", err)
		}
	}

	fact := &service.PaymentFact{
		ApplicationID: app.ApplicationID,
		OrderID:       order.OrderID,
		Status:        constants.PaymentStatusAttempted,
		PaymentMethod: constants.PaymentMethodGateway,
		OrderAmount:   amount,
		Promocode:     promocode,
		PaymentDevice: body.PaymentDevice,
		DeviceOS:      body.DeviceOS,
	}
	if _, err := ctrl.Engine.Reconcile(fact); err != nil {
		log.Println("[ERROR] attempt record failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not record payment attempt")
	}

	return helper.JsonCreated(c, "Order created. Proceed with payment.", fiber.Map{
		"order_id": order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   configs.RazorpayKeyID,
	})
}

/*
	========================================================
	  Webhook (Razorpay)
========================================================
*/

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]interface{}); ok {
			return mm
		}
	}
	return nil
}

// POST /api/payments/webhook/razorpay
//
// Once the signature checks out the answer is always 200: Razorpay retries
// non-2xx responses and a retry storm helps nobody. Internal failures are
// logged and swallowed.
func (ctrl *PaymentController) HandleRazorpayWebhook(c *fiber.Ctx) error {
	raw := c.Body()
	signature := c.Get("X-Razorpay-Signature")

	if !service.VerifyWebhookSignature(raw, signature) {
		log.Println("[WARN] webhook rejected: bad signature")
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid webhook signature")
	}

	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil || len(body) == 0 {
		log.Printf("[ERROR] webhook body unparseable: %v raw=%q", err, string(raw))
		return helper.JsonOK(c, "ignored", fiber.Map{"reason": "empty body"})
	}

	event := getString(body, "event")
	status := service.MapWebhookEvent(event)
	if status == "" {
		log.Printf("[INFO] webhook event %q not processed", event)
		return helper.JsonOK(c, "ignored", fiber.Map{"event": event})
	}

	fact, err := ctrl.factFromWebhook(body, status)
	if err != nil {
		log.Println("[ERROR] webhook normalization failed:", err)
		return helper.JsonOK(c, "processed with warning", fiber.Map{"error": err.Error()})
	}

	// Absorb webhooks racing the client's own order-create response.
	if delay := configs.WebhookSettleDelay(); delay > 0 {
		time.Sleep(delay)
	}

	out, err := ctrl.Engine.Reconcile(fact)
	if err != nil {
		log.Println("[ERROR] webhook reconciliation failed:", err)
		return helper.JsonOK(c, "processed with warning", fiber.Map{"error": err.Error()})
	}

	log.Printf("🔔 webhook %s → payment %s: newly_captured=%v duplicate=%v", event, fact.PaymentID, out.NewlyCaptured, out.Duplicate)
	return helper.JsonOK(c, "Webhook processed", out)
}

func (ctrl *PaymentController) factFromWebhook(body map[string]interface{}, status string) (*service.PaymentFact, error) {
	payload := getMap(body, "payload")

	var entity map[string]interface{}
	paymentID := ""
	orderID := ""

	if status == constants.PaymentStatusRefunded {
		entity = getMap(getMap(payload, "refund"), "entity")
		if entity != nil {
			paymentID = getString(entity, "payment_id")
		}
	} else {
		entity = getMap(getMap(payload, "payment"), "entity")
		if entity != nil {
			paymentID = getString(entity, "id")
			orderID = getString(entity, "order_id")
		}
	}
	if paymentID == "" {
		return nil, errors.New("webhook payload carries no payment id")
	}

	fact := &service.PaymentFact{
		PaymentID:     paymentID,
		OrderID:       orderID,
		Status:        status,
		PaymentMethod: constants.PaymentMethodGateway,
	}

	if entity != nil {
		if amt, ok := entity["amount"].(float64); ok {
			fact.PaidAmount = service.PaiseToRupees(int(amt))
		}
		if code := getString(entity, "error_code"); code != "" {
			fact.ErrorCode = &code
		}
		if desc := getString(entity, "error_description"); desc != "" {
			fact.ErrorDescription = &desc
		}
	}

	// application_id: order notes first, then the payment store
	if notes := getMap(entity, "notes"); notes != nil {
		if raw := getString(notes, "application_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				fact.ApplicationID = id
			}
		}
	}
	if fact.ApplicationID == uuid.Nil {
		row, err := ctrl.lookupPaymentRow(paymentID, orderID)
		if err != nil {
			return nil, fmt.Errorf("no application for payment %s: %w", paymentID, err)
		}
		fact.ApplicationID = row.PaymentApplicationID
		if fact.OrderID == "" {
			fact.OrderID = row.OrderID
		}
	}

	return fact, nil
}

func (ctrl *PaymentController) lookupPaymentRow(paymentID, orderID string) (*model.Payment, error) {
	if row, err := service.FindByPaymentID(ctrl.DB, paymentID); err == nil {
		return row, nil
	}
	if orderID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return service.FindByOrderID(ctrl.DB, orderID)
}

/*
	========================================================
	  Client-confirmed verify
========================================================
*/

// POST /api/u/payments/verify
//
// Trust boundary: the client's "captured" claim is only accepted after the
// checkout signature verifies AND the gateway re-fetch confirms the status.
func (ctrl *PaymentController) VerifyClientPayment(c *fiber.Ctx) error {
	var body dto.VerifyPaymentRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	app, err := ctrl.loadApplication(body.ApplicationID)
	if err != nil {
		return err
	}

	if !service.VerifyCheckoutSignature(body.RazorpayOrderID, body.RazorpayPaymentID, body.RazorpaySignature) {
		log.Printf("[WARN] checkout signature mismatch for payment %s", body.RazorpayPaymentID)
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid payment signature")
	}

	gw, err := service.FetchGatewayPayment(body.RazorpayPaymentID)
	if err != nil {
		log.Println("[ERROR] gateway fetch failed:", err)
		return fiber.NewError(fiber.StatusBadGateway, "Could not confirm payment with gateway")
	}

	status := service.MapGatewayStatus(gw.Status)
	if status == "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("Gateway status %q not recognised", gw.Status))
	}

	fact := &service.PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     gw.PaymentID,
		OrderID:       body.RazorpayOrderID,
		Status:        status,
		PaymentMethod: constants.PaymentMethodGateway,
		PaidAmount:    gw.Amount,
		OrderAmount:   gw.Amount,
	}
	if gw.ErrorCode != "" {
		fact.ErrorCode = &gw.ErrorCode
	}
	if gw.ErrorDesc != "" {
		fact.ErrorDescription = &gw.ErrorDesc
	}

	out, err := ctrl.Engine.Reconcile(fact)
	if err != nil {
		log.Println("[ERROR] verify reconciliation failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not reconcile payment")
	}

	if out.Duplicate && status == constants.PaymentStatusCaptured {
		return helper.JsonOK(c, "Payment already captured", out)
	}
	return helper.JsonOK(c, "Payment verified", out)
}

/*
	========================================================
	  Offline capture (operator)
========================================================
*/

// POST /api/a/payments/offline
func (ctrl *PaymentController) OfflineCapture(c *fiber.Ctx) error {
	var body dto.OfflineCaptureRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	app, err := ctrl.loadApplication(body.ApplicationID)
	if err != nil {
		return err
	}
	if app.IsPaid() {
		return fiber.NewError(fiber.StatusConflict, "Application fee already captured")
	}

	attachments := append([]string(nil), body.Attachments...)

	// receipt scans may also arrive as multipart files
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["receipts"] {
			f, err := fh.Open()
			if err != nil {
				log.Println("[WARN] receipt open failed:", err)
				continue
			}
			url, err := ctrl.Storage.Upload(fh.Filename, f)
			f.Close()
			if err != nil {
				log.Println("[WARN] receipt upload failed:", err)
				continue
			}
			attachments = append(attachments, url)
		}
	}

	orderID := fmt.Sprintf("OFFLINE-%d", time.Now().UnixNano())
	reason := body.Reason

	fact := &service.PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     constants.SentinelPaymentID,
		OrderID:       orderID,
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodOffline,
		OrderAmount:   body.Amount,
		PaidAmount:    body.Amount,
		Reason:        &reason,
		Attachments:   attachments,
	}

	out, err := ctrl.Engine.Reconcile(fact)
	if err != nil {
		log.Println("[ERROR] offline capture failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not record offline payment")
	}

	return helper.JsonCreated(c, "Offline payment recorded", out)
}

/*
	========================================================
	  Promocode / voucher redemption
========================================================
*/

// POST /api/u/payments/promocode/apply
//
// Verifies the code against the application's fee. A full-discount code is
// itself a captured payment of amount 0 and goes through the same
// reconciliation as money.
func (ctrl *PaymentController) ApplyCode(c *fiber.Ctx) error {
	var body dto.ApplyCodeRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := body.Validate(nil); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	app, err := ctrl.loadApplication(body.ApplicationID)
	if err != nil {
		return err
	}
	if app.IsPaid() {
		return fiber.NewError(fiber.StatusConflict, "Application fee already captured")
	}

	amount, prefFee, err := ctrl.applicationFee(app)
	if err != nil {
		return err
	}

	res, err := ctrl.Ledger.Verify(body.Code, amount, app.ApplicationStudentID, &prefFee)
	if err != nil {
		log.Println("[ERROR] code verify failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not verify code")
	}
	if res.Status != constants.CodeStatusApplied {
		// expected outcome, not an error
		return helper.JsonOK(c, res.Status, res)
	}
	if res.Amount > 0 {
		// partial discount: client proceeds to a gateway order at the
		// reduced amount
		return helper.JsonOK(c, res.Status, res)
	}

	fact := &service.PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     constants.SentinelPaymentID,
		OrderID:       fmt.Sprintf("CODE-%d", time.Now().UnixNano()),
		Status:        constants.PaymentStatusCaptured,
		OrderAmount:   amount,
		PaidAmount:    0,
	}
	code := body.Code
	if res.Type == promoService.CodeTypeVoucher {
		fact.PaymentMethod = constants.PaymentMethodVoucher
		fact.Voucher = &code
	} else {
		fact.PaymentMethod = constants.PaymentMethodPromocode
		fact.Promocode = &code
	}

	out, err := ctrl.Engine.Reconcile(fact)
	if err != nil {
		log.Println("[ERROR] code redemption failed:", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not redeem code")
	}

	return helper.JsonOK(c, "Code redeemed, application fee waived", fiber.Map{
		"verify":  res,
		"outcome": out,
	})
}

/*
	========================================================
	  Order re-reconciliation (operator)
========================================================
*/

// POST /api/a/payments/reconcile-order/:order_id
//
// Pulls the gateway's view of an order and replays every payment on it
// through reconciliation. Repairs applications whose webhooks were missed
// (gateway outage, webhook endpoint down). Safe to call repeatedly.
func (ctrl *PaymentController) ReconcileOrder(c *fiber.Ctx) error {
	orderID := c.Params("order_id")
	if orderID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_id is required")
	}

	row, err := service.FindByOrderID(ctrl.DB, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No payment record for this order")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load payment record")
	}

	order, err := service.FetchGatewayOrder(orderID)
	if err != nil {
		log.Println("[ERROR] gateway order fetch failed:", err)
		return fiber.NewError(fiber.StatusBadGateway, "Could not fetch order from gateway")
	}

	gwPayments, err := service.FetchGatewayPaymentsForOrder(orderID)
	if err != nil {
		log.Println("[ERROR] gateway order payments fetch failed:", err)
		return fiber.NewError(fiber.StatusBadGateway, "Could not fetch payments from gateway")
	}

	outcomes := make([]fiber.Map, 0, len(gwPayments))
	for _, gw := range gwPayments {
		status := service.MapGatewayStatus(gw.Status)
		if status == "" {
			log.Printf("[INFO] order %s: payment %s status %q skipped", orderID, gw.PaymentID, gw.Status)
			continue
		}

		fact := &service.PaymentFact{
			ApplicationID: row.PaymentApplicationID,
			PaymentID:     gw.PaymentID,
			OrderID:       orderID,
			Status:        status,
			PaymentMethod: constants.PaymentMethodGateway,
			OrderAmount:   order.Amount,
			PaidAmount:    gw.Amount,
		}
		out, err := ctrl.Engine.Reconcile(fact)
		if err != nil {
			log.Printf("[ERROR] order %s: payment %s reconcile failed: %v", orderID, gw.PaymentID, err)
			outcomes = append(outcomes, fiber.Map{"payment_id": gw.PaymentID, "error": err.Error()})
			continue
		}
		outcomes = append(outcomes, fiber.Map{"payment_id": gw.PaymentID, "outcome": out})
	}

	return helper.JsonOK(c, "Order reconciled against gateway state", fiber.Map{
		"order_id":     orderID,
		"order_status": order.Status,
		"payments":     outcomes,
	})
}

/*
	========================================================
	  Reads
========================================================
*/

// GET /api/u/payments/by-application/:application_id
func (ctrl *PaymentController) GetPaymentsByApplication(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	rows, err := service.FindByApplicationID(ctrl.DB, appID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load payments")
	}
	return helper.JsonOK(c, "Payments loaded", rows)
}

// GET /api/a/payments/by-id/:payment_id
func (ctrl *PaymentController) GetPaymentByID(c *fiber.Ctx) error {
	paymentID := c.Params("payment_id")
	if paymentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment_id is required")
	}

	row, err := service.FindByPaymentID(ctrl.DB, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Payment not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load payment")
	}
	return helper.JsonOK(c, "Payment loaded", row)
}

// GET /api/u/payments/invoice/:application_id
func (ctrl *PaymentController) GetInvoiceByApplication(c *fiber.Ctx) error {
	appID, err := helper.ParseUUIDParam(c, "application_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "application_id is not a valid UUID")
	}

	var invoice model.Invoice
	if err := ctrl.DB.Where("invoice_application_id = ?", appID).
		Order("created_at DESC").First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No invoice for this application")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load invoice")
	}
	return helper.JsonOK(c, "Invoice loaded", invoice)
}
