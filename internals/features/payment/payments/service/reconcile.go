package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
	promoModel "admissionsdesk_backend/internals/features/payment/promocodes/model"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
)

/*
	========================================================
	  Reconciliation engine

	All four entry paths (webhook, client verify, offline
	capture, code redemption) normalize into a PaymentFact
	and funnel through Reconcile. The first-capture guard —
	previous snapshot status != captured AND new status ==
	captured — is what makes stage advance, redemption and
	side effects exactly-once across retries and races.
========================================================
*/

// PaymentFact is the canonical normalized payment event.
type PaymentFact struct {
	ApplicationID uuid.UUID
	PaymentID     string // "None" for offline/code payments
	OrderID       string
	Status        string // internal vocabulary
	PaymentMethod string

	OrderAmount int // rupees
	PaidAmount  int // rupees

	Promocode *string
	Voucher   *string

	ErrorCode        *string
	ErrorDescription *string

	PaymentDevice *string
	DeviceOS      *string
	Merchant      *string

	// Offline captures only
	Reason      *string
	Attachments []string

	At time.Time
}

// Outcome reports which transition a fact produced.
type Outcome struct {
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	NewlyCaptured  bool   `json:"newly_captured"`
	NewlyRefunded  bool   `json:"newly_refunded"`
	Duplicate      bool   `json:"duplicate"`
	StageAdvanced  bool   `json:"stage_advanced"`
	InvoiceNumber  string `json:"invoice_number,omitempty"`
}

// ErrMissingIDs is returned when a fact cannot identify a payment at all.
var ErrMissingIDs = errors.New("payment fact carries neither payment id nor order id")

/* ===================== In-memory transition ===================== */

// ApplyFact merges a fact into the application's embedded payment state and
// reports the transition. It mutates app in memory (and hydrates the fact's
// code fields from the attempt history) — the caller persists the result
// under the row lock. Keeping this free of database access makes the guard
// rules checkable without one.
func ApplyFact(app *appModel.Application, fact *PaymentFact) Outcome {
	prev := app.PaymentStatus()
	out := Outcome{PreviousStatus: prev, NewStatus: fact.Status}

	attempts := []appModel.PaymentAttempt(app.ApplicationPaymentAttempts)
	idx := app.FindAttempt(fact.PaymentID, fact.OrderID)

	// Gateway events don't echo the promocode/voucher chosen at order
	// creation; recover them from the order's own attempt entry so capture
	// redeems the code and the snapshot keeps it.
	if idx >= 0 && fact.Promocode == nil && fact.Voucher == nil {
		fact.Promocode = attempts[idx].UsedPromocode
		fact.Voucher = attempts[idx].UsedVoucher
	}

	if idx >= 0 {
		if attempts[idx].Status == fact.Status {
			// duplicate delivery: metadata refresh only
			out.Duplicate = true
		} else {
			attempts[idx].Status = fact.Status
			attempts[idx].AttemptTime = fact.At
			if pid := sentinelOr(fact.PaymentID); pid != constants.SentinelPaymentID {
				// order-created entry learns its gateway payment id
				attempts[idx].PaymentID = pid
			}
			if fact.PaidAmount > 0 {
				attempts[idx].PaidAmount = fact.PaidAmount
			}
		}
	} else {
		entry := appModel.PaymentAttempt{
			PaymentID:     sentinelOr(fact.PaymentID),
			OrderID:       fact.OrderID,
			Status:        fact.Status,
			AttemptTime:   fact.At,
			PaymentMethod: fact.PaymentMethod,
			PaidAmount:    fact.PaidAmount,
			UsedPromocode: fact.Promocode,
			UsedVoucher:   fact.Voucher,
		}
		// newest first
		attempts = append([]appModel.PaymentAttempt{entry}, attempts...)
	}
	app.ApplicationPaymentAttempts = datatypes.JSONSlice[appModel.PaymentAttempt](attempts)

	captured := prev == constants.PaymentStatusCaptured

	switch {
	case !captured && fact.Status == constants.PaymentStatusCaptured:
		// the one true transition
		out.NewlyCaptured = true
		app.ApplicationPaymentInfo = datatypes.NewJSONType(snapshotFromFact(fact))

	case captured:
		snap := app.ApplicationPaymentInfo.Data()
		if fact.Status == constants.PaymentStatusRefunded &&
			snap.Status != constants.PaymentStatusRefunded &&
			sentinelOr(fact.PaymentID) == snap.PaymentID {
			// refund of the captured payment: status only, monetary fields
			// and stage stay as they are
			out.NewlyRefunded = true
			snap.Status = constants.PaymentStatusRefunded
			app.ApplicationPaymentInfo = datatypes.NewJSONType(snap)
		}
		// duplicate captures and stray attempts never overwrite the snapshot

	default:
		// not captured yet: snapshot tracks the latest attempt
		app.ApplicationPaymentInfo = datatypes.NewJSONType(snapshotFromFact(fact))
	}

	return out
}

func sentinelOr(paymentID string) string {
	if paymentID == "" {
		return constants.SentinelPaymentID
	}
	return paymentID
}

func snapshotFromFact(fact *PaymentFact) appModel.PaymentSnapshot {
	return appModel.PaymentSnapshot{
		PaymentID:     sentinelOr(fact.PaymentID),
		OrderID:       fact.OrderID,
		Status:        fact.Status,
		CreatedAt:     fact.At,
		PaymentMethod: fact.PaymentMethod,
		UsedPromocode: fact.Promocode,
		UsedVoucher:   fact.Voucher,
		PaidAmount:    fact.PaidAmount,
		PaymentDevice: fact.PaymentDevice,
		DeviceOS:      fact.DeviceOS,
	}
}

/* ===================== Engine ===================== */

// Dispatcher is the fire-and-forget side-effect contract. Implementations
// own their error boundary; Dispatch never returns one.
type Dispatcher interface {
	Dispatch(kind string, payload map[string]interface{})
}

type Engine struct {
	DB         TxRunner
	Apps       ApplicationStore
	Payments   PaymentStore
	Codes      CodeLedger
	Invoices   InvoiceMinter
	Directory  DirectoryReader
	Dispatcher Dispatcher
}

func NewEngine(db *gorm.DB, ledger *promoService.LedgerService, dispatcher Dispatcher) *Engine {
	return &Engine{
		DB:         db,
		Apps:       gormApplications{},
		Payments:   gormPayments{},
		Codes:      ledger,
		Invoices:   gormInvoices{},
		Directory:  gormDirectory{db: db},
		Dispatcher: dispatcher,
	}
}

// Reconcile merges a payment fact into persisted state: payment row upsert,
// embedded snapshot/attempts update, and — only on the newly-captured
// transition — stage advance, code redemption and invoice mint, all inside
// one transaction with the application row locked. Side effects fire after
// commit.
func (e *Engine) Reconcile(fact *PaymentFact) (*Outcome, error) {
	if fact.PaymentID == "" && fact.OrderID == "" {
		return nil, ErrMissingIDs
	}
	if fact.At.IsZero() {
		fact.At = time.Now()
	}

	var out Outcome
	var app *appModel.Application

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = e.Apps.Lock(tx, fact.ApplicationID)
		if err != nil {
			return fmt.Errorf("application %s: %w", fact.ApplicationID, err)
		}

		out = ApplyFact(app, fact)

		if _, err := e.Payments.Upsert(tx, fact, app.ApplicationStudentID, app.ApplicationCollegeID); err != nil {
			return fmt.Errorf("payment upsert: %w", err)
		}

		if err := e.Apps.SavePaymentState(tx, app); err != nil {
			return fmt.Errorf("application payment state: %w", err)
		}

		if !out.NewlyCaptured {
			return nil
		}

		advanced, err := e.Apps.AdvanceStage(tx, app.ApplicationID, constants.StagePaymentCaptured)
		if err != nil {
			return fmt.Errorf("stage advance: %w", err)
		}
		out.StageAdvanced = advanced

		if err := e.redeemCode(tx, app, fact); err != nil {
			return err
		}

		number, err := e.Invoices.Mint(tx, app.ApplicationID, sentinelOr(fact.PaymentID), fact.PaidAmount)
		if err != nil {
			return fmt.Errorf("invoice: %w", err)
		}
		out.InvoiceNumber = number

		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.NewlyCaptured {
		e.fireSideEffects(app, fact, &out)
	}
	return &out, nil
}

func (e *Engine) redeemCode(tx *gorm.DB, app *appModel.Application, fact *PaymentFact) error {
	switch {
	case fact.Promocode != nil:
		err := e.Codes.RedeemPromocode(tx, *fact.Promocode, promoModel.Redemption{
			StudentID:     app.ApplicationStudentID,
			ApplicationID: app.ApplicationID,
			CourseID:      app.ApplicationCourseID,
			CourseFee:     fact.OrderAmount,
		})
		if errors.Is(err, promoService.ErrCodeSpent) {
			// The gateway already captured real money at the discounted
			// amount, so a full ledger keeps the capture and logs.
			log.Printf("[WARN] promocode %s already recorded for application %s", *fact.Promocode, app.ApplicationID)
			return nil
		}
		return err

	case fact.Voucher != nil:
		err := e.Codes.RedeemVoucher(tx, *fact.Voucher, app.ApplicationStudentID, app.ApplicationID)
		if errors.Is(err, promoService.ErrCodeSpent) {
			// A voucher waives the whole fee, so nothing real was captured.
			// Only a replay by the same application is benign; a voucher
			// held by another application must roll the capture back.
			ours, lookupErr := e.Codes.VoucherSpentBy(tx, *fact.Voucher, app.ApplicationID)
			if lookupErr != nil {
				return fmt.Errorf("voucher %s holder lookup: %w", *fact.Voucher, lookupErr)
			}
			if ours {
				log.Printf("[WARN] voucher %s already spent by application %s, keeping capture", *fact.Voucher, app.ApplicationID)
				return nil
			}
			return fmt.Errorf("voucher %s: %w", *fact.Voucher, promoService.ErrCodeSpent)
		}
		return err
	}
	return nil
}

// fireSideEffects runs after the transaction committed. Payload assembly
// reads are best-effort: a missing student name must not undo a payment.
func (e *Engine) fireSideEffects(app *appModel.Application, fact *PaymentFact, out *Outcome) {
	studentName := e.Directory.StudentName(app.ApplicationStudentID)
	courseName := e.Directory.CourseName(app.ApplicationCourseID)

	specialization := ""
	if prefs := []appModel.Preference(app.ApplicationPreferenceInfo); len(prefs) > 0 {
		specialization = prefs[0].Specialization
	}

	message := fmt.Sprintf("Payment of ₹%d received from %s for %s", fact.PaidAmount, studentName, courseName)
	if specialization != "" {
		message = fmt.Sprintf("%s (%s)", message, specialization)
	}

	e.Dispatcher.Dispatch(constants.DispatchReceiptEmail, map[string]interface{}{
		"student_id":     app.ApplicationStudentID.String(),
		"application_id": app.ApplicationID.String(),
		"student_name":   studentName,
		"course_name":    courseName,
		"invoice_number": out.InvoiceNumber,
		"paid_amount":    fact.PaidAmount,
		"order_amount":   fact.OrderAmount,
		"payment_id":     sentinelOr(fact.PaymentID),
		"order_id":       fact.OrderID,
	})

	e.Dispatcher.Dispatch(constants.DispatchTimelineEvent, map[string]interface{}{
		"student_id":     app.ApplicationStudentID.String(),
		"application_id": app.ApplicationID.String(),
		"college_id":     app.ApplicationCollegeID.String(),
		"event_type":     "Payment",
		"event_status":   "Done",
		"message":        message,
	})

	e.Dispatcher.Dispatch(constants.DispatchNotificationEvent, map[string]interface{}{
		"student_id":     app.ApplicationStudentID.String(),
		"application_id": app.ApplicationID.String(),
		"college_id":     app.ApplicationCollegeID.String(),
		"title":          "Application fee received",
		"body":           message,
	})
}
