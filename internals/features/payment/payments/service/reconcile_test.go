package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"admissionsdesk_backend/internals/constants"
	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
)

func newTestApplication() *appModel.Application {
	return &appModel.Application{
		ApplicationID:           uuid.New(),
		ApplicationStudentID:    uuid.New(),
		ApplicationCourseID:     uuid.New(),
		ApplicationCollegeID:    uuid.New(),
		ApplicationCurrentStage: constants.StageEducationDetails,
	}
}

func capturedFact(appID uuid.UUID, paymentID string) *PaymentFact {
	return &PaymentFact{
		ApplicationID: appID,
		PaymentID:     paymentID,
		OrderID:       "order_123",
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodGateway,
		OrderAmount:   6000,
		PaidAmount:    6000,
		At:            time.Now(),
	}
}

func TestApplyFactFirstCapture(t *testing.T) {
	app := newTestApplication()

	attempted := capturedFact(app.ApplicationID, "pay_1")
	attempted.Status = constants.PaymentStatusAttempted
	attempted.PaidAmount = 0
	out := ApplyFact(app, attempted)
	if out.NewlyCaptured || out.Duplicate {
		t.Fatalf("attempted fact must not capture: %+v", out)
	}
	if got := app.PaymentStatus(); got != constants.PaymentStatusAttempted {
		t.Fatalf("snapshot status = %q, want attempted", got)
	}

	out = ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))
	if !out.NewlyCaptured {
		t.Fatalf("first capture must report NewlyCaptured: %+v", out)
	}
	if out.PreviousStatus != constants.PaymentStatusAttempted {
		t.Fatalf("previous status = %q, want attempted", out.PreviousStatus)
	}
	if !app.IsPaid() {
		t.Fatal("application must be paid after capture")
	}
	if snap := app.ApplicationPaymentInfo.Data(); snap.PaidAmount != 6000 {
		t.Fatalf("snapshot paid amount = %d, want 6000", snap.PaidAmount)
	}
}

func TestApplyFactDuplicateCapturesFireOnce(t *testing.T) {
	app := newTestApplication()

	newlyCaptured := 0
	for i := 0; i < 5; i++ {
		out := ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))
		if out.NewlyCaptured {
			newlyCaptured++
		}
		if i > 0 && !out.Duplicate {
			t.Fatalf("delivery %d should be a duplicate: %+v", i+1, out)
		}
	}

	if newlyCaptured != 1 {
		t.Fatalf("NewlyCaptured fired %d times, want exactly 1", newlyCaptured)
	}
	if n := len(app.ApplicationPaymentAttempts); n != 1 {
		t.Fatalf("attempts = %d, want 1 (duplicates merge into the same entry)", n)
	}
}

func TestApplyFactFirstCaptureWins(t *testing.T) {
	app := newTestApplication()

	ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))

	// a second, different payment claims captured too
	rival := capturedFact(app.ApplicationID, "pay_2")
	rival.OrderID = "order_456"
	rival.PaidAmount = 9999
	out := ApplyFact(app, rival)

	if out.NewlyCaptured {
		t.Fatalf("second capture must not fire side effects: %+v", out)
	}
	snap := app.ApplicationPaymentInfo.Data()
	if snap.PaymentID != "pay_1" || snap.PaidAmount != 6000 {
		t.Fatalf("snapshot must keep the first capture, got %+v", snap)
	}
	// the rival attempt is still on the audit trail
	if n := len(app.ApplicationPaymentAttempts); n != 2 {
		t.Fatalf("attempts = %d, want 2", n)
	}
}

func TestApplyFactFailureAfterCaptureIsIgnored(t *testing.T) {
	app := newTestApplication()
	ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))

	failed := capturedFact(app.ApplicationID, "pay_1")
	failed.Status = constants.PaymentStatusFailed
	out := ApplyFact(app, failed)

	if out.NewlyCaptured || out.NewlyRefunded {
		t.Fatalf("failure after capture must not transition: %+v", out)
	}
	if !app.IsPaid() {
		t.Fatal("capture must survive a late failure event")
	}
}

func TestApplyFactRefund(t *testing.T) {
	app := newTestApplication()
	ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))

	refund := capturedFact(app.ApplicationID, "pay_1")
	refund.Status = constants.PaymentStatusRefunded
	out := ApplyFact(app, refund)

	if !out.NewlyRefunded {
		t.Fatalf("refund of the captured payment must report NewlyRefunded: %+v", out)
	}
	snap := app.ApplicationPaymentInfo.Data()
	if snap.Status != constants.PaymentStatusRefunded {
		t.Fatalf("snapshot status = %q, want refunded", snap.Status)
	}
	if snap.PaidAmount != 6000 || snap.PaymentID != "pay_1" {
		t.Fatalf("refund must keep monetary fields, got %+v", snap)
	}

	// replayed refund is a duplicate
	out = ApplyFact(app, refund)
	if out.NewlyRefunded || !out.Duplicate {
		t.Fatalf("replayed refund must be a duplicate: %+v", out)
	}
}

func TestApplyFactRefundOfForeignPaymentIgnored(t *testing.T) {
	app := newTestApplication()
	ApplyFact(app, capturedFact(app.ApplicationID, "pay_1"))

	refund := capturedFact(app.ApplicationID, "pay_other")
	refund.Status = constants.PaymentStatusRefunded
	refund.OrderID = "order_other"
	out := ApplyFact(app, refund)

	if out.NewlyRefunded {
		t.Fatalf("refund of a different payment must not touch the snapshot: %+v", out)
	}
	if snap := app.ApplicationPaymentInfo.Data(); snap.Status != constants.PaymentStatusCaptured {
		t.Fatalf("snapshot status = %q, want captured", snap.Status)
	}
}

func TestApplyFactSentinelMatchesByOrderID(t *testing.T) {
	app := newTestApplication()

	offline := &PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     constants.SentinelPaymentID,
		OrderID:       "OFFLINE-1",
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodOffline,
		OrderAmount:   6000,
		PaidAmount:    6000,
		At:            time.Now(),
	}
	out := ApplyFact(app, offline)
	if !out.NewlyCaptured {
		t.Fatalf("offline capture must fire: %+v", out)
	}

	// same offline payment delivered again: matched via order id, not the
	// sentinel payment id
	out = ApplyFact(app, offline)
	if out.NewlyCaptured || !out.Duplicate {
		t.Fatalf("sentinel replay must be a duplicate: %+v", out)
	}
	if n := len(app.ApplicationPaymentAttempts); n != 1 {
		t.Fatalf("attempts = %d, want 1", n)
	}
}

func TestApplyFactEmptyPaymentIDBecomesSentinel(t *testing.T) {
	app := newTestApplication()

	fact := &PaymentFact{
		ApplicationID: app.ApplicationID,
		OrderID:       "CODE-1",
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodPromocode,
		At:            time.Now(),
	}
	ApplyFact(app, fact)

	if snap := app.ApplicationPaymentInfo.Data(); snap.PaymentID != constants.SentinelPaymentID {
		t.Fatalf("snapshot payment id = %q, want sentinel", snap.PaymentID)
	}
}

func TestApplyFactAttemptsAreNewestFirst(t *testing.T) {
	app := newTestApplication()

	for _, id := range []string{"pay_a", "pay_b", "pay_c"} {
		f := capturedFact(app.ApplicationID, id)
		f.Status = constants.PaymentStatusFailed
		f.OrderID = "order_" + id
		ApplyFact(app, f)
	}

	attempts := []appModel.PaymentAttempt(app.ApplicationPaymentAttempts)
	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(attempts))
	}
	if attempts[0].PaymentID != "pay_c" || attempts[2].PaymentID != "pay_a" {
		t.Fatalf("attempts not newest-first: %v", attempts)
	}
}

func TestApplyFactHydratesCodeFromOrderAttempt(t *testing.T) {
	app := newTestApplication()
	code := "WELCOME10"
	app.ApplicationPaymentAttempts = datatypes.JSONSlice[appModel.PaymentAttempt]{{
		PaymentID:     constants.SentinelPaymentID,
		OrderID:       "order_42",
		Status:        constants.PaymentStatusAttempted,
		PaymentMethod: constants.PaymentMethodGateway,
		UsedPromocode: &code,
	}}

	fact := &PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     "pay_9",
		OrderID:       "order_42",
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodGateway,
		OrderAmount:   5500,
		PaidAmount:    5500,
		At:            time.Now(),
	}

	out := ApplyFact(app, fact)
	if !out.NewlyCaptured {
		t.Fatalf("outcome = %+v", out)
	}
	if fact.Promocode == nil || *fact.Promocode != code {
		t.Fatalf("fact promocode = %v, want hydrated %q", fact.Promocode, code)
	}
	attempts := []appModel.PaymentAttempt(app.ApplicationPaymentAttempts)
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d entries, want the order entry merged", len(attempts))
	}
	if attempts[0].PaymentID != "pay_9" || attempts[0].UsedPromocode == nil {
		t.Fatalf("merged attempt = %+v", attempts[0])
	}
	if snap := app.ApplicationPaymentInfo.Data(); snap.UsedPromocode == nil || *snap.UsedPromocode != code {
		t.Fatalf("snapshot used_promocode = %v, want %q", snap.UsedPromocode, code)
	}
}
