package service

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/constants"
	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
	"admissionsdesk_backend/internals/features/payment/payments/model"
	promoModel "admissionsdesk_backend/internals/features/payment/promocodes/model"
	promoService "admissionsdesk_backend/internals/features/payment/promocodes/service"
)

/* ===================== In-memory collaborators ===================== */

type fakeTx struct {
	runs int
}

func (f *fakeTx) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	f.runs++
	return fc(nil)
}

type fakeApps struct {
	app    *appModel.Application
	stage  float64
	saves  int
	locked int
}

func (f *fakeApps) Lock(tx *gorm.DB, id uuid.UUID) (*appModel.Application, error) {
	f.locked++
	if f.app == nil || f.app.ApplicationID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.app, nil
}

func (f *fakeApps) SavePaymentState(tx *gorm.DB, app *appModel.Application) error {
	f.saves++
	return nil
}

func (f *fakeApps) AdvanceStage(tx *gorm.DB, id uuid.UUID, candidate float64) (bool, error) {
	if candidate > f.stage {
		f.stage = candidate
		return true, nil
	}
	return false, nil
}

type fakePayments struct {
	upserts int
}

func (f *fakePayments) Upsert(tx *gorm.DB, fact *PaymentFact, userID, collegeID uuid.UUID) (*model.Payment, error) {
	f.upserts++
	return &model.Payment{}, nil
}

type fakeLedger struct {
	promoRedemptions map[string]int
	voucherHolder    map[string]uuid.UUID
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		promoRedemptions: map[string]int{},
		voucherHolder:    map[string]uuid.UUID{},
	}
}

func (f *fakeLedger) RedeemPromocode(tx *gorm.DB, code string, red promoModel.Redemption) error {
	f.promoRedemptions[code]++
	return nil
}

func (f *fakeLedger) RedeemVoucher(tx *gorm.DB, code string, studentID, applicationID uuid.UUID) error {
	if _, spent := f.voucherHolder[code]; spent {
		return fmt.Errorf("voucher %s: %w", code, promoService.ErrCodeSpent)
	}
	f.voucherHolder[code] = applicationID
	return nil
}

func (f *fakeLedger) VoucherSpentBy(tx *gorm.DB, code string, applicationID uuid.UUID) (bool, error) {
	holder, ok := f.voucherHolder[code]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return holder == applicationID, nil
}

type fakeInvoices struct {
	minted int
}

func (f *fakeInvoices) Mint(tx *gorm.DB, applicationID uuid.UUID, paymentID string, amount int) (string, error) {
	f.minted++
	return fmt.Sprintf("INV-2026-%04d", f.minted), nil
}

type fakeDirectory struct{}

func (fakeDirectory) StudentName(id uuid.UUID) string { return "Asha Rao" }
func (fakeDirectory) CourseName(id uuid.UUID) string  { return "B.Tech" }

type dispatched struct {
	kind    string
	payload map[string]interface{}
}

type fakeDispatcher struct {
	events []dispatched
}

func (f *fakeDispatcher) Dispatch(kind string, payload map[string]interface{}) {
	f.events = append(f.events, dispatched{kind: kind, payload: payload})
}

func (f *fakeDispatcher) count(kind string) int {
	n := 0
	for _, e := range f.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

type engineFixture struct {
	engine     *Engine
	apps       *fakeApps
	payments   *fakePayments
	ledger     *fakeLedger
	invoices   *fakeInvoices
	dispatcher *fakeDispatcher
}

func newEngineFixture(app *appModel.Application) *engineFixture {
	f := &engineFixture{
		apps:       &fakeApps{app: app, stage: app.ApplicationCurrentStage},
		payments:   &fakePayments{},
		ledger:     newFakeLedger(),
		invoices:   &fakeInvoices{},
		dispatcher: &fakeDispatcher{},
	}
	f.engine = &Engine{
		DB:         &fakeTx{},
		Apps:       f.apps,
		Payments:   f.payments,
		Codes:      f.ledger,
		Invoices:   f.invoices,
		Directory:  fakeDirectory{},
		Dispatcher: f.dispatcher,
	}
	return f
}

/* ===================== Scenarios ===================== */

// An order created with a promocode, then captured by a webhook that does
// not echo the code: the capture must still redeem it, exactly once across
// redeliveries.
func TestReconcileWebhookCaptureRedeemsOrderPromocode(t *testing.T) {
	app := newTestApplication()
	code := "WELCOME10"
	app.ApplicationPaymentAttempts = datatypes.JSONSlice[appModel.PaymentAttempt]{{
		PaymentID:     constants.SentinelPaymentID,
		OrderID:       "order_42",
		Status:        constants.PaymentStatusAttempted,
		AttemptTime:   time.Now().Add(-time.Minute),
		PaymentMethod: constants.PaymentMethodGateway,
		UsedPromocode: &code,
	}}

	fx := newEngineFixture(app)

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

	out, err := fx.engine.Reconcile(fact)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !out.NewlyCaptured || !out.StageAdvanced {
		t.Fatalf("first capture outcome = %+v", out)
	}
	if got := fx.ledger.promoRedemptions[code]; got != 1 {
		t.Fatalf("promocode redemptions = %d, want 1", got)
	}
	if attempts := []appModel.PaymentAttempt(app.ApplicationPaymentAttempts); len(attempts) != 1 {
		t.Fatalf("attempts = %d entries, want the order entry updated in place", len(attempts))
	} else if attempts[0].PaymentID != "pay_9" {
		t.Fatalf("attempt payment id = %q, want pay_9", attempts[0].PaymentID)
	}
	snap := app.ApplicationPaymentInfo.Data()
	if snap.UsedPromocode == nil || *snap.UsedPromocode != code {
		t.Fatalf("snapshot used_promocode = %v, want %q", snap.UsedPromocode, code)
	}
	if fx.apps.stage != constants.StagePaymentCaptured {
		t.Fatalf("stage = %.2f, want %.2f", fx.apps.stage, constants.StagePaymentCaptured)
	}
	if fx.invoices.minted != 1 {
		t.Fatalf("invoices minted = %d, want 1", fx.invoices.minted)
	}
	if got := fx.dispatcher.count(constants.DispatchReceiptEmail); got != 1 {
		t.Fatalf("receipt emails = %d, want 1", got)
	}

	// redelivered webhook
	out, err = fx.engine.Reconcile(&PaymentFact{
		ApplicationID: app.ApplicationID,
		PaymentID:     "pay_9",
		OrderID:       "order_42",
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodGateway,
		OrderAmount:   5500,
		PaidAmount:    5500,
		At:            time.Now(),
	})
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if out.NewlyCaptured || !out.Duplicate {
		t.Fatalf("redelivery outcome = %+v", out)
	}
	if got := fx.ledger.promoRedemptions[code]; got != 1 {
		t.Fatalf("redelivery redeemed again: %d", got)
	}
	if fx.invoices.minted != 1 {
		t.Fatalf("redelivery minted again: %d", fx.invoices.minted)
	}
	if got := fx.dispatcher.count(constants.DispatchReceiptEmail); got != 1 {
		t.Fatalf("redelivery emailed again: %d", got)
	}
}

func TestReconcileOfflineCaptureFiresTimeline(t *testing.T) {
	app := newTestApplication()
	fx := newEngineFixture(app)

	reason := "Demand draft received at counter"
	out, err := fx.engine.Reconcile(&PaymentFact{
		ApplicationID: app.ApplicationID,
		OrderID:       "offline_" + app.ApplicationID.String(),
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodOffline,
		OrderAmount:   6000,
		PaidAmount:    6000,
		Reason:        &reason,
		At:            time.Now(),
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !out.NewlyCaptured || !out.StageAdvanced {
		t.Fatalf("outcome = %+v", out)
	}
	if snap := app.ApplicationPaymentInfo.Data(); snap.PaymentID != constants.SentinelPaymentID {
		t.Fatalf("offline snapshot payment id = %q, want sentinel", snap.PaymentID)
	}

	var timeline *dispatched
	for i := range fx.dispatcher.events {
		if fx.dispatcher.events[i].kind == constants.DispatchTimelineEvent {
			timeline = &fx.dispatcher.events[i]
		}
	}
	if timeline == nil {
		t.Fatal("no timeline event dispatched")
	}
	if timeline.payload["event_type"] != "Payment" || timeline.payload["event_status"] != "Done" {
		t.Fatalf("timeline payload = %v", timeline.payload)
	}
}

// A voucher already spent by a different application must fail the whole
// reconcile; nothing may be dispatched.
func TestReconcileVoucherSpentByOtherFails(t *testing.T) {
	app := newTestApplication()
	fx := newEngineFixture(app)
	code := "GOLD-PASS"
	fx.ledger.voucherHolder[code] = uuid.New()

	_, err := fx.engine.Reconcile(&PaymentFact{
		ApplicationID: app.ApplicationID,
		OrderID:       "voucher_" + app.ApplicationID.String(),
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodVoucher,
		Voucher:       &code,
		At:            time.Now(),
	})
	if !errors.Is(err, promoService.ErrCodeSpent) {
		t.Fatalf("err = %v, want ErrCodeSpent", err)
	}
	if len(fx.dispatcher.events) != 0 {
		t.Fatalf("side effects fired on a failed reconcile: %d events", len(fx.dispatcher.events))
	}
	if fx.invoices.minted != 0 {
		t.Fatalf("invoice minted on a failed reconcile")
	}
}

// The same voucher already recorded for this application is a benign
// replay: the capture stands.
func TestReconcileVoucherReplayBySameApplicationSucceeds(t *testing.T) {
	app := newTestApplication()
	fx := newEngineFixture(app)
	code := "GOLD-PASS"
	fx.ledger.voucherHolder[code] = app.ApplicationID

	out, err := fx.engine.Reconcile(&PaymentFact{
		ApplicationID: app.ApplicationID,
		OrderID:       "voucher_" + app.ApplicationID.String(),
		Status:        constants.PaymentStatusCaptured,
		PaymentMethod: constants.PaymentMethodVoucher,
		Voucher:       &code,
		At:            time.Now(),
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !out.NewlyCaptured {
		t.Fatalf("outcome = %+v", out)
	}
	if fx.invoices.minted != 1 {
		t.Fatalf("invoices minted = %d, want 1", fx.invoices.minted)
	}
}

func TestReconcileUnknownApplicationFails(t *testing.T) {
	fx := newEngineFixture(newTestApplication())

	_, err := fx.engine.Reconcile(&PaymentFact{
		ApplicationID: uuid.New(),
		PaymentID:     "pay_1",
		Status:        constants.PaymentStatusCaptured,
		At:            time.Now(),
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want record-not-found", err)
	}
	if fx.apps.saves != 0 {
		t.Fatal("payment state saved for an unknown application")
	}
}
