package service

import (
	"database/sql"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appModel "admissionsdesk_backend/internals/features/admissions/applications/model"
	appService "admissionsdesk_backend/internals/features/admissions/applications/service"
	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
	"admissionsdesk_backend/internals/features/payment/payments/model"
	promoModel "admissionsdesk_backend/internals/features/payment/promocodes/model"
)

/*
	========================================================
	  Engine collaborators

	The engine talks to its stores through these interfaces
	so the reconciliation rules are testable with in-memory
	fakes. The gorm* types are the production wiring.
========================================================
*/

// TxRunner runs a function inside a transaction. *gorm.DB satisfies it.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

type ApplicationStore interface {
	// Lock loads the application row FOR UPDATE.
	Lock(tx *gorm.DB, id uuid.UUID) (*appModel.Application, error)
	SavePaymentState(tx *gorm.DB, app *appModel.Application) error
	// AdvanceStage returns whether this call won the advance.
	AdvanceStage(tx *gorm.DB, id uuid.UUID, candidate float64) (bool, error)
}

type PaymentStore interface {
	Upsert(tx *gorm.DB, fact *PaymentFact, userID, collegeID uuid.UUID) (*model.Payment, error)
}

type CodeLedger interface {
	RedeemPromocode(tx *gorm.DB, code string, red promoModel.Redemption) error
	RedeemVoucher(tx *gorm.DB, code string, studentID, applicationID uuid.UUID) error
	VoucherSpentBy(tx *gorm.DB, code string, applicationID uuid.UUID) (bool, error)
}

type InvoiceMinter interface {
	Mint(tx *gorm.DB, applicationID uuid.UUID, paymentID string, amount int) (string, error)
}

// DirectoryReader resolves display names for side-effect payloads.
// Best-effort: a failed lookup returns "".
type DirectoryReader interface {
	StudentName(id uuid.UUID) string
	CourseName(id uuid.UUID) string
}

/* ===================== GORM wiring ===================== */

type gormApplications struct{}

func (gormApplications) Lock(tx *gorm.DB, id uuid.UUID) (*appModel.Application, error) {
	var app appModel.Application
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", id).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (gormApplications) SavePaymentState(tx *gorm.DB, app *appModel.Application) error {
	return tx.Model(&appModel.Application{}).
		Where("application_id = ?", app.ApplicationID).
		Updates(map[string]interface{}{
			"application_payment_info":     app.ApplicationPaymentInfo,
			"application_payment_attempts": app.ApplicationPaymentAttempts,
		}).Error
}

func (gormApplications) AdvanceStage(tx *gorm.DB, id uuid.UUID, candidate float64) (bool, error) {
	return appService.AdvanceStage(tx, id, candidate)
}

type gormPayments struct{}

func (gormPayments) Upsert(tx *gorm.DB, fact *PaymentFact, userID, collegeID uuid.UUID) (*model.Payment, error) {
	return UpsertAttempt(tx, fact, userID, collegeID)
}

type gormInvoices struct{}

func (gormInvoices) Mint(tx *gorm.DB, applicationID uuid.UUID, paymentID string, amount int) (string, error) {
	return MintInvoice(tx, applicationID, paymentID, amount)
}

type gormDirectory struct {
	db *gorm.DB
}

func (d gormDirectory) StudentName(id uuid.UUID) string {
	var student dirModel.Student
	if err := d.db.Where("student_id = ?", id).First(&student).Error; err != nil {
		log.Printf("[WARN] side effects: student %s lookup failed: %v", id, err)
		return ""
	}
	return student.StudentName
}

func (d gormDirectory) CourseName(id uuid.UUID) string {
	var course dirModel.Course
	if err := d.db.Where("course_id = ?", id).First(&course).Error; err != nil {
		log.Printf("[WARN] side effects: course %s lookup failed: %v", id, err)
		return ""
	}
	return course.CourseName
}
