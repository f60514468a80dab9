package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"admissionsdesk_backend/internals/features/payment/payments/model"
)

/*
	========================================================
	  Invoice numbering

	Legacy scheme kept as-is: read the most recent invoices,
	take the first non-empty number and bump its numeric
	suffix; seed "{year}-INV01" when nothing is found.
	Two first-captures in the same instant can still read
	the same latest row and mint the same number — known
	race, deliberately not fixed here.
========================================================
*/

func NextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	var recent []model.Invoice
	if err := tx.Order("created_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return "", err
	}

	last := ""
	for _, inv := range recent {
		if strings.TrimSpace(inv.InvoiceNumber) != "" {
			last = inv.InvoiceNumber
			break
		}
	}
	if last == "" {
		return fmt.Sprintf("%d-INV01", now.Year()), nil
	}
	return IncrementInvoiceNumber(last, now.Year()), nil
}

// IncrementInvoiceNumber bumps the numeric suffix after "INV". A missing or
// garbled suffix restarts the sequence at 01 (legacy fallback arithmetic).
func IncrementInvoiceNumber(last string, year int) string {
	idx := strings.LastIndex(last, "INV")
	if idx < 0 {
		return fmt.Sprintf("%d-INV01", year)
	}
	n, err := strconv.Atoi(last[idx+3:])
	if err != nil {
		n = 0
	}
	return fmt.Sprintf("%d-INV%02d", year, n+1)
}

// MintInvoice creates the invoice row for a freshly captured payment and
// returns its number.
func MintInvoice(tx *gorm.DB, applicationID uuid.UUID, paymentID string, amount int) (string, error) {
	number, err := NextInvoiceNumber(tx, time.Now())
	if err != nil {
		return "", err
	}

	invoice := model.Invoice{
		InvoiceNumber:        number,
		InvoiceApplicationID: applicationID,
		InvoicePaymentID:     paymentID,
		InvoiceAmount:        amount,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		return "", err
	}
	return number, nil
}
