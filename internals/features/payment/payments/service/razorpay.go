package service

import (
	"fmt"
	"log"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	razorpayUtils "github.com/razorpay/razorpay-go/utils"

	"admissionsdesk_backend/internals/configs"
	"admissionsdesk_backend/internals/constants"
)

/*
	========================================================
	  Razorpay wrapper

	The only place rupees are converted to paise and back.
	Everything else in the codebase works in rupees.
========================================================
*/

var rzpClient *razorpay.Client

// Call at bootstrap
func InitRazorpay(keyID, keySecret string) {
	rzpClient = razorpay.NewClient(keyID, keySecret)
	log.Println("✅ Razorpay client ready")
}

func RupeesToPaise(rupees int) int { return rupees * 100 }

func PaiseToRupees(paise int) int { return paise / 100 }

type GatewayOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"` // rupees
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"` // filled on fetch, empty on create
}

// CreateGatewayOrder creates a Razorpay order for the given rupee amount.
func CreateGatewayOrder(amountRupees int, receipt string, notes map[string]interface{}) (*GatewayOrder, error) {
	if rzpClient == nil {
		return nil, fmt.Errorf("razorpay client not initialised")
	}

	data := map[string]interface{}{
		"amount":   RupeesToPaise(amountRupees),
		"currency": "INR",
		"receipt":  receipt,
		"notes":    notes,
	}
	body, err := rzpClient.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay order create: no order id in response")
	}

	return &GatewayOrder{
		OrderID:  orderID,
		Amount:   amountRupees,
		Currency: "INR",
		Receipt:  receipt,
	}, nil
}

// FetchGatewayOrder re-reads an order from Razorpay.
func FetchGatewayOrder(orderID string) (*GatewayOrder, error) {
	if rzpClient == nil {
		return nil, fmt.Errorf("razorpay client not initialised")
	}

	body, err := rzpClient.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch: %w", err)
	}

	order := &GatewayOrder{OrderID: orderID}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Status, _ = body["status"].(string)
	if amt, ok := body["amount"].(float64); ok {
		order.Amount = PaiseToRupees(int(amt))
	}
	return order, nil
}

// FetchGatewayPaymentsForOrder lists every payment the gateway has seen for
// an order. Used by the operator re-reconcile tool to repair missed
// webhooks.
func FetchGatewayPaymentsForOrder(orderID string) ([]GatewayPayment, error) {
	if rzpClient == nil {
		return nil, fmt.Errorf("razorpay client not initialised")
	}

	body, err := rzpClient.Order.Payments(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order payments: %w", err)
	}

	items, _ := body["items"].([]interface{})
	payments := make([]GatewayPayment, 0, len(items))
	for _, raw := range items {
		if m, ok := raw.(map[string]interface{}); ok {
			payments = append(payments, *gatewayPaymentFromMap(m))
		}
	}
	return payments, nil
}

type GatewayPayment struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"` // gateway vocabulary
	Amount    int    `json:"amount"` // rupees
	Method    string `json:"method"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorDesc string `json:"error_description,omitempty"`
}

// FetchGatewayPayment re-reads a payment from Razorpay. Used by the
// client-verify path: a client-asserted "captured" is never trusted without
// this round trip.
func FetchGatewayPayment(paymentID string) (*GatewayPayment, error) {
	if rzpClient == nil {
		return nil, fmt.Errorf("razorpay client not initialised")
	}

	body, err := rzpClient.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay payment fetch: %w", err)
	}
	return gatewayPaymentFromMap(body), nil
}

// CaptureGatewayPayment captures an authorized payment for the given amount.
func CaptureGatewayPayment(paymentID string, amountRupees int) (*GatewayPayment, error) {
	if rzpClient == nil {
		return nil, fmt.Errorf("razorpay client not initialised")
	}

	body, err := rzpClient.Payment.Capture(paymentID, RupeesToPaise(amountRupees), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay payment capture: %w", err)
	}
	return gatewayPaymentFromMap(body), nil
}

func gatewayPaymentFromMap(body map[string]interface{}) *GatewayPayment {
	p := &GatewayPayment{}
	p.PaymentID, _ = body["id"].(string)
	p.OrderID, _ = body["order_id"].(string)
	p.Status, _ = body["status"].(string)
	p.Method, _ = body["method"].(string)
	if amt, ok := body["amount"].(float64); ok {
		p.Amount = PaiseToRupees(int(amt))
	}
	p.ErrorCode, _ = body["error_code"].(string)
	p.ErrorDesc, _ = body["error_description"].(string)
	return p
}

/* ===================== Signatures ===================== */

// VerifyCheckoutSignature checks the signature the checkout JS hands the
// client after a payment: HMAC of "order_id|payment_id" under the key
// secret.
func VerifyCheckoutSignature(orderID, paymentID, signature string) bool {
	if strings.TrimSpace(signature) == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return razorpayUtils.VerifyPaymentSignature(params, signature, configs.RazorpayKeySecret)
}

// VerifyWebhookSignature checks the x-razorpay-signature header against the
// raw body.
func VerifyWebhookSignature(body []byte, signature string) bool {
	if strings.TrimSpace(signature) == "" || configs.RazorpayWebhookSecret == "" {
		return false
	}
	return razorpayUtils.VerifyWebhookSignature(string(body), signature, configs.RazorpayWebhookSecret)
}

/* ===================== Status mapping ===================== */

// MapGatewayStatus maps Razorpay payment/event vocabulary to internal
// statuses. Unknown statuses map to "" and are ignored by callers.
func MapGatewayStatus(gatewayStatus string) string {
	switch strings.ToLower(strings.TrimSpace(gatewayStatus)) {
	case "captured":
		return constants.PaymentStatusCaptured
	case "refunded":
		return constants.PaymentStatusRefunded
	case "failed":
		return constants.PaymentStatusFailed
	case "created", "authorized", "attempted":
		return constants.PaymentStatusAttempted
	default:
		return ""
	}
}

// MapWebhookEvent maps webhook event names to internal statuses.
func MapWebhookEvent(event string) string {
	switch strings.ToLower(strings.TrimSpace(event)) {
	case "payment.captured":
		return constants.PaymentStatusCaptured
	case "refund.processed":
		return constants.PaymentStatusRefunded
	case "payment.failed":
		return constants.PaymentStatusFailed
	default:
		return ""
	}
}
