package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"admissionsdesk_backend/internals/configs"
	"admissionsdesk_backend/internals/constants"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"captured", constants.PaymentStatusCaptured},
		{"Captured", constants.PaymentStatusCaptured},
		{"refunded", constants.PaymentStatusRefunded},
		{"failed", constants.PaymentStatusFailed},
		{"created", constants.PaymentStatusAttempted},
		{"authorized", constants.PaymentStatusAttempted},
		{"  attempted ", constants.PaymentStatusAttempted},
		{"disputed", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MapGatewayStatus(tc.in); got != tc.want {
			t.Errorf("MapGatewayStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMapWebhookEvent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"payment.captured", constants.PaymentStatusCaptured},
		{"refund.processed", constants.PaymentStatusRefunded},
		{"payment.failed", constants.PaymentStatusFailed},
		{"payment.authorized", ""},
		{"order.paid", ""},
	}
	for _, tc := range cases {
		if got := MapWebhookEvent(tc.in); got != tc.want {
			t.Errorf("MapWebhookEvent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRupeePaiseConversion(t *testing.T) {
	if got := RupeesToPaise(6000); got != 600000 {
		t.Fatalf("RupeesToPaise(6000) = %d", got)
	}
	if got := PaiseToRupees(600000); got != 6000 {
		t.Fatalf("PaiseToRupees(600000) = %d", got)
	}
}

func checkoutSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCheckoutSignature(t *testing.T) {
	prev := configs.RazorpayKeySecret
	configs.RazorpayKeySecret = "test_secret"
	defer func() { configs.RazorpayKeySecret = prev }()

	good := checkoutSignature("order_42", "pay_9", "test_secret")

	if !VerifyCheckoutSignature("order_42", "pay_9", good) {
		t.Fatal("valid signature rejected")
	}
	if VerifyCheckoutSignature("order_42", "pay_10", good) {
		t.Fatal("signature accepted for a different payment")
	}
	if VerifyCheckoutSignature("order_42", "pay_9", checkoutSignature("order_42", "pay_9", "wrong_secret")) {
		t.Fatal("signature from the wrong secret accepted")
	}
	if VerifyCheckoutSignature("order_42", "pay_9", "") {
		t.Fatal("blank signature accepted")
	}
}
