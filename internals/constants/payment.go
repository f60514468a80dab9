package constants

/* ===================== Payment statuses ===================== */

const (
	PaymentStatusAttempted = "attempted"
	PaymentStatusCaptured  = "captured"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

/* ===================== Payment methods ===================== */

const (
	PaymentMethodGateway   = "As per Flow"
	PaymentMethodOffline   = "Offline"
	PaymentMethodPromocode = "Promocode"
	PaymentMethodVoucher   = "Voucher"
)

// SentinelPaymentID marks payments that never touched the gateway
// (offline captures, promocode/voucher redemptions).
const SentinelPaymentID = "None"

/* ===================== Promocode verify outcomes ===================== */

// Expected outcomes on a hot path, returned as status strings and never as
// errors (many users try expired or foreign codes).
const (
	CodeStatusInvalid       = "Invalid"
	CodeStatusNotApplicable = "Not Applicable"
	CodeStatusApplied       = "Applied Successfully"
)

/* ===================== Roles ===================== */

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

var StaffRoles = []string{RoleCounselor, RoleAdmin}
