package constants

/* ===================== Application stages ===================== */

// Fixed ordinal vocabulary of the application pipeline. Downstream
// subsystems (document verification, interview planner, dashboards) compare
// against these exact values, so they must never change.
const (
	StageEnquiry           = 1.25
	StageBasicDetails      = 2.50
	StageParentsDetails    = 3.75
	StageAddress           = 5.00
	StageEducationDetails  = 6.25
	StagePaymentCaptured   = 7.50
	StageDocumentsUploaded = 8.75
	StageDeclared          = 10.00
)

// StageLabel is used by timeline messages and admin listings.
func StageLabel(stage float64) string {
	switch stage {
	case StageEnquiry:
		return "Enquiry"
	case StageBasicDetails:
		return "Basic Details"
	case StageParentsDetails:
		return "Parents Details"
	case StageAddress:
		return "Address"
	case StageEducationDetails:
		return "Education Details"
	case StagePaymentCaptured:
		return "Payment Captured"
	case StageDocumentsUploaded:
		return "Documents Uploaded"
	case StageDeclared:
		return "Declared"
	default:
		return "Unknown"
	}
}
