package service

import (
	"testing"

	"admissionsdesk_backend/internals/constants"
)

func TestShouldAdvance(t *testing.T) {
	cases := []struct {
		name      string
		current   float64
		candidate float64
		want      bool
	}{
		{"forward", constants.StageEnquiry, constants.StageBasicDetails, true},
		{"skip ahead", constants.StageEnquiry, constants.StagePaymentCaptured, true},
		{"same stage", constants.StageAddress, constants.StageAddress, false},
		{"backwards", constants.StagePaymentCaptured, constants.StageBasicDetails, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldAdvance(tc.current, tc.candidate); got != tc.want {
				t.Fatalf("ShouldAdvance(%.2f, %.2f) = %v, want %v", tc.current, tc.candidate, got, tc.want)
			}
		})
	}
}

func TestShouldAdvanceAfterUpload(t *testing.T) {
	cases := []struct {
		name      string
		current   float64
		candidate float64
		want      bool
	}{
		{"from payment captured", constants.StagePaymentCaptured, constants.StageDocumentsUploaded, true},
		{"not paid yet", constants.StageEducationDetails, constants.StageDocumentsUploaded, false},
		{"already uploaded", constants.StageDocumentsUploaded, constants.StageDocumentsUploaded, false},
		{"declared cannot re-upload", constants.StageDeclared, constants.StageDocumentsUploaded, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldAdvanceAfterUpload(tc.current, tc.candidate); got != tc.want {
				t.Fatalf("ShouldAdvanceAfterUpload(%.2f, %.2f) = %v, want %v", tc.current, tc.candidate, got, tc.want)
			}
		})
	}
}

func TestShouldDeclare(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		want    bool
	}{
		{"from documents uploaded", constants.StageDocumentsUploaded, true},
		{"straight from payment", constants.StagePaymentCaptured, false},
		{"from profile stage", constants.StageEducationDetails, false},
		{"already declared", constants.StageDeclared, false},
		{"from enquiry", constants.StageEnquiry, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldDeclare(tc.current); got != tc.want {
				t.Fatalf("ShouldDeclare(%.2f) = %v, want %v", tc.current, got, tc.want)
			}
		})
	}
}
