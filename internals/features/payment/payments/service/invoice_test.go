package service

import "testing"

func TestIncrementInvoiceNumber(t *testing.T) {
	cases := []struct {
		name string
		last string
		year int
		want string
	}{
		{"normal increment", "2026-INV07", 2026, "2026-INV08"},
		{"two digit rollover", "2026-INV09", 2026, "2026-INV10"},
		{"grows past two digits", "2026-INV99", 2026, "2026-INV100"},
		{"year changes but sequence continues", "2025-INV42", 2026, "2026-INV43"},
		{"garbled suffix restarts", "2026-INVabc", 2026, "2026-INV01"},
		{"empty suffix restarts", "2026-INV", 2026, "2026-INV01"},
		{"no INV marker seeds fresh", "receipt-77", 2026, "2026-INV01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IncrementInvoiceNumber(tc.last, tc.year); got != tc.want {
				t.Fatalf("IncrementInvoiceNumber(%q, %d) = %q, want %q", tc.last, tc.year, got, tc.want)
			}
		})
	}
}
