package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"admissionsdesk_backend/internals/constants"
	"admissionsdesk_backend/internals/features/payment/promocodes/model"
)

func intPtr(n int) *int { return &n }

func TestDiscountedAmount(t *testing.T) {
	cases := []struct {
		name          string
		courseFee     int
		preferenceFee *int
		discount      int
		want          int
	}{
		{"flat percent on whole fee", 6000, nil, 10, 5400},
		{"full discount", 6000, nil, 100, 0},
		{"zero discount", 6000, nil, 0, 6000},
		{"discount limited to preference component", 6000, intPtr(5000), 10, 5500},
		{"full discount still pays the surcharge", 6000, intPtr(5000), 100, 1000},
		{"preference fee equal to total falls back to flat", 6000, intPtr(6000), 10, 5400},
		{"zero preference fee falls back to flat", 6000, intPtr(0), 10, 5400},
		{"integer floor", 999, nil, 33, 670},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DiscountedAmount(tc.courseFee, tc.preferenceFee, tc.discount); got != tc.want {
				t.Fatalf("DiscountedAmount(%d, %v, %d) = %d, want %d",
					tc.courseFee, tc.preferenceFee, tc.discount, got, tc.want)
			}
		})
	}
}

func TestPromocodeDerivedStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	base := model.Promocode{
		PromocodeStartDate: now.AddDate(0, 0, -7),
		PromocodeEndDate:   now.AddDate(0, 0, 7),
		PromocodeUnits:     10,
	}

	t.Run("active inside window", func(t *testing.T) {
		p := base
		if got := p.DerivedStatus(now); got != model.PromocodeStatusActive {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("upcoming before window", func(t *testing.T) {
		p := base
		p.PromocodeStartDate = now.AddDate(0, 0, 1)
		if got := p.DerivedStatus(now); got != model.PromocodeStatusUpcoming {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("expired after window", func(t *testing.T) {
		p := base
		p.PromocodeEndDate = now.AddDate(0, 0, -1)
		if got := p.DerivedStatus(now); got != model.PromocodeStatusExpired {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("kill switch beats the window", func(t *testing.T) {
		p := base
		p.PromocodeInactive = true
		if got := p.DerivedStatus(now); got != model.PromocodeStatusInactive {
			t.Fatalf("got %q", got)
		}
	})
}

func TestVerifyPromocode(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s := &LedgerService{} // no segment restriction, the DB is never touched

	save10 := model.Promocode{
		PromocodeCode:         "SAVE10",
		PromocodeDiscount:     10,
		PromocodeStartDate:    now.AddDate(0, 0, -7),
		PromocodeEndDate:      now.AddDate(0, 0, 7),
		PromocodeUnits:        5,
		PromocodeAppliedCount: 4,
	}

	t.Run("last unit applies successfully", func(t *testing.T) {
		p := save10
		res, err := s.verifyPromocode(&p, 1000, uuid.New(), nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != constants.CodeStatusApplied || res.Amount != 900 || res.Discount != 10 {
			t.Fatalf("got %+v, want Applied / amount 900 / discount 10", res)
		}
	})

	t.Run("capacity exhausted is Invalid even inside the window", func(t *testing.T) {
		p := save10
		p.PromocodeAppliedCount = 5
		res, err := s.verifyPromocode(&p, 1000, uuid.New(), nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != constants.CodeStatusInvalid || res.Amount != 1000 {
			t.Fatalf("got %+v, want Invalid at the full fee", res)
		}
	})

	t.Run("expired window is Invalid", func(t *testing.T) {
		p := save10
		p.PromocodeEndDate = now.AddDate(0, 0, -1)
		res, err := s.verifyPromocode(&p, 1000, uuid.New(), nil, now)
		if err != nil {
			t.Fatal(err)
		}
		if res.Status != constants.CodeStatusInvalid {
			t.Fatalf("got %+v, want Invalid", res)
		}
	})
}

func TestPromocodeCapacity(t *testing.T) {
	p := model.Promocode{PromocodeUnits: 2, PromocodeAppliedCount: 1}
	if !p.HasCapacity() {
		t.Fatal("one of two units used, capacity expected")
	}
	p.PromocodeAppliedCount = 2
	if p.HasCapacity() {
		t.Fatal("all units used, no capacity expected")
	}
}
