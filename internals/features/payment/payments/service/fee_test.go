package service

import (
	"testing"

	dirModel "admissionsdesk_backend/internals/features/admissions/directory/model"
)

func feeRules() dirModel.FeeRules {
	return dirModel.FeeRules{
		BaseFees: map[string]map[string]int{
			"B.Tech": {
				"Computer Science": 5000,
				"Mechanical":       4000,
			},
		},
		AdditionalFees: []dirModel.AdditionalFeeRule{
			{TriggerCount: 2, Amount: 300},
			{TriggerCount: 3, Amount: 500},
		},
		FeeCap: 7000,
	}
}

func TestCalculateApplicationFee(t *testing.T) {
	cases := []struct {
		name        string
		preferences []string
		course      string
		wantTotal   int
		wantExtra   int
	}{
		{
			name:        "single preference pays base only",
			preferences: []string{"Computer Science"},
			course:      "B.Tech",
			wantTotal:   5000,
			wantExtra:   0,
		},
		{
			name:        "two preferences use the 2-trigger rule",
			preferences: []string{"Computer Science", "Mechanical"},
			course:      "B.Tech",
			wantTotal:   5300,
			wantExtra:   300,
		},
		{
			name:        "three preferences use the largest satisfied rule",
			preferences: []string{"Computer Science", "Mechanical", "Civil"},
			course:      "B.Tech",
			wantTotal:   6000,
			wantExtra:   500,
		},
		{
			name:        "total is capped",
			preferences: []string{"Computer Science", "a", "b", "c", "d", "e"},
			course:      "B.Tech",
			wantTotal:   7000,
			wantExtra:   500,
		},
		{
			name:        "unknown course has no base fee",
			preferences: []string{"Computer Science", "Mechanical"},
			course:      "MBA",
			wantTotal:   300,
			wantExtra:   300,
		},
		{
			name:        "no preferences",
			preferences: nil,
			course:      "B.Tech",
			wantTotal:   0,
			wantExtra:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, extra := CalculateApplicationFee(tc.preferences, feeRules(), tc.course)
			if total != tc.wantTotal || extra != tc.wantExtra {
				t.Fatalf("got (%d, %d), want (%d, %d)", total, extra, tc.wantTotal, tc.wantExtra)
			}
		})
	}
}

func TestFirstPreferenceComponent(t *testing.T) {
	cases := []struct {
		name        string
		total       int
		perExtra    int
		preferences int
		want        int
	}{
		{"single preference keeps the whole total", 5000, 0, 1, 5000},
		{"two preferences strip one surcharge", 5300, 300, 2, 5000},
		{"three preferences strip two surcharges", 6000, 500, 3, 5000},
		{"capped total never goes negative", 1000, 500, 4, 0},
		{"zero preferences keeps the total", 0, 500, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FirstPreferenceComponent(tc.total, tc.perExtra, tc.preferences); got != tc.want {
				t.Fatalf("FirstPreferenceComponent(%d, %d, %d) = %d, want %d",
					tc.total, tc.perExtra, tc.preferences, got, tc.want)
			}
		})
	}
}
