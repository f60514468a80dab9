package helper

import "testing"

func TestBuildPaginationFromPage(t *testing.T) {
	cases := []struct {
		name      string
		total     int64
		page      int
		perPage   int
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"first of many", 95, 1, 20, 5, true, false},
		{"middle page", 95, 3, 20, 5, true, true},
		{"last page", 95, 5, 20, 5, false, true},
		{"empty result still has one page", 0, 1, 20, 1, false, false},
		{"exact multiple", 40, 2, 20, 2, false, true},
		{"zero per page falls back", 10, 1, 0, 1, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildPaginationFromPage(tc.total, tc.page, tc.perPage)
			if p.TotalPages != tc.wantPages {
				t.Fatalf("TotalPages = %d, want %d", p.TotalPages, tc.wantPages)
			}
			if p.HasNext != tc.wantNext || p.HasPrev != tc.wantPrev {
				t.Fatalf("HasNext/HasPrev = %v/%v, want %v/%v", p.HasNext, p.HasPrev, tc.wantNext, tc.wantPrev)
			}
		})
	}
}
