package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Params
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", in: Params{}, wantPage: 1, wantLimit: DefaultLimit},
		{name: "negative page", in: Params{Page: -3, Limit: 10}, wantPage: 1, wantLimit: 10},
		{name: "cap limit", in: Params{Page: 2, Limit: 500}, wantPage: 2, wantLimit: MaxLimit},
		{name: "passthrough", in: Params{Page: 4, Limit: 24}, wantPage: 4, wantLimit: 24},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d", got.Page, got.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 12}).Offset(); got != 24 {
		t.Fatalf("expected offset 24, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
}

func TestTotalPages(t *testing.T) {
	if got := TotalPages(25, 12); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := TotalPages(24, 12); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if got := TotalPages(0, 12); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
}
