package pagination

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{name: "zero values", in: Params{}, want: Params{Page: 1, Limit: 20}},
		{name: "negative page", in: Params{Page: -3, Limit: 10}, want: Params{Page: 1, Limit: 10}},
		{name: "limit over max", in: Params{Page: 2, Limit: 500}, want: Params{Page: 2, Limit: 50}},
		{name: "limit at max", in: Params{Page: 4, Limit: 50}, want: Params{Page: 4, Limit: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLimitsNormalizeUsesConfiguredBounds(t *testing.T) {
	l := Limits{Default: 5, Max: 10}
	if got := l.Normalize(Params{}); got.Limit != 5 {
		t.Fatalf("expected default 5, got %d", got.Limit)
	}
	if got := l.Normalize(Params{Limit: 11}); got.Limit != 10 {
		t.Fatalf("expected cap 10, got %d", got.Limit)
	}

	broken := Limits{Default: 80, Max: 0}
	if got := broken.Normalize(Params{}); got.Limit != DefaultLimit {
		t.Fatalf("expected fallback %d, got %d", DefaultLimit, got.Limit)
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	p := Params{Page: 3, Limit: 20}
	if p.Offset() != 40 {
		t.Fatalf("expected offset 40, got %d", p.Offset())
	}
	if TotalPages(0, 20) != 0 {
		t.Fatal("expected zero pages for empty result")
	}
	if TotalPages(41, 20) != 3 {
		t.Fatalf("expected 3 pages, got %d", TotalPages(41, 20))
	}
	if TotalPages(40, 20) != 2 {
		t.Fatalf("expected 2 pages, got %d", TotalPages(40, 20))
	}
}

func TestNewPageAndMap(t *testing.T) {
	page := NewPage[int](nil, 0, Params{Page: 1, Limit: 20})
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatal("expected empty non-nil items")
	}

	src := NewPage([]int{1, 2}, 12, Params{Page: 2, Limit: 5})
	mapped := Map(src, func(v int) string { return string(rune('a' + v)) })
	if mapped.Total != 12 || mapped.TotalPages != 3 || mapped.Page != 2 || mapped.Limit != 5 {
		t.Fatalf("unexpected counts %+v", mapped)
	}
	if mapped.Items[0] != "b" || mapped.Items[1] != "c" {
		t.Fatalf("unexpected items %+v", mapped.Items)
	}
}
