package reports

import (
	"context"
	"errors"
	"testing"
)

type stubSource struct {
	batches []BatchMeta
	rows    map[int][]Row
	err     error
}

func (s stubSource) Batches(ctx context.Context) ([]BatchMeta, error) {
	return s.batches, s.err
}

func (s stubSource) Rows(ctx context.Context, batchIds []int) ([]Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Row
	for _, id := range batchIds {
		out = append(out, s.rows[id]...)
	}
	return out, nil
}

func TestBuildTrend(t *testing.T) {
	src := stubSource{
		batches: []BatchMeta{
			{ID: 1, Filename: "06-03-2024.xlsx"},
			{ID: 2, Filename: "05-03-2024.xlsx"},
			{ID: 3, Filename: "5-3-2024.xlsx"}, // same logical date as batch 2
			{ID: 4, Filename: "report_final.xlsx"},
		},
		rows: map[int][]Row{
			1: {{BatchID: 1, Delivered: 100, Counted: 95, Doa: 5, Slaughtered: 90}},
			2: {{BatchID: 2, Delivered: 50, Counted: 48, Doa: 1, Slaughtered: 45}},
			3: {{BatchID: 3, Delivered: 30, Counted: 29, Doa: 0, Slaughtered: 28}},
			4: {{BatchID: 4, Delivered: 999}},
		},
	}

	got, err := BuildTrend(context.Background(), src)
	if err != nil {
		t.Fatalf("BuildTrend: %v", err)
	}
	if got.SkippedBatches != 1 {
		t.Fatalf("skipped = %d, want 1", got.SkippedBatches)
	}
	if len(got.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2: %+v", len(got.Buckets), got.Buckets)
	}
	if got.Buckets[0].Date != "2024-03-05" || got.Buckets[1].Date != "2024-03-06" {
		t.Fatalf("buckets not date-ascending: %+v", got.Buckets)
	}

	merged := got.Buckets[0]
	if merged.BatchCount != 2 || merged.RowCount != 2 {
		t.Fatalf("batches sharing a date must merge: %+v", merged)
	}
	if merged.Delivered != 80 || merged.CountedTotal != 78 || merged.Discrepancy != -2 {
		t.Fatalf("merged bucket sums wrong: %+v", merged)
	}
	if !closeTo(merged.YieldPercentage, 73.0/78.0*100) {
		t.Fatalf("merged yield = %v, want %v", merged.YieldPercentage, 73.0/78.0*100)
	}

	// The skipped batch's rows must not leak into any bucket.
	var delivered int
	for _, b := range got.Buckets {
		delivered += b.Delivered
	}
	if delivered != 180 {
		t.Fatalf("total delivered = %d, want 180 (skipped batch excluded)", delivered)
	}
}

func TestBuildTrendEmptyStore(t *testing.T) {
	got, err := BuildTrend(context.Background(), stubSource{})
	if err != nil {
		t.Fatalf("BuildTrend: %v", err)
	}
	if len(got.Buckets) != 0 || got.SkippedBatches != 0 {
		t.Fatalf("empty store should produce an empty trend: %+v", got)
	}
}

func TestBuildTrendSourceError(t *testing.T) {
	wantErr := errors.New("store down")
	if _, err := BuildTrend(context.Background(), stubSource{err: wantErr}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestResolveWindowIdempotent(t *testing.T) {
	src := stubSource{
		batches: []BatchMeta{
			{ID: 1, Filename: "04-03-2024.xlsx"},
			{ID: 2, Filename: "10-03-2024.xlsx"},
		},
		rows: map[int][]Row{
			1: {{BatchID: 1, Delivered: 50, Counted: 48, Doa: 1, Slaughtered: 45}},
			2: {{BatchID: 2, Delivered: 100, Counted: 95, Doa: 5, Slaughtered: 90}},
		},
	}
	w := Window{Reference: src.batches[1], Days: 7}

	first, err := ResolveWindow(context.Background(), src, w)
	if err != nil {
		t.Fatalf("ResolveWindow: %v", err)
	}
	second, err := ResolveWindow(context.Background(), src, w)
	if err != nil {
		t.Fatalf("ResolveWindow: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("window should select both batches: %d, %d rows", len(first), len(second))
	}
	a := Overall(first)
	b := Overall(second)
	if a != b {
		t.Fatalf("identical windows must aggregate identically: %+v vs %+v", a, b)
	}
}
