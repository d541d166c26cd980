package reports

import (
	"math"
	"testing"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want Derived
	}{
		{
			name: "balanced delivery",
			row:  Row{Delivered: 100, Counted: 95, Doa: 5, Slaughtered: 90},
			want: Derived{CountedTotal: 100, Discrepancy: 0, YieldPercentage: 90, DoaPercentage: 5},
		},
		{
			name: "shortfall",
			row:  Row{Delivered: 50, Counted: 48, Doa: 1, Slaughtered: 45},
			want: Derived{CountedTotal: 49, Discrepancy: -1, YieldPercentage: 45.0 / 49.0 * 100, DoaPercentage: 1.0 / 49.0 * 100},
		},
		{
			name: "surplus",
			row:  Row{Delivered: 30, Counted: 32, Doa: 0, Slaughtered: 30},
			want: Derived{CountedTotal: 32, Discrepancy: 2, YieldPercentage: 93.75, DoaPercentage: 0},
		},
		{
			name: "zero counted total never divides",
			row:  Row{Delivered: 10},
			want: Derived{CountedTotal: 0, Discrepancy: -10, YieldPercentage: 0, DoaPercentage: 0},
		},
		{
			name: "empty row is the zero identity",
			row:  Row{},
			want: Derived{},
		},
	}
	for _, tc := range tests {
		got := Derive(tc.row)
		if got.CountedTotal != tc.want.CountedTotal {
			t.Fatalf("%s: counted total = %d, want %d", tc.name, got.CountedTotal, tc.want.CountedTotal)
		}
		if got.Discrepancy != tc.want.Discrepancy {
			t.Fatalf("%s: discrepancy = %d, want %d", tc.name, got.Discrepancy, tc.want.Discrepancy)
		}
		if !closeTo(got.YieldPercentage, tc.want.YieldPercentage) {
			t.Fatalf("%s: yield = %v, want %v", tc.name, got.YieldPercentage, tc.want.YieldPercentage)
		}
		if !closeTo(got.DoaPercentage, tc.want.DoaPercentage) {
			t.Fatalf("%s: doa%% = %v, want %v", tc.name, got.DoaPercentage, tc.want.DoaPercentage)
		}
	}
}

func TestDeriveNeverProducesNaNOrInf(t *testing.T) {
	rows := []Row{
		{},
		{Delivered: 100},
		{Counted: 1, Doa: 0, Slaughtered: 0},
		{Counted: 0, Doa: 0, Slaughtered: 50},
	}
	for _, r := range rows {
		d := Derive(r)
		for _, v := range []float64{d.YieldPercentage, d.DoaPercentage} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %+v produced non-finite percentage %v", r, v)
			}
			if v < 0 {
				t.Fatalf("row %+v produced negative percentage %v", r, v)
			}
		}
	}
}

func TestDeriveOverSlaughterNotClamped(t *testing.T) {
	// More slaughtered than arrived is bad source data. The yield is
	// reported as-is (here 200%) rather than clamped to 100, so the
	// anomaly stays visible in every view instead of being hidden.
	d := Derive(Row{Delivered: 10, Counted: 10, Slaughtered: 20})
	if !closeTo(d.YieldPercentage, 200) {
		t.Fatalf("yield = %v, want 200 (unclamped)", d.YieldPercentage)
	}
}

func TestCountedTotalSumInvariant(t *testing.T) {
	rows := []Row{
		{Counted: 95, Doa: 5},
		{Counted: 48, Doa: 1},
		{Counted: 0, Doa: 0},
		{Counted: 29, Doa: 3},
	}
	var sumTotals, sumCounted, sumDoa int
	for _, r := range rows {
		sumTotals += Derive(r).CountedTotal
		sumCounted += r.Counted
		sumDoa += r.Doa
	}
	if sumTotals != sumCounted+sumDoa {
		t.Fatalf("sum(counted_total) = %d, want %d", sumTotals, sumCounted+sumDoa)
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
