package reports

import "testing"

func TestClassifyYieldFloorBoundary(t *testing.T) {
	rows := []Row{
		// yield exactly 80.00, no discrepancy, no DOA
		{TruckNo: "OK", Delivered: 10000, Counted: 10000, Slaughtered: 8000},
		// yield 79.99
		{TruckNo: "ALERT", Delivered: 10000, Counted: 10000, Slaughtered: 7999},
	}
	got := Classify(rows, DefaultThresholds())
	if got[0].Status != StatusOK {
		t.Fatalf("yield 80.00%% should be OK, got %+v", got[0])
	}
	if got[1].Status != StatusAlert {
		t.Fatalf("yield 79.99%% should be ALERT, got %+v", got[1])
	}
}

func TestClassifyDiscrepancy(t *testing.T) {
	rows := []Row{
		{Delivered: 100, Counted: 95, Doa: 5, Slaughtered: 90},  // discrepancy 0
		{Delivered: 101, Counted: 95, Doa: 5, Slaughtered: 90},  // shortfall of 1
		{Delivered: 99, Counted: 95, Doa: 5, Slaughtered: 90},   // surplus of 1
	}
	got := Classify(rows, DefaultThresholds())
	if got[0].Status != StatusOK {
		t.Fatalf("zero discrepancy should be OK, got %+v", got[0])
	}
	for _, a := range got[1:] {
		if a.Status != StatusAlert {
			t.Fatalf("nonzero discrepancy should alert with the default threshold: %+v", a)
		}
	}

	// A wider magnitude threshold tolerates both.
	loose := DefaultThresholds()
	loose.DiscrepancyMagnitude = 2
	got = Classify(rows, loose)
	for _, a := range got {
		if a.Status != StatusOK {
			t.Fatalf("discrepancy within magnitude 2 should be OK: %+v", a)
		}
	}
}

func TestClassifySeverity(t *testing.T) {
	rows := []Row{
		// yield 75: between the floor and the danger floor
		{Delivered: 100, Counted: 100, Slaughtered: 75},
		// yield 60: below the danger floor
		{Delivered: 100, Counted: 100, Slaughtered: 60},
		// DOA 6% with healthy yield
		{Delivered: 100, Counted: 94, Doa: 6, Slaughtered: 90},
	}
	got := Classify(rows, DefaultThresholds())
	if got[0].Severity != SeverityWarning {
		t.Fatalf("yield 75%% should be a warning, got %+v", got[0])
	}
	if got[1].Severity != SeverityDanger {
		t.Fatalf("yield 60%% should be danger, got %+v", got[1])
	}
	if got[2].Status != StatusAlert || got[2].Severity != SeverityDanger {
		t.Fatalf("DOA 6%% should be a danger alert, got %+v", got[2])
	}
}

func TestClassifyPreservesOrderAndFields(t *testing.T) {
	rows := []Row{
		{TruckNo: "T2", Farm: "B", DoNumber: "DO-2", Delivered: 100, Counted: 95, Doa: 5, Slaughtered: 90, NonHalal: 2},
		{TruckNo: "T1", Farm: "A", DoNumber: "DO-1", Delivered: 50, Counted: 50, Slaughtered: 48},
	}
	got := Classify(rows, DefaultThresholds())
	if len(got) != 2 {
		t.Fatalf("got %d records, want one per row", len(got))
	}
	if got[0].TruckNo != "T2" || got[1].TruckNo != "T1" {
		t.Fatalf("classifier must preserve input order: %+v", got)
	}
	if got[0].NonHalal != 2 || got[0].CountedTotal != 100 {
		t.Fatalf("classified row must carry raw and derived fields: %+v", got[0])
	}
}

func TestClassifyEmptyRowSet(t *testing.T) {
	if got := Classify(nil, DefaultThresholds()); len(got) != 0 {
		t.Fatalf("empty input should classify to empty output, got %v", got)
	}
}
