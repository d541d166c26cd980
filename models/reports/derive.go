package reports

// Derived holds the per-row calculated fields. Recomputed on every read;
// never persisted as ground truth.
type Derived struct {
	// CountedTotal is bird counter + DOA: the birds that physically arrived.
	// It is the denominator for every percentage in the system so that
	// truck, farm and overall views stay mutually consistent.
	CountedTotal int `json:"counted_total"`
	// Discrepancy is counted total - delivered. Positive = extra birds,
	// negative = missing birds.
	Discrepancy     int     `json:"discrepancy"`
	YieldPercentage float64 `json:"yield_percentage"`
	DoaPercentage   float64 `json:"doa_percentage"`
}

// Derive computes the calculated fields for one row. Total function: absent
// numerics are zero-valued by construction and a zero counted total yields
// zero percentages, never NaN or Inf.
func Derive(r Row) Derived {
	countedTotal := r.Counted + r.Doa
	d := Derived{
		CountedTotal: countedTotal,
		Discrepancy:  countedTotal - r.Delivered,
	}
	if countedTotal > 0 {
		d.YieldPercentage = float64(r.Slaughtered) / float64(countedTotal) * 100
		d.DoaPercentage = float64(r.Doa) / float64(countedTotal) * 100
	}
	return d
}

// percentage is the one division used by every aggregate view.
func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
