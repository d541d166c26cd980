package reports

// GroupBy selects the grouping dimension for Rollup.
type GroupBy int

const (
	GroupNone GroupBy = iota
	GroupTruck
	GroupFarm
	GroupCategory
)

// Aggregate is one reduced group: summed raw quantities plus percentage
// fields computed from the sums. Ephemeral, computed per query.
type Aggregate struct {
	Key      string `json:"key,omitempty"`
	RowCount int    `json:"row_count"`

	Delivered    int `json:"delivered"`
	Counted      int `json:"counted"`
	Doa          int `json:"doa"`
	Slaughtered  int `json:"slaughtered"`
	NonHalal     int `json:"non_halal"`
	CountedTotal int `json:"counted_total"`
	Discrepancy  int `json:"discrepancy"`

	YieldPercentage float64 `json:"yield_percentage"`
	DoaPercentage   float64 `json:"doa_percentage"`
}

func (a *Aggregate) add(r Row) {
	a.RowCount++
	a.Delivered += r.Delivered
	a.Counted += r.Counted
	a.Doa += r.Doa
	a.Slaughtered += r.Slaughtered
	a.NonHalal += r.NonHalal
}

// finish computes the derived fields from the group sums. Percentages come
// from the summed quantities, never from averaging per-row percentages.
func (a *Aggregate) finish() {
	a.CountedTotal = a.Counted + a.Doa
	a.Discrepancy = a.CountedTotal - a.Delivered
	a.YieldPercentage = percentage(a.Slaughtered, a.CountedTotal)
	a.DoaPercentage = percentage(a.Doa, a.CountedTotal)
}

func groupKey(r Row, by GroupBy) string {
	switch by {
	case GroupTruck:
		return r.TruckNo
	case GroupFarm:
		return r.Farm
	case GroupCategory:
		return r.Category
	default:
		return ""
	}
}

// Rollup reduces a row set into grouped aggregates. Keys are the raw
// truck/farm/category strings, case-sensitive, no normalization: a typo'd
// farm name surfaces as its own group instead of silently merging. Groups
// come back in first-seen order; sorting is a presentation concern.
//
// GroupNone reduces the whole set as a single group. An empty row set
// returns the zero identity for GroupNone and an empty slice otherwise.
func Rollup(rows []Row, by GroupBy) []Aggregate {
	if by == GroupNone {
		var a Aggregate
		for _, r := range rows {
			a.add(r)
		}
		a.finish()
		return []Aggregate{a}
	}

	index := make(map[string]int)
	var groups []Aggregate
	for _, r := range rows {
		key := groupKey(r, by)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Aggregate{Key: key})
		}
		groups[i].add(r)
	}
	for i := range groups {
		groups[i].finish()
	}
	if groups == nil {
		groups = []Aggregate{}
	}
	return groups
}

// Overall reduces the whole row set as one group.
func Overall(rows []Row) Aggregate {
	return Rollup(rows, GroupNone)[0]
}

// SummaryReport is the category view: one aggregate per bird category plus
// the grand total over everything.
type SummaryReport struct {
	Categories []Aggregate `json:"categories"`
	GrandTotal Aggregate   `json:"grand_total"`
}

// CategorySummaries rolls up by category. Broiler and Breeder are always
// present (zero-valued when absent) so the dashboard's fixed panels never
// lose a section; any other category value follows in first-seen order.
func CategorySummaries(rows []Row) SummaryReport {
	groups := Rollup(rows, GroupCategory)

	seeded := []Aggregate{{Key: "Broiler"}, {Key: "Breeder"}}
	for i := range seeded {
		seeded[i].finish()
	}
	for _, g := range groups {
		placed := false
		for i := range seeded {
			if seeded[i].Key == g.Key {
				seeded[i] = g
				placed = true
				break
			}
		}
		if !placed {
			seeded = append(seeded, g)
		}
	}

	return SummaryReport{
		Categories: seeded,
		GrandTotal: Overall(rows),
	}
}

// OverallSummary is the grouping-free dashboard header. NonHalalTotal and
// AlertCount come from the classifier's output rows, not an independent
// re-derivation, so the header always matches the per-row alert table.
type OverallSummary struct {
	Aggregate
	NonHalalTotal int `json:"non_halal_total"`
	AlertCount    int `json:"alert_count"`
}

func BuildOverallSummary(rows []Row, t Thresholds) OverallSummary {
	classified := Classify(rows, t)
	s := OverallSummary{Aggregate: Overall(rows)}
	for _, c := range classified {
		s.NonHalalTotal += c.NonHalal
		if c.Status == StatusAlert {
			s.AlertCount++
		}
	}
	return s
}

// FarmDelivery is one bar pair of the delivered-vs-received chart.
type FarmDelivery struct {
	Farm        string `json:"farm"`
	Delivered   int    `json:"delivered"`
	Received    int    `json:"received"`
	Discrepancy int    `json:"discrepancy"`
}

// DeliveredVsReceived compares delivery-order quantity against the counted
// total per farm, through the same reducer as every other view.
func DeliveredVsReceived(rows []Row) []FarmDelivery {
	groups := Rollup(rows, GroupFarm)
	out := make([]FarmDelivery, 0, len(groups))
	for _, g := range groups {
		out = append(out, FarmDelivery{
			Farm:        g.Key,
			Delivered:   g.Delivered,
			Received:    g.CountedTotal,
			Discrepancy: g.Discrepancy,
		})
	}
	return out
}

// FarmYield is one bar of the slaughter-yield chart.
type FarmYield struct {
	Farm            string  `json:"farm"`
	CountedTotal    int     `json:"counted_total"`
	Slaughtered     int     `json:"slaughtered"`
	YieldPercentage float64 `json:"yield_percentage"`
}

func YieldByFarm(rows []Row) []FarmYield {
	groups := Rollup(rows, GroupFarm)
	out := make([]FarmYield, 0, len(groups))
	for _, g := range groups {
		out = append(out, FarmYield{
			Farm:            g.Key,
			CountedTotal:    g.CountedTotal,
			Slaughtered:     g.Slaughtered,
			YieldPercentage: g.YieldPercentage,
		})
	}
	return out
}

// MatrixCell is one (truck, farm) cell of the variance heat map.
type MatrixCell struct {
	TruckNo     string `json:"truck_no"`
	Farm        string `json:"farm"`
	RowCount    int    `json:"row_count"`
	Discrepancy int    `json:"discrepancy"`
}

// Matrix is the truck x farm discrepancy grid. Axes are in first-seen
// order; cells exist only for combinations that occur in the row set.
type Matrix struct {
	Trucks []string     `json:"trucks"`
	Farms  []string     `json:"farms"`
	Cells  []MatrixCell `json:"cells"`
}

func TruckFarmMatrix(rows []Row) Matrix {
	m := Matrix{Trucks: []string{}, Farms: []string{}, Cells: []MatrixCell{}}
	truckSeen := make(map[string]bool)
	farmSeen := make(map[string]bool)
	cellIndex := make(map[[2]string]int)

	for _, r := range rows {
		if !truckSeen[r.TruckNo] {
			truckSeen[r.TruckNo] = true
			m.Trucks = append(m.Trucks, r.TruckNo)
		}
		if !farmSeen[r.Farm] {
			farmSeen[r.Farm] = true
			m.Farms = append(m.Farms, r.Farm)
		}
		key := [2]string{r.TruckNo, r.Farm}
		i, ok := cellIndex[key]
		if !ok {
			i = len(m.Cells)
			cellIndex[key] = i
			m.Cells = append(m.Cells, MatrixCell{TruckNo: r.TruckNo, Farm: r.Farm})
		}
		d := Derive(r)
		m.Cells[i].RowCount++
		m.Cells[i].Discrepancy += d.Discrepancy
	}
	return m
}
