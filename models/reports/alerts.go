package reports

// Thresholds drives per-row alert classification. Thresholds are
// configuration, not business logic baked into the classifier.
type Thresholds struct {
	// YieldFloor: yield strictly below this is an alert.
	YieldFloor float64 `json:"yield_floor"`
	// YieldDangerFloor: yield strictly below this escalates the alert to
	// danger severity.
	YieldDangerFloor float64 `json:"yield_danger_floor"`
	// DoaDangerPercent: DOA percentage strictly above this is a danger alert.
	DoaDangerPercent float64 `json:"doa_danger_percent"`
	// DiscrepancyMagnitude: |discrepancy| strictly above this is an alert.
	// The zero default means any nonzero discrepancy alerts.
	DiscrepancyMagnitude int `json:"discrepancy_magnitude"`
}

// DefaultThresholds returns the dashboard defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		YieldFloor:           80,
		YieldDangerFloor:     70,
		DoaDangerPercent:     5,
		DiscrepancyMagnitude: 0,
	}
}

type RowStatus string

const (
	StatusOK    RowStatus = "OK"
	StatusAlert RowStatus = "ALERT"
)

type AlertSeverity string

const (
	SeverityNone    AlertSeverity = ""
	SeverityWarning AlertSeverity = "warning"
	SeverityDanger  AlertSeverity = "danger"
)

// AlertRow is one classified row: identifying fields, derived fields and
// status. This is the canonical source for non-halal totals and alert
// counts elsewhere, so the header figures always match the row table.
type AlertRow struct {
	Row
	Derived
	Status   RowStatus     `json:"status"`
	Severity AlertSeverity `json:"severity,omitempty"`
	Reasons  []string      `json:"reasons,omitempty"`
}

// Classify evaluates every row against t. One output record per input row,
// input order preserved; never fails.
func Classify(rows []Row, t Thresholds) []AlertRow {
	out := make([]AlertRow, 0, len(rows))
	for _, r := range rows {
		d := Derive(r)
		a := AlertRow{Row: r, Derived: d, Status: StatusOK}

		if abs(d.Discrepancy) > t.DiscrepancyMagnitude {
			a.Reasons = append(a.Reasons, "discrepancy")
			a.markAlert(SeverityWarning)
		}
		if d.YieldPercentage < t.YieldFloor {
			a.Reasons = append(a.Reasons, "low yield")
			if d.YieldPercentage < t.YieldDangerFloor {
				a.markAlert(SeverityDanger)
			} else {
				a.markAlert(SeverityWarning)
			}
		}
		if d.DoaPercentage > t.DoaDangerPercent {
			a.Reasons = append(a.Reasons, "high DOA")
			a.markAlert(SeverityDanger)
		}

		out = append(out, a)
	}
	return out
}

func (a *AlertRow) markAlert(s AlertSeverity) {
	a.Status = StatusAlert
	if s == SeverityDanger || a.Severity == SeverityNone {
		a.Severity = s
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
