package reports

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Window is the rule selecting which batches' rows participate in a query.
// Precedence when several selectors are supplied: explicit range wins over
// rolling days, rolling days wins over latest-only.
type Window struct {
	// Reference is the batch driving the query (the one the dashboard is
	// looking at). Required for latest-only and rolling-days.
	Reference BatchMeta
	// Days > 0 selects a rolling window ending on the reference batch's
	// logical date, inclusive on both sides.
	Days int
	// Start/End select an explicit logical-date range, inclusive. Both must
	// be set; the reference batch is then irrelevant.
	Start *time.Time
	End   *time.Time
}

// LogicalDate extracts the calendar date encoded in an upload filename,
// day-month-year numeric, e.g. "05-03-2024.xlsx" -> 5 March 2024.
// ok=false means the batch has no logical date and can never match a
// windowed mode.
func LogicalDate(filename string) (time.Time, bool) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return time.Time{}, false
	}
	name = strings.ToLower(name)
	name = strings.TrimSuffix(name, ".xlsx")
	name = strings.TrimSuffix(name, ".xls")

	parts := strings.Split(name, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year <= 2000 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. 31-02 becomes 2/3 March); treat
	// a normalized date as unparseable rather than silently shifting it.
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// SelectBatches resolves a window against batch metadata. This is the only
// selection path in the engine; every windowed query goes through it so that
// all views of one dashboard agree on the row subset.
func SelectBatches(batches []BatchMeta, w Window) []int {
	if w.Start != nil && w.End != nil {
		start := dateOnly(*w.Start)
		end := dateOnly(*w.End)
		var ids []int
		for _, b := range batches {
			d, ok := LogicalDate(b.Filename)
			if !ok {
				continue
			}
			if !d.Before(start) && !d.After(end) {
				ids = append(ids, b.ID)
			}
		}
		return ids
	}

	if w.Days > 0 {
		refDate, ok := LogicalDate(w.Reference.Filename)
		if !ok {
			// A date-less reference batch cannot anchor a rolling window.
			return nil
		}
		end := dateOnly(refDate)
		start := end.AddDate(0, 0, -(w.Days - 1))
		var ids []int
		for _, b := range batches {
			d, ok := LogicalDate(b.Filename)
			if !ok {
				continue
			}
			if !d.Before(start) && !d.After(end) {
				ids = append(ids, b.ID)
			}
		}
		return ids
	}

	// Latest-only: exactly the reference batch, parseable date or not.
	return []int{w.Reference.ID}
}

// ResolveWindow fetches the rows eligible for aggregation under w.
func ResolveWindow(ctx context.Context, src RowSource, w Window) ([]Row, error) {
	batches, err := src.Batches(ctx)
	if err != nil {
		return nil, err
	}
	ids := SelectBatches(batches, w)
	if len(ids) == 0 {
		return nil, nil
	}
	return src.Rows(ctx, ids)
}

// IsNewBatch reports whether a batch was stored within the trailing
// interval of now. Presentation default only (pick latest-only vs a 7-day
// window); callers may override with any explicit mode.
const NewBatchInterval = time.Hour

func IsNewBatch(b BatchMeta, now time.Time) bool {
	return now.Sub(b.UploadedAt) < NewBatchInterval
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
