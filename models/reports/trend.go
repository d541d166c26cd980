package reports

import (
	"context"
	"sort"
	"time"

	"github.com/mmagrifocus/poultry_backend/config"
)

// TrendBucket is one calendar date of history. Batches sharing a logical
// date merge into a single bucket.
type TrendBucket struct {
	Date         string `json:"date"` // yyyy-mm-dd
	BatchCount   int    `json:"batch_count"`
	RowCount     int    `json:"row_count"`
	Delivered    int    `json:"delivered"`
	Counted      int    `json:"counted"`
	Doa          int    `json:"doa"`
	Slaughtered  int    `json:"slaughtered"`
	CountedTotal int    `json:"counted_total"`
	Discrepancy  int    `json:"discrepancy"`

	YieldPercentage float64 `json:"yield_percentage"`
	DoaPercentage   float64 `json:"doa_percentage"`
}

// TrendResult is the full-history series, date ascending. SkippedBatches
// counts batches excluded for an unparseable filename date, so data-quality
// regressions are observable without failing the request.
type TrendResult struct {
	Buckets        []TrendBucket `json:"buckets"`
	SkippedBatches int           `json:"skipped_batches"`
}

const slowTrendThreshold = 3 * time.Second

// BuildTrend walks every processed batch, bypassing window selection: trend
// analysis is inherently cross-window. A batch without a parseable logical
// date is skipped and counted, never fatal; one corrupt filename must not
// take down reporting on the rest of the history.
func BuildTrend(ctx context.Context, src RowSource) (TrendResult, error) {
	logger := config.GetLogger()
	started := time.Now()

	batches, err := src.Batches(ctx)
	if err != nil {
		return TrendResult{}, err
	}

	result := TrendResult{Buckets: []TrendBucket{}}
	dateByBatch := make(map[int]time.Time, len(batches))
	var eligible []int
	for _, b := range batches {
		d, ok := LogicalDate(b.Filename)
		if !ok {
			result.SkippedBatches++
			logger.WithField("filename", b.Filename).
				Warn("skipping batch without a parseable filename date")
			continue
		}
		dateByBatch[b.ID] = d
		eligible = append(eligible, b.ID)
	}
	if len(eligible) == 0 {
		return result, nil
	}

	rows, err := src.Rows(ctx, eligible)
	if err != nil {
		return TrendResult{}, err
	}

	index := make(map[string]int)
	for _, r := range rows {
		date, ok := dateByBatch[r.BatchID]
		if !ok {
			continue
		}
		key := date.Format("2006-01-02")
		i, exists := index[key]
		if !exists {
			i = len(result.Buckets)
			index[key] = i
			result.Buckets = append(result.Buckets, TrendBucket{Date: key})
		}
		b := &result.Buckets[i]
		b.RowCount++
		b.Delivered += r.Delivered
		b.Counted += r.Counted
		b.Doa += r.Doa
		b.Slaughtered += r.Slaughtered
	}
	for _, id := range eligible {
		key := dateByBatch[id].Format("2006-01-02")
		if i, exists := index[key]; exists {
			result.Buckets[i].BatchCount++
		}
	}
	for i := range result.Buckets {
		b := &result.Buckets[i]
		b.CountedTotal = b.Counted + b.Doa
		b.Discrepancy = b.CountedTotal - b.Delivered
		b.YieldPercentage = percentage(b.Slaughtered, b.CountedTotal)
		b.DoaPercentage = percentage(b.Doa, b.CountedTotal)
	}
	sort.Slice(result.Buckets, func(i, j int) bool {
		return result.Buckets[i].Date < result.Buckets[j].Date
	})

	if elapsed := time.Since(started); elapsed > slowTrendThreshold {
		logger.WithField("elapsed", elapsed.String()).
			WithField("batches", len(eligible)).
			Warn("historical trend build is slow; consider background computation")
	}
	return result, nil
}
