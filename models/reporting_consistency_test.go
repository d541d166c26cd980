package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mmagrifocus/poultry_backend/config"
	"github.com/mmagrifocus/poultry_backend/models"
	"github.com/mmagrifocus/poultry_backend/models/reports"
)

// Full-stack regression: every report view over the same window must agree
// with the per-row table it was computed from.
func TestReportingConsistencyAcrossViews(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires a MySQL instance via DB_* env)")
	}

	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	db := config.GetDB()
	if db == nil {
		t.Fatalf("database not initialized")
	}

	year := 2100 + int(time.Now().UnixNano()%100)
	filename := fmt.Sprintf("01-06-%d.xlsx", year)
	upload, err := models.CreateUpload(ctx, filename)
	if err != nil {
		t.Fatalf("CreateUpload: %v", err)
	}
	t.Cleanup(func() { _ = models.DeleteUploadCascade(ctx, upload.ID) })

	records := []models.DeliveryRecord{
		{UploadId: upload.ID, RowNumber: 2, SerialNo: 1, TruckNo: "T1", DoNumber: "DO-1", Farm: "Farm A",
			DoQuantity: 100, BirdCounter: 95, TotalSlaughter: 90, Doa: 5, NonHalal: 1, Category: models.BirdCategoryBroiler},
		{UploadId: upload.ID, RowNumber: 3, SerialNo: 2, TruckNo: "T1", DoNumber: "DO-2", Farm: "Farm B",
			DoQuantity: 50, BirdCounter: 48, TotalSlaughter: 45, Doa: 1, NonHalal: 0, Category: models.BirdCategoryBreeder},
		{UploadId: upload.ID, RowNumber: 4, SerialNo: 3, TruckNo: "T2", DoNumber: "DO-3", Farm: "Farm A",
			DoQuantity: 30, BirdCounter: 31, TotalSlaughter: 29, Doa: 0, NonHalal: 0, Category: models.BirdCategoryBroiler},
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := models.InsertDeliveryRecords(tx, records); err != nil {
			return err
		}
		return models.MarkUploadProcessed(tx, upload.ID, len(records))
	})
	if err != nil {
		t.Fatalf("persist batch: %v", err)
	}

	raw, err := models.GetRecordsForUploads(ctx, []int{upload.ID})
	if err != nil {
		t.Fatalf("GetRecordsForUploads: %v", err)
	}
	if len(raw) != len(records) {
		t.Fatalf("raw listing returned %d records, want %d", len(raw), len(records))
	}
	for i := 1; i < len(raw); i++ {
		if raw[i].RowNumber <= raw[i-1].RowNumber {
			t.Fatalf("raw listing not in row order: %+v", raw)
		}
	}

	src := reports.NewDBSource()
	w := reports.Window{Reference: reports.BatchMeta{ID: upload.ID, Filename: filename}}
	rows, err := reports.ResolveWindow(ctx, src, w)
	if err != nil {
		t.Fatalf("ResolveWindow: %v", err)
	}
	if len(rows) != len(records) {
		t.Fatalf("got %d rows back, want %d", len(rows), len(records))
	}

	overall := reports.Overall(rows)
	if overall.Delivered != 180 || overall.CountedTotal != 180 || overall.Slaughtered != 164 {
		t.Fatalf("unexpected overall aggregate: %+v", overall)
	}

	for _, by := range []reports.GroupBy{reports.GroupTruck, reports.GroupFarm, reports.GroupCategory} {
		var delivered, countedTotal int
		for _, g := range reports.Rollup(rows, by) {
			delivered += g.Delivered
			countedTotal += g.CountedTotal
		}
		if delivered != overall.Delivered || countedTotal != overall.CountedTotal {
			t.Fatalf("grouping %v does not sum back to overall", by)
		}
	}

	summary := reports.BuildOverallSummary(rows, reports.DefaultThresholds())
	if summary.NonHalalTotal != 1 {
		t.Fatalf("non-halal total = %d, want 1", summary.NonHalalTotal)
	}

	trend, err := reports.BuildTrend(ctx, src)
	if err != nil {
		t.Fatalf("BuildTrend: %v", err)
	}
	wantDate := fmt.Sprintf("%d-06-01", year)
	var bucket *reports.TrendBucket
	for i := range trend.Buckets {
		if trend.Buckets[i].Date == wantDate {
			bucket = &trend.Buckets[i]
		}
	}
	if bucket == nil {
		t.Fatalf("trend has no bucket for %s", wantDate)
	}
	if bucket.Delivered != overall.Delivered || bucket.CountedTotal != overall.CountedTotal {
		t.Fatalf("trend bucket %+v disagrees with overall %+v", bucket, overall)
	}
}
