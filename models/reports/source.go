package reports

import (
	"context"
	"time"

	"github.com/mmagrifocus/poultry_backend/models"
)

// BatchMeta is the upload metadata the engine needs for window resolution.
// The logical date lives in the filename, not in UploadedAt (the storage
// timestamp), and is parsed on demand by LogicalDate.
type BatchMeta struct {
	ID         int       `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Row is one canonical delivery line item. Raw quantities only; derived
// fields come from Derive and are never read back from storage.
type Row struct {
	BatchID     int    `json:"batch_id"`
	TruckNo     string `json:"truck_no"`
	DoNumber    string `json:"do_number"`
	Farm        string `json:"farm"`
	Category    string `json:"category"`
	Delivered   int    `json:"delivered"`
	Counted     int    `json:"counted"`
	Doa         int    `json:"doa"`
	Slaughtered int    `json:"slaughtered"`
	NonHalal    int    `json:"non_halal"`
}

// RowSource is the engine's read-only view of the canonical row store.
// Every query re-reads through it; the engine holds no state between calls.
type RowSource interface {
	// Batches returns all processed batches, any order.
	Batches(ctx context.Context) ([]BatchMeta, error)
	// Rows returns the rows belonging to the given batches.
	Rows(ctx context.Context, batchIds []int) ([]Row, error)
}

// dbSource reads from the gorm-backed store.
type dbSource struct{}

// NewDBSource returns the production RowSource over models.
func NewDBSource() RowSource { return dbSource{} }

func (dbSource) Batches(ctx context.Context) ([]BatchMeta, error) {
	uploads, err := models.ListProcessedUploads(ctx)
	if err != nil {
		return nil, err
	}
	metas := make([]BatchMeta, 0, len(uploads))
	for _, u := range uploads {
		metas = append(metas, BatchMeta{
			ID:         u.ID,
			Filename:   u.Filename,
			UploadedAt: u.UploadDate,
		})
	}
	return metas, nil
}

func (dbSource) Rows(ctx context.Context, batchIds []int) ([]Row, error) {
	records, err := models.GetRecordsForUploads(ctx, batchIds)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			BatchID:     r.UploadId,
			TruckNo:     r.TruckNo,
			DoNumber:    r.DoNumber,
			Farm:        r.Farm,
			Category:    string(r.Category),
			Delivered:   r.DoQuantity,
			Counted:     r.BirdCounter,
			Doa:         r.Doa,
			Slaughtered: r.TotalSlaughter,
			NonHalal:    r.NonHalal,
		})
	}
	return rows, nil
}
