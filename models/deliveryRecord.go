package models

import (
	"context"
	"errors"

	"github.com/mmagrifocus/poultry_backend/config"
	"gorm.io/gorm"
)

// DeliveryRecord is one truck/farm line item of an upload. Raw quantities
// only: derived fields (counted total, discrepancy, yield) are recomputed on
// read by the reports package and never persisted as ground truth.
//
// Grain: (upload_id, row_number).
type DeliveryRecord struct {
	ID        int `gorm:"primaryKey" json:"id"`
	UploadId  int `gorm:"index:idx_dr_upload,priority:1" json:"upload_id"`
	RowNumber int `gorm:"index:idx_dr_upload,priority:2" json:"row_number"`
	SerialNo  int `json:"no"`

	TruckNo  string `gorm:"size:64" json:"truck_no"`
	DoNumber string `gorm:"size:64" json:"do_number"`
	Farm     string `gorm:"size:128;index:idx_dr_farm" json:"farm"`

	DoQuantity     int `json:"do_quantity"`
	BirdCounter    int `json:"bird_counter"`
	TotalSlaughter int `json:"total_slaughter"`
	Doa            int `json:"doa"`
	NonHalal       int `json:"non_halal"`

	Category BirdCategory `gorm:"size:16" json:"category"`
}

// InsertDeliveryRecords persists a parsed batch inside the caller's
// transaction so that a half-ingested upload never becomes visible.
func InsertDeliveryRecords(tx *gorm.DB, records []DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return tx.CreateInBatches(records, 200).Error
}

func GetRecordsForUploads(ctx context.Context, uploadIds []int) ([]DeliveryRecord, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if len(uploadIds) == 0 {
		return nil, nil
	}
	var records []DeliveryRecord
	if err := db.WithContext(ctx).
		Where("upload_id IN ?", uploadIds).
		Order("upload_id ASC, row_number ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
