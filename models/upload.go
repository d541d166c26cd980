package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmagrifocus/poultry_backend/config"
	"gorm.io/gorm"
)

// Upload is one ingested spreadsheet (a batch). Immutable once processed;
// rows are never mutated afterwards and deletion is an ops concern
// (cmd/delete-upload), not something the reporting engine does.
type Upload struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Filename   string    `gorm:"size:255;uniqueIndex:idx_upload_filename" json:"filename"`
	UploadDate time.Time `gorm:"autoCreateTime;index:idx_upload_date" json:"upload_date"`
	Processed  bool      `gorm:"default:false;index:idx_upload_processed" json:"processed"`
	TotalRows  int       `json:"total_rows"`
}

var ErrUploadNotFound = errors.New("upload not found")

func CreateUpload(ctx context.Context, filename string) (*Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	upload := Upload{Filename: filename}
	if err := db.WithContext(ctx).Create(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

func GetUploadByID(ctx context.Context, id int) (*Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var upload Upload
	if err := db.WithContext(ctx).Take(&upload, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

func GetUploadByFilename(ctx context.Context, filename string) (*Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var upload Upload
	if err := db.WithContext(ctx).Where("filename = ?", filename).Take(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// ListUploads returns every registered upload, newest storage timestamp
// first, processed or not. The registry view shows pending files too.
func ListUploads(ctx context.Context) ([]Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var uploads []Upload
	if err := db.WithContext(ctx).
		Order("upload_date DESC").
		Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

// ListProcessedUploads returns processed uploads, newest storage timestamp first.
func ListProcessedUploads(ctx context.Context) ([]Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var uploads []Upload
	if err := db.WithContext(ctx).
		Where("processed = ?", true).
		Order("upload_date DESC").
		Find(&uploads).Error; err != nil {
		return nil, err
	}
	return uploads, nil
}

func GetLatestProcessedUpload(ctx context.Context) (*Upload, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var upload Upload
	if err := db.WithContext(ctx).
		Where("processed = ?", true).
		Order("upload_date DESC").
		First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// MarkUploadProcessed flips the processed flag and records the row count.
// Called exactly once per upload, inside the processing transaction.
func MarkUploadProcessed(tx *gorm.DB, uploadId int, totalRows int) error {
	return tx.Model(&Upload{}).
		Where("id = ?", uploadId).
		Updates(map[string]interface{}{
			"processed":  true,
			"total_rows": totalRows,
		}).Error
}

// DeleteUploadCascade removes an upload and its delivery records in one
// transaction. Used by cmd/delete-upload only.
func DeleteUploadCascade(ctx context.Context, uploadId int) error {
	db := config.GetDB()
	if db == nil {
		return errors.New("db is nil")
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("upload_id = ?", uploadId).Delete(&DeliveryRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Upload{}, uploadId).Error
	})
}
