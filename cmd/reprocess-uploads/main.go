package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mmagrifocus/poultry_backend/appctx"
	"github.com/mmagrifocus/poultry_backend/config"
	"github.com/mmagrifocus/poultry_backend/ingest"
	"github.com/mmagrifocus/poultry_backend/models"
	"github.com/mmagrifocus/poultry_backend/utils"
)

// Walks the upload directory and ingests every workbook that is not yet
// processed, registering files the API has never seen. Useful after a
// restore or when files were dropped into the directory out of band.
func main() {
	dir := flag.String("dir", "", "Upload directory (defaults to UPLOAD_DIR or ./uploads)")
	continueOnError := flag.Bool("continue-on-error", true, "Skip failing files and keep going")
	flag.Parse()

	uploadDir := strings.TrimSpace(*dir)
	if uploadDir == "" {
		uploadDir = strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	}
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	ctx := appctx.Set(context.Background(), appctx.ContextKeyActor, "System")
	actor, _ := utils.GetActorFromContext(ctx)
	logger := config.GetLogger().WithField("actor", actor)

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %s: %v\n", uploadDir, err)
		os.Exit(1)
	}

	var processed, skipped, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}

		upload, err := models.GetUploadByFilename(ctx, name)
		switch {
		case err == nil && upload.Processed:
			skipped++
			continue
		case err == nil:
			// registered but never processed; fall through
		case err == models.ErrUploadNotFound:
			upload, err = models.CreateUpload(ctx, name)
			if err != nil {
				logger.WithFields(logrus.Fields{"filename": name}).Error("register failed: " + err.Error())
				failed++
				if !*continueOnError {
					os.Exit(1)
				}
				continue
			}
		default:
			logger.WithFields(logrus.Fields{"filename": name}).Error("lookup failed: " + err.Error())
			failed++
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}

		batch, err := ingest.ParseWorkbook(filepath.Join(uploadDir, name))
		if err != nil {
			logger.WithFields(logrus.Fields{"filename": name}).Error("parse failed: " + err.Error())
			failed++
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for i := range batch.Records {
				batch.Records[i].UploadId = upload.ID
			}
			if err := models.InsertDeliveryRecords(tx, batch.Records); err != nil {
				return err
			}
			return models.MarkUploadProcessed(tx, upload.ID, len(batch.Records))
		})
		if err != nil {
			logger.WithFields(logrus.Fields{"filename": name}).Error("persist failed: " + err.Error())
			failed++
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}

		logger.WithFields(logrus.Fields{
			"filename":   name,
			"upload_id":  upload.ID,
			"total_rows": len(batch.Records),
		}).Info("processed upload")
		processed++
	}

	fmt.Printf("done: %d processed, %d already up to date, %d failed\n", processed, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
