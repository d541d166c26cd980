package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mmagrifocus/poultry_backend/config"
	"github.com/mmagrifocus/poultry_backend/ingest"
	"github.com/mmagrifocus/poultry_backend/models"
	"github.com/mmagrifocus/poultry_backend/models/reports"
	"github.com/mmagrifocus/poultry_backend/utils"
)

func registerUploadRoutes(r *gin.Engine) {
	r.POST("/uploads", registerUploadHandler())
	r.POST("/uploads/:id/process", processUploadHandler())
	r.GET("/uploads", listUploadsHandler())
	r.GET("/latest", latestUploadHandler())
}

func uploadDir() string {
	if dir := strings.TrimSpace(os.Getenv("UPLOAD_DIR")); dir != "" {
		return dir
	}
	return "uploads"
}

type registerUploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

// registerUploadHandler records an xlsx that already sits in UPLOAD_DIR as a
// pending upload. Parsing happens in the separate process step.
func registerUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
			return
		}
		filename := filepath.Base(strings.TrimSpace(req.Filename))
		ext := strings.ToLower(filepath.Ext(filename))
		if ext != ".xlsx" && ext != ".xls" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx/.xls files are supported"})
			return
		}
		if _, err := os.Stat(filepath.Join(uploadDir(), filename)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file %s not found in upload directory", filename)})
			return
		}

		if existing, err := models.GetUploadByFilename(c.Request.Context(), filename); err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "upload already registered",
				"upload_id": existing.ID,
				"processed": existing.Processed,
			})
			return
		} else if !errors.Is(err, models.ErrUploadNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		upload, err := models.CreateUpload(c.Request.Context(), filename)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, upload)
	}
}

// processUploadHandler parses the registered workbook and persists its rows
// in one transaction. A redis lock keeps concurrent requests from parsing
// the same file twice; like every redis dependency here it is best-effort,
// the processed-flag check inside the transaction is the real guard.
func processUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}

		redisLock := config.GetRedisLock()
		var lock *redislock.Lock
		if redisLock != nil {
			lock, err = redisLock.Obtain(c.Request.Context(), fmt.Sprintf("lock:upload:%d", id), 30*time.Second, nil)
			if err == redislock.ErrNotObtained {
				c.JSON(http.StatusConflict, gin.H{"error": "upload is already being processed"})
				return
			} else if err != nil {
				logger.WithFields(logrus.Fields{
					"field":     "processUploadHandler",
					"upload_id": id,
				}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field":     "processUploadHandler",
					"upload_id": id,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		upload, err := models.GetUploadByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrUploadNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		if upload.Processed {
			c.JSON(http.StatusConflict, gin.H{"error": "upload already processed", "upload_id": upload.ID})
			return
		}

		batch, err := ingest.ParseWorkbook(filepath.Join(uploadDir(), upload.Filename))
		if err != nil {
			config.LogError(c.Request.Context(), logger, "uploads.go", "processUploadHandler", "ParseWorkbook", upload.Filename, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not parse workbook: " + err.Error()})
			return
		}

		db := config.GetDB()
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			// Re-check under the transaction; the redis lock is advisory.
			var current models.Upload
			if err := tx.Take(&current, upload.ID).Error; err != nil {
				return err
			}
			if current.Processed {
				return errors.New("upload already processed")
			}
			for i := range batch.Records {
				batch.Records[i].UploadId = upload.ID
			}
			if err := models.InsertDeliveryRecords(tx, batch.Records); err != nil {
				return err
			}
			return models.MarkUploadProcessed(tx, upload.ID, len(batch.Records))
		})
		if err != nil {
			config.LogError(c.Request.Context(), logger, "uploads.go", "processUploadHandler", "persist batch", upload.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := config.DeleteRedisKey(latestUploadCacheKey); err != nil {
			logger.WithFields(logrus.Fields{
				"field": "processUploadHandler",
			}).Warn("failed to invalidate latest-upload cache: " + err.Error())
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		resp := gin.H{
			"upload_id":      upload.ID,
			"filename":       upload.Filename,
			"total_rows":     len(batch.Records),
			"correlation_id": cid,
		}
		if batch.GrandTotal != nil {
			resp["grand_total"] = batch.GrandTotal
		}
		c.JSON(http.StatusOK, resp)
	}
}

func listUploadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		uploads, err := models.ListUploads(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uploads": uploads})
	}
}

const latestUploadCacheKey = "latest_upload"

// latestUploadHandler returns the newest processed upload and whether it is
// recent enough for the dashboard to default to latest-only mode. The
// lookup is cached briefly; processing a new upload invalidates it.
func latestUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var upload *models.Upload

		var cached models.Upload
		if hit, err := config.GetRedisObject(latestUploadCacheKey, &cached); err == nil && hit {
			upload = &cached
		}
		if upload == nil {
			var err error
			upload, err = models.GetLatestProcessedUpload(c.Request.Context())
			if err != nil {
				if errors.Is(err, models.ErrUploadNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "no processed uploads yet"})
				} else {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				}
				return
			}
			if err := config.SetRedisObject(latestUploadCacheKey, upload, 30*time.Second); err != nil {
				config.GetLogger().WithFields(logrus.Fields{
					"field": "latestUploadHandler",
				}).Warn("failed to cache latest upload: " + err.Error())
			}
		}
		meta := reports.BatchMeta{
			ID:         upload.ID,
			Filename:   upload.Filename,
			UploadedAt: upload.UploadDate,
		}
		resp := gin.H{
			"upload":      upload,
			"is_new_file": reports.IsNewBatch(meta, time.Now()),
		}
		if d, ok := reports.LogicalDate(upload.Filename); ok {
			resp["logical_date"] = d.Format(dateLayout)
		}
		c.JSON(http.StatusOK, resp)
	}
}
