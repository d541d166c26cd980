package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmagrifocus/poultry_backend/config"
	"github.com/mmagrifocus/poultry_backend/models"
	"github.com/mmagrifocus/poultry_backend/models/reports"
	"github.com/mmagrifocus/poultry_backend/utils"
)

const dateLayout = "2006-01-02"

func registerReportRoutes(r *gin.Engine) {
	src := reports.NewDBSource()

	r.GET("/summary/:id", summaryHandler(src))
	r.GET("/trucks/:id", groupedHandler(src, reports.GroupTruck))
	r.GET("/farms/:id", groupedHandler(src, reports.GroupFarm))
	r.GET("/overall-summary/:id", overallSummaryHandler(src))
	r.GET("/truck-alerts/:id", truckAlertsHandler(src))
	r.GET("/delivered-vs-received/:id", deliveredVsReceivedHandler(src))
	r.GET("/slaughter-yield/:id", slaughterYieldHandler(src))
	r.GET("/truck-farm-variance/:id", truckFarmVarianceHandler(src))
	r.GET("/historical-trends", historicalTrendsHandler(src))
	r.GET("/data/:id", uploadRowsHandler())
}

// uploadRowsHandler lists one upload's raw delivery records, no windowing
// and no derived fields. The drill-down view behind every aggregate.
func uploadRowsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}
		upload, err := models.GetUploadByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrUploadNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		records, err := models.GetRecordsForUploads(c.Request.Context(), []int{upload.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"upload": upload, "rows": records})
	}
}

// resolveRequestWindow loads the reference upload from the path and builds
// the window from the shared query params (days, start_date, end_date).
// Every grouped endpoint goes through here so one dashboard's views always
// agree on the row subset.
func resolveRequestWindow(c *gin.Context) (reports.Window, bool) {
	var w reports.Window

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return w, false
	}
	upload, err := models.GetUploadByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrUploadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return w, false
	}
	w.Reference = reports.BatchMeta{
		ID:         upload.ID,
		Filename:   upload.Filename,
		UploadedAt: upload.UploadDate,
	}

	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return w, false
		}
		w.Days = days
	}

	startRaw, endRaw := c.Query("start_date"), c.Query("end_date")
	if startRaw != "" || endRaw != "" {
		if startRaw == "" || endRaw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date must be supplied together"})
			return w, false
		}
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be yyyy-mm-dd"})
			return w, false
		}
		end, err := time.Parse(dateLayout, endRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be yyyy-mm-dd"})
			return w, false
		}
		if end.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must not precede start_date"})
			return w, false
		}
		w.Start, w.End = &start, &end
	}

	return w, true
}

func windowRows(c *gin.Context, src reports.RowSource, w reports.Window) ([]reports.Row, bool) {
	rows, err := reports.ResolveWindow(c.Request.Context(), src, w)
	if err != nil {
		logger := config.GetLogger()
		config.LogError(c.Request.Context(), logger, "api.go", "windowRows", "ResolveWindow", w, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load rows"})
		return nil, false
	}
	return rows, true
}

// thresholdsFromQuery starts from the defaults and applies any overrides the
// caller supplied.
func thresholdsFromQuery(c *gin.Context) reports.Thresholds {
	t := reports.DefaultThresholds()
	if v := c.Query("yield_floor"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.YieldFloor = f
		}
	}
	if v := c.Query("yield_danger_floor"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.YieldDangerFloor = f
		}
	}
	if v := c.Query("doa_danger_percent"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.DoaDangerPercent = f
		}
	}
	if v := c.Query("discrepancy_magnitude"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			t.DiscrepancyMagnitude = n
		}
	}
	return t
}

// The engine returns full-precision floats; percentages are rounded to 2dp
// here, at the presentation edge only.
func roundAggregate(a *reports.Aggregate) {
	a.YieldPercentage = utils.Round2(a.YieldPercentage)
	a.DoaPercentage = utils.Round2(a.DoaPercentage)
}

func summaryHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		report := reports.CategorySummaries(rows)
		for i := range report.Categories {
			roundAggregate(&report.Categories[i])
		}
		roundAggregate(&report.GrandTotal)
		c.JSON(http.StatusOK, report)
	}
}

func groupedHandler(src reports.RowSource, by reports.GroupBy) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		groups := reports.Rollup(rows, by)
		for i := range groups {
			roundAggregate(&groups[i])
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
	}
}

func overallSummaryHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		summary := reports.BuildOverallSummary(rows, thresholdsFromQuery(c))
		roundAggregate(&summary.Aggregate)
		c.JSON(http.StatusOK, summary)
	}
}

func truckAlertsHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		classified := reports.Classify(rows, thresholdsFromQuery(c))

		if c.Query("format") == "xlsx" {
			c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			c.Header("Content-Disposition", "attachment; filename=truck-alerts.xlsx")
			if err := reports.WriteAlertWorkbook(c.Writer, classified); err != nil {
				logger := config.GetLogger()
				config.LogError(c.Request.Context(), logger, "api.go", "truckAlertsHandler", "WriteAlertWorkbook", nil, err)
			}
			return
		}

		for i := range classified {
			classified[i].YieldPercentage = utils.Round2(classified[i].YieldPercentage)
			classified[i].DoaPercentage = utils.Round2(classified[i].DoaPercentage)
		}
		c.JSON(http.StatusOK, gin.H{"rows": classified})
	}
}

func deliveredVsReceivedHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"farms": reports.DeliveredVsReceived(rows)})
	}
}

func slaughterYieldHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		yields := reports.YieldByFarm(rows)
		for i := range yields {
			yields[i].YieldPercentage = utils.Round2(yields[i].YieldPercentage)
		}
		c.JSON(http.StatusOK, gin.H{"farms": yields})
	}
}

func truckFarmVarianceHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := resolveRequestWindow(c)
		if !ok {
			return
		}
		rows, ok := windowRows(c, src, w)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, reports.TruckFarmMatrix(rows))
	}
}

func historicalTrendsHandler(src reports.RowSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		trend, err := reports.BuildTrend(c.Request.Context(), src)
		if err != nil {
			logger := config.GetLogger()
			config.LogError(c.Request.Context(), logger, "api.go", "historicalTrendsHandler", "BuildTrend", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build trend"})
			return
		}
		for i := range trend.Buckets {
			trend.Buckets[i].YieldPercentage = utils.Round2(trend.Buckets[i].YieldPercentage)
			trend.Buckets[i].DoaPercentage = utils.Round2(trend.Buckets[i].DoaPercentage)
		}
		c.JSON(http.StatusOK, trend)
	}
}
