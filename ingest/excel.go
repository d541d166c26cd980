package ingest

import (
	"errors"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mmagrifocus/poultry_backend/models"
)

// Layout of the source workbook: one header row somewhere in the first ten
// rows, then data in columns A-I (NO, TRUCK NO, D/O Number, FARM,
// D/O Quantity, BIRD COUNTER, TOTAL SLAUGHTER, DOA, NON HALAL) until an
// empty row or a GRAND TOTAL marker.
const (
	headerSearchRows = 10
	dataColumns      = 9
	maxDataRows      = 1000
)

var ErrNoDataTable = errors.New("no data table found in workbook")

// GrandTotal is the sheet's own totals row. Captured for cross-checking;
// never stored as a data row.
type GrandTotal struct {
	DoQuantity     int `json:"do_quantity"`
	BirdCounter    int `json:"bird_counter"`
	TotalSlaughter int `json:"total_slaughter"`
	Doa            int `json:"doa"`
	NonHalal       int `json:"non_halal"`
}

// ParsedBatch is the canonical result of parsing one workbook. Records do
// not yet carry an upload id; the caller assigns it before persisting.
type ParsedBatch struct {
	Records    []models.DeliveryRecord
	GrandTotal *GrandTotal
}

// ParseWorkbook reads an xlsx from disk into canonical delivery records.
// Tries the active sheet first, then every other sheet, and uses the first
// one with a recognizable data table.
func ParseWorkbook(path string) (*ParsedBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoDataTable
	}
	active := f.GetSheetName(f.GetActiveSheetIndex())
	ordered := []string{active}
	for _, s := range sheets {
		if s != active {
			ordered = append(ordered, s)
		}
	}

	for _, sheet := range ordered {
		batch, err := parseSheet(f, sheet)
		if err != nil {
			continue
		}
		if len(batch.Records) > 0 {
			return batch, nil
		}
	}
	return nil, ErrNoDataTable
}

func parseSheet(f *excelize.File, sheet string) (*ParsedBatch, error) {
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	headerRow := findHeaderRow(grid)
	if headerRow < 0 {
		return nil, ErrNoDataTable
	}

	batch := &ParsedBatch{}
	for i := headerRow + 1; i < len(grid) && i <= headerRow+maxDataRows; i++ {
		row := grid[i]

		if isGrandTotalRow(row) {
			batch.GrandTotal = &GrandTotal{
				DoQuantity:     parseCount(cellAt(row, 4)),
				BirdCounter:    parseCount(cellAt(row, 5)),
				TotalSlaughter: parseCount(cellAt(row, 6)),
				Doa:            parseCount(cellAt(row, 7)),
				NonHalal:       parseCount(cellAt(row, 8)),
			}
			break
		}

		if isEmptyRow(row) {
			if len(batch.Records) > 0 {
				break
			}
			continue
		}

		record := models.DeliveryRecord{
			RowNumber:      i + 1, // sheet rows are 1-based
			SerialNo:       parseCount(cellAt(row, 0)),
			TruckNo:        strings.TrimSpace(cellAt(row, 1)),
			DoNumber:       strings.TrimSpace(cellAt(row, 2)),
			Farm:           strings.TrimSpace(cellAt(row, 3)),
			DoQuantity:     parseCount(cellAt(row, 4)),
			BirdCounter:    parseCount(cellAt(row, 5)),
			TotalSlaughter: parseCount(cellAt(row, 6)),
			Doa:            parseCount(cellAt(row, 7)),
			NonHalal:       parseCount(cellAt(row, 8)),
		}
		record.Category = CategorizeRecord(record)
		batch.Records = append(batch.Records, record)
	}

	return batch, nil
}

// findHeaderRow scans the first rows for header keywords (NO / TRUCK / D/O)
// and returns the header's index in the grid, -1 if not found.
func findHeaderRow(grid [][]string) int {
	limit := headerSearchRows
	if len(grid) < limit {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		var cells []string
		for c := 0; c < dataColumns; c++ {
			if v := strings.TrimSpace(cellAt(grid[i], c)); v != "" {
				cells = append(cells, strings.ToUpper(v))
			}
		}
		text := strings.Join(cells, " ")
		for _, keyword := range []string{"NO", "TRUCK", "D/O"} {
			if strings.Contains(text, keyword) {
				return i
			}
		}
	}
	return -1
}

func isGrandTotalRow(row []string) bool {
	for c := 0; c < dataColumns; c++ {
		if strings.Contains(strings.ToUpper(cellAt(row, c)), "GRAND TOTAL") {
			return true
		}
	}
	return false
}

func isEmptyRow(row []string) bool {
	for c := 0; c < dataColumns; c++ {
		if strings.TrimSpace(cellAt(row, c)) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

// parseCount converts a numeric cell to an int. Cells arrive as strings and
// may be comma-grouped ("1,250") or fractional ("95.0"); anything
// unconvertible reads as zero (missing numerics never reject the row).
func parseCount(s string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return int(fl)
	}
	return 0
}

var (
	breederKeywords = []string{"BREEDER", "BRD"}
	broilerKeywords = []string{"BROILER", "BRC", "BKT"}
)

// CategorizeRecord assigns the bird category from keyword matches on farm,
// truck and DO number. Breeder keywords win over broiler keywords; rows
// matching neither default to Broiler.
func CategorizeRecord(r models.DeliveryRecord) models.BirdCategory {
	haystack := strings.ToUpper(r.Farm + " " + r.TruckNo + " " + r.DoNumber)
	for _, k := range breederKeywords {
		if strings.Contains(haystack, k) {
			return models.BirdCategoryBreeder
		}
	}
	for _, k := range broilerKeywords {
		if strings.Contains(haystack, k) {
			return models.BirdCategoryBroiler
		}
	}
	return models.BirdCategoryBroiler
}
