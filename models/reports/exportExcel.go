package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mmagrifocus/poultry_backend/utils"
)

// WriteAlertWorkbook renders a classified row set as an xlsx download: one
// sheet, one row per classified delivery line, percentages rounded to 2dp
// for presentation.
func WriteAlertWorkbook(w io.Writer, rows []AlertRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Alerts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headings := []string{
		"Truck No", "D/O Number", "Farm", "Category",
		"Delivered", "Counted Total", "Discrepancy",
		"Slaughtered", "Yield %", "DOA", "DOA %", "Status",
	}
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for i, r := range rows {
		line := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+line, r.TruckNo)
		f.SetCellValue(sheet, "B"+line, r.DoNumber)
		f.SetCellValue(sheet, "C"+line, r.Farm)
		f.SetCellValue(sheet, "D"+line, r.Category)
		f.SetCellValue(sheet, "E"+line, r.Delivered)
		f.SetCellValue(sheet, "F"+line, r.CountedTotal)
		f.SetCellValue(sheet, "G"+line, r.Discrepancy)
		f.SetCellValue(sheet, "H"+line, r.Slaughtered)
		f.SetCellValue(sheet, "I"+line, utils.Round2(r.YieldPercentage))
		f.SetCellValue(sheet, "J"+line, r.Doa)
		f.SetCellValue(sheet, "K"+line, utils.Round2(r.DoaPercentage))
		f.SetCellValue(sheet, "L"+line, string(r.Status))
	}

	return f.Write(w)
}
