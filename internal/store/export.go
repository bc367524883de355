package store

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"labelmill/internal"
)

// ExportXLSX writes a store snapshot as a workbook, one row per record,
// using the same column layout as the flat file.
func ExportXLSX(rows []internal.Record, outPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := append([]string{}, internal.CoreFields...)
	extraSet := map[string]bool{}
	for _, rec := range rows {
		for k := range rec.Extra {
			extraSet[k] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	headers = append(headers, extras...)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range rows {
		r := i + 2
		for col, h := range headers {
			v := rec.Get(h)
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outPath)
}
