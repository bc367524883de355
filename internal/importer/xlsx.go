package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"labelmill/internal/util"
)

// Sheet is one worksheet reduced to a header row plus data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// ReadWorkbook reads every sheet that carries a recognizable header row.
func ReadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []Sheet
	for _, name := range f.GetSheetList() {
		headers, rows, err := readSheet(f, name)
		if err != nil {
			continue
		}
		out = append(out, Sheet{Name: name, Headers: headers, Rows: rows})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sheet with a header row in %s", path)
	}
	return out, nil
}

// ReadXLSX opens a workbook and returns the header row plus the data
// rows of one sheet. An empty sheet name selects the first sheet.
func ReadXLSX(path, sheet string) (headers []string, rows [][]string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// ReadXLSXReader is ReadXLSX for in-memory workbooks.
func ReadXLSXReader(r io.Reader, sheet string) (headers []string, rows [][]string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (headers []string, rows [][]string, err error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	for i, row := range raw {
		cells := normalizeCells(row)
		if countFilled(cells) < 2 {
			continue
		}
		headers = cells
		for _, dataRow := range raw[i+1:] {
			cells := normalizeCells(dataRow)
			if countFilled(cells) == 0 {
				continue
			}
			rows = append(rows, cells)
		}
		return headers, rows, nil
	}
	return nil, nil, fmt.Errorf("sheet %q has no header row", sheet)
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.CollapseSpaces(c))
	}
	return out
}

func countFilled(cells []string) int {
	n := 0
	for _, c := range cells {
		if c != "" {
			n++
		}
	}
	return n
}
