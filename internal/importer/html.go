package importer

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"labelmill/internal/util"
)

// ReadHTMLTable extracts the first plausible data table from an HTML
// document: at least two rows and at least two columns in the header.
func ReadHTMLTable(r io.Reader) (headers []string, rows [][]string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		trs := table.Find("tr")
		if trs.Length() < 2 {
			return true
		}

		var h []string
		trs.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			h = append(h, util.CollapseSpaces(cell.Text()))
		})
		if countFilled(h) < 2 {
			return true
		}

		headers = h
		trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.CollapseSpaces(cell.Text()))
			})
			if countFilled(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		return false
	})

	if headers == nil {
		return nil, nil, fmt.Errorf("no data table found")
	}
	return headers, rows, nil
}
