package extracthtml

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"datenorm/internal/table"
)

// ReadTable converts the first element matched by selector (default "table")
// into a table.
//
// The header comes from <thead> cells, or else from the first row when it
// holds only <th> cells, or else columns are named col_1, col_2, ... Blank
// cells become nulls. Rows shorter than the header are padded.
func ReadTable(html, selector string) (*table.Table, error) {
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tbl := doc.Find(selector).First()
	if tbl.Length() == 0 {
		return nil, fmt.Errorf("html: no element matches %q", selector)
	}

	var header []string
	var rows [][]string

	tbl.Find("thead tr").First().Find("th, td").Each(func(_ int, c *goquery.Selection) {
		header = append(header, cellText(c))
	})

	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		cells := tr.ChildrenFiltered("th, td")
		if cells.Length() == 0 {
			return
		}
		if header == nil && cells.Length() == tr.ChildrenFiltered("th").Length() {
			cells.Each(func(_ int, c *goquery.Selection) {
				header = append(header, cellText(c))
			})
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			row = append(row, cellText(c))
		})
		rows = append(rows, row)
	})

	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	names := make([]string, width)
	seen := make(map[string]bool, width)
	for i := range names {
		n := ""
		if i < len(header) {
			n = header[i]
		}
		if n == "" || seen[n] {
			n = fmt.Sprintf("col_%d", i+1)
		}
		seen[n] = true
		names[i] = n
	}

	records := make([][]any, len(rows))
	for i, r := range rows {
		rec := make([]any, width)
		for j, v := range r {
			if v != "" {
				rec[j] = v
			}
		}
		records[i] = rec
	}
	return table.FromRecords(names, records)
}

func cellText(c *goquery.Selection) string {
	return strings.Join(strings.Fields(c.Text()), " ")
}
