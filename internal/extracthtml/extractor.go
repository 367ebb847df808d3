package extracthtml

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"datenorm/internal/table"
)

// ExtractTable builds one row per element matched by mf.RecordSelector and one
// column per mapping, in mapping order. A mapping that matches nothing in a
// record yields a null cell.
func ExtractTable(html string, mf *MappingFile) (*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	res := make([]*regexp.Regexp, len(mf.Mappings))
	header := make([]string, len(mf.Mappings))
	for i, m := range mf.Mappings {
		re, err := compileOptionalRegex(m.Match, m.Column)
		if err != nil {
			return nil, err
		}
		res[i] = re
		header[i] = m.Column
	}

	sep := mf.Separator
	if sep == "" {
		sep = ", "
	}

	var rows [][]any
	doc.Find(mf.RecordSelector).Each(func(_ int, rec *goquery.Selection) {
		row := make([]any, len(mf.Mappings))
		empty := true
		for i, m := range mf.Mappings {
			if v := extractValue(rec, m, res[i], sep); v != "" {
				row[i] = v
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	})

	return table.FromRecords(header, rows)
}

// extractValue applies one mapping relative to root. It returns "" when the
// mapping yields nothing.
//
// If Mapping.Match is set it is treated as a regular expression: group 1 is
// used when present, otherwise the full match, and a value that does not
// match is dropped.
func extractValue(root *goquery.Selection, m Mapping, re *regexp.Regexp, sep string) string {
	extractOne := func(sel *goquery.Selection) string {
		switch m.Extract {
		case "", "text":
			return strings.TrimSpace(sel.Text())
		case "attr":
			if m.Attr == "" {
				return ""
			}
			if val, ok := sel.Attr(m.Attr); ok {
				return strings.TrimSpace(val)
			}
			return ""
		default:
			// Unknown extraction modes produce no value.
			return ""
		}
	}

	if m.All {
		var vals []string
		root.Find(m.Selector).Each(func(_ int, sel *goquery.Selection) {
			if v := applyRegexFilter(extractOne(sel), re); v != "" {
				vals = append(vals, v)
			}
		})
		return strings.Join(vals, sep)
	}

	sel := root.Find(m.Selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return applyRegexFilter(extractOne(sel), re)
}

// compileOptionalRegex compiles pattern, returning (nil, nil) when it is empty.
func compileOptionalRegex(pattern, column string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex for column=%q: %w", column, err)
	}
	return re, nil
}

// applyRegexFilter applies an optional regex post-processing step to value.
func applyRegexFilter(value string, re *regexp.Regexp) string {
	if value == "" || re == nil {
		return value
	}

	sm := re.FindStringSubmatch(value)
	if len(sm) == 0 {
		return ""
	}
	if len(sm) > 1 {
		return sm[1]
	}
	return sm[0]
}
