package input

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// entriesMarker labels the row where list entries start in each sheet.
	entriesMarker = "Entries"
	// markerSearchRows bounds the scan for the marker row.
	markerSearchRows = 10
	// maxColumns bounds the scan across list columns.
	maxColumns = 100
)

// ipLike roughly selects cells that resemble an IP or subnet; real
// validation happens during normalization.
var ipLike = regexp.MustCompile(`^[\d./]+$`)

// SheetEntry is one IP-looking cell found in a worksheet, addressed so a
// projector can write the resolution back in place.
type SheetEntry struct {
	Sheet string
	Cell  string
	Token string
}

// ReadSheet scans the named worksheets of an SSL-inspection workbook for
// address tokens. Each sheet is expected to carry list columns starting at
// column B, with the first entry row labeled by the Entries marker in
// column A. Sheets without the marker are skipped.
func ReadSheet(path string, sheets []string) ([]SheetEntry, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var entries []SheetEntry
	for _, sheet := range sheets {
		startRow, err := findEntriesRow(wb, sheet)
		if err != nil {
			return nil, err
		}
		if startRow == 0 {
			continue
		}

		for col := 2; col <= maxColumns; col++ {
			header, err := cellValue(wb, sheet, col, 1)
			if err != nil {
				return nil, err
			}
			if header == "" {
				break
			}
			for row := startRow; ; row++ {
				value, err := cellValue(wb, sheet, col, row)
				if err != nil {
					return nil, err
				}
				if value == "" {
					break
				}
				token := strings.ReplaceAll(value, "\n", "")
				if !ipLike.MatchString(token) {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(col, row)
				entries = append(entries, SheetEntry{Sheet: sheet, Cell: cell, Token: token})
			}
		}
	}
	return entries, nil
}

func findEntriesRow(wb *excelize.File, sheet string) (int, error) {
	for row := 1; row <= markerSearchRows; row++ {
		value, err := cellValue(wb, sheet, 1, row)
		if err != nil {
			return 0, err
		}
		if value == entriesMarker {
			return row, nil
		}
	}
	return 0, nil
}

func cellValue(wb *excelize.File, sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	value, err := wb.GetCellValue(sheet, cell)
	if err != nil {
		return "", fmt.Errorf("sheet %q cell %s: %w", sheet, cell, err)
	}
	return value, nil
}
