package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/StefanGrimminck/Spindle/internal/engine"
	"github.com/StefanGrimminck/Spindle/internal/input"
)

// cellFill marks spreadsheet cells recognized as addresses.
const cellFill = "DDEBF7"

var excelHeader = []string{"Address", "Name", "Description", "CIDR", "Country", "Registry", "FQDN", "Unresolved"}

// WriteExcel exports records to a new workbook with a single Data sheet.
func WriteExcel(path string, records []Record) error {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Data"
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for col, name := range excelHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	for i, rec := range records {
		values := []string{rec.Address, rec.Name, rec.Description, rec.CIDR, rec.Country, rec.Registry, rec.FQDN, rec.Unresolved}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := wb.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return wb.SaveAs(path)
}

// UpdateSheet writes resolutions back into the cells they were read from:
// resolved entries get the multiline summary, failures a NOT FOUND marker.
// Touched cells are highlighted and wrapped. The workbook is saved in place.
func UpdateSheet(path string, entries []input.SheetEntry, result engine.Result) error {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	style, err := wb.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{cellFill}},
	})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		o, ok := result[entry.Token]
		if !ok {
			continue
		}
		var text string
		switch {
		case o.Entry != nil:
			rec := Record{
				Name:        o.Entry.Name,
				Description: o.Entry.Description,
				CIDR:        o.Entry.CIDR,
				Country:     o.Entry.Country,
				Registry:    o.Entry.Registry,
				FQDN:        o.Entry.FQDN,
			}
			text = Summary(entry.Token, rec)
		case o.Reason == engine.ReasonInvalidAddress:
			// Not an address after all; leave the cell untouched.
			continue
		default:
			text = entry.Token + "\n\nNOT FOUND"
		}
		if err := wb.SetCellValue(entry.Sheet, entry.Cell, text); err != nil {
			return err
		}
		if err := wb.SetCellStyle(entry.Sheet, entry.Cell, entry.Cell, style); err != nil {
			return err
		}
	}
	return wb.Save()
}
