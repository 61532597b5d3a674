package parser

import (
	"archive/zip"
	"path/filepath"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
)

// LoadOptions bounds how much of each sheet is scanned for formulas.
type LoadOptions struct {
	// MaxRows caps the scanned rows; 0 scans every row.
	MaxRows int
	// MaxColumns caps the scanned columns; 0 scans every column.
	MaxColumns int
}

func (o LoadOptions) accepts(addr models.CellAddress) bool {
	return (o.MaxRows <= 0 || addr.Row <= o.MaxRows) &&
		(o.MaxColumns <= 0 || addr.Column <= o.MaxColumns)
}

// LoadWorkbook opens an xlsx file and reads header rows and formulas of
// every declared sheet. Only an unreadable package is an error; a sheet
// whose cells cannot be read is kept empty so references to it still
// resolve.
func LoadWorkbook(path string, opts LoadOptions) (*models.Workbook, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &PackageError{Part: path, Err: err}
	}
	defer r.Close()

	declared, err := readSheetList(&r.Reader)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &PackageError{Part: path, Err: err}
	}
	defer f.Close()

	wb := models.NewWorkbook(filepath.Base(path))
	for _, ps := range declared {
		var sheet *models.Sheet
		cells, err := formulaCells(&r.Reader, ps.Part)
		if err == nil {
			sheet, err = readSheet(f, ps.Name, cells, opts)
		} else {
			sheet, err = ExtractSheet(f, ps.Name, opts)
		}
		if err != nil {
			sheet = models.NewSheet(ps.Name)
		}
		wb.AddSheet(sheet)
	}
	return wb, nil
}

// ExtractSheet reads row 1 as the header row and collects every formula in
// the sheet's used range. Formula text always carries a leading "=".
func ExtractSheet(f *excelize.File, sheetName string, opts LoadOptions) (*models.Sheet, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var cells []string
	area := usedArea(f, sheetName, rows).Clip(opts.MaxRows, opts.MaxColumns)
	for row := area.R1; row <= area.R2; row++ {
		for col := area.C1; col <= area.C2; col++ {
			cellName, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			cells = append(cells, cellName)
		}
	}
	return buildSheet(f, sheetName, rows, cells, opts)
}

func readSheet(f *excelize.File, sheetName string, cells []string, opts LoadOptions) (*models.Sheet, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	return buildSheet(f, sheetName, rows, cells, opts)
}

func buildSheet(f *excelize.File, sheetName string, rows [][]string, cells []string, opts LoadOptions) (*models.Sheet, error) {
	sheet := models.NewSheet(sheetName)
	if len(rows) > 0 {
		for colIdx, text := range rows[0] {
			if text != "" {
				sheet.HeaderRow[colIdx+1] = text
			}
		}
	}
	for rowIdx, row := range rows {
		for colIdx, text := range row {
			addr := models.CellAddress{Column: colIdx + 1, Row: rowIdx + 1}
			if text != "" && opts.accepts(addr) {
				sheet.Cells[addr] = true
			}
		}
	}

	for _, cellName := range cells {
		addr, err := models.ParseCellAddress(cellName)
		if err != nil || !opts.accepts(addr) {
			continue
		}
		formula, err := f.GetCellFormula(sheetName, cellName)
		if err != nil {
			return nil, err
		}
		if formula == "" {
			continue
		}
		if !strings.HasPrefix(formula, "=") {
			formula = "=" + formula
		}
		sheet.Formulas[addr] = formula
	}
	return sheet, nil
}
