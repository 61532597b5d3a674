package formtrace

import (
	"fmt"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/resolve"
)

// Discover picks one representative formula per headered column: the one
// at the sample row. Columns whose other formulas generalize differently
// get an InconsistentFormulaPattern diagnostic. Explicit mappings replace
// auto-discovery for their sheet and header, and mappings carrying their
// own formula text are added even when the workbook has none.
func Discover(wb *models.Workbook, opts Options) ([]resolve.Request, []models.Diagnostic) {
	sampleRow := opts.sampleRow()

	mappings := make(map[models.FormulaKey]Mapping, len(opts.Mappings))
	var mappingOrder []models.FormulaKey
	for _, m := range opts.Mappings {
		key := models.NewFormulaKey(m.Sheet, m.ResultHeader)
		if _, ok := mappings[key]; !ok {
			mappingOrder = append(mappingOrder, key)
		}
		mappings[key] = m
	}
	used := make(map[models.FormulaKey]bool)

	var reqs []resolve.Request
	var diags []models.Diagnostic
	for _, name := range wb.Order {
		sheet := wb.Sheets[name]
		for _, col := range discoveryColumns(sheet, opts) {
			header := sheet.Header(col)
			if header == "" {
				continue
			}
			key := models.NewFormulaKey(name, header)
			req := resolve.Request{
				Sheet:        name,
				ResultHeader: header,
				Cell:         models.CellAddress{Column: col, Row: sampleRow},
			}
			formula, found := sheet.Formula(col, sampleRow)
			req.Formula = formula
			if m, ok := mappings[key]; ok {
				used[key] = true
				if m.Formula != "" {
					req.Formula = m.Formula
				}
				req.Mapping = explicitMapping(m)
			}
			if req.Formula == "" {
				continue
			}
			reqs = append(reqs, req)

			if found {
				if d, ok := checkPattern(sheet, col, sampleRow, formula, key); ok {
					diags = append(diags, d)
				}
			}
		}
	}

	for _, key := range mappingOrder {
		if used[key] {
			continue
		}
		m := mappings[key]
		if m.Formula == "" {
			diags = append(diags, models.Diagnostic{
				Kind:    models.MissingHeaderReference,
				Sheet:   m.Sheet,
				Formula: key,
				Message: fmt.Sprintf("mapping for %s matches no formula column", key),
			})
			continue
		}
		reqs = append(reqs, resolve.Request{
			Sheet:        m.Sheet,
			ResultHeader: m.ResultHeader,
			Formula:      m.Formula,
			Mapping:      explicitMapping(m),
		})
	}
	return reqs, diags
}

// explicitMapping always returns a non-nil map so that an empty
// translation still bypasses header lookup.
func explicitMapping(m Mapping) resolve.ExplicitMap {
	em := resolve.NewExplicitMap(m.Translation)
	if em == nil {
		em = resolve.ExplicitMap{}
	}
	return em
}

// discoveryColumns returns the columns of a sheet to examine, ascending.
func discoveryColumns(sheet *models.Sheet, opts Options) []int {
	if letters, ok := opts.ColumnsPerSheet[sheet.Name]; ok {
		var cols []int
		for _, l := range letters {
			col, err := models.ColumnIndex(strings.ToUpper(strings.TrimSpace(l)))
			if err != nil {
				continue
			}
			cols = append(cols, col)
		}
		return cols
	}

	last := sheet.MaxHeaderColumn()
	if opts.MaxColumns > 0 && last > opts.MaxColumns {
		last = opts.MaxColumns
	}
	cols := make([]int, 0, last)
	for col := 1; col <= last; col++ {
		cols = append(cols, col)
	}
	return cols
}

// checkPattern compares every formula of a column with the sample row's
// generalized pattern and reports the first row that differs.
func checkPattern(sheet *models.Sheet, col, sampleRow int, sample string, key models.FormulaKey) (models.Diagnostic, bool) {
	want := resolve.Generalize(sample)
	for _, row := range sheet.ColumnFormulas(col) {
		if row == sampleRow || row == 1 {
			continue
		}
		formula, _ := sheet.Formula(col, row)
		if got := resolve.Generalize(formula); got != want {
			addr := models.CellAddress{Column: col, Row: row}
			return models.Diagnostic{
				Kind:      models.InconsistentFormulaPattern,
				Sheet:     sheet.Name,
				Formula:   key,
				Reference: addr.String(),
				Message:   fmt.Sprintf("%s has pattern %s, row %d has %s", addr, got, sampleRow, want),
			}, true
		}
	}
	return models.Diagnostic{}, false
}
