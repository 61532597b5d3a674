package formtrace

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/resolve"
)

type sheetPair struct {
	from, to string
}

type sheetCell struct {
	sheet string
	addr  models.CellAddress
}

// crossSheetReferences scans every formula of every sheet, not only the
// discovered ones, for sheet-qualified references. Each reference adds one
// to the edge from its home sheet to the target, named the way the
// workbook spells it; references back into the home sheet add nothing.
// Resolved formulas whose text is not stored in the workbook, such as
// mapping overrides, add their own external references.
//
// A single-cell reference into an existing sheet whose target cell holds
// nothing yields a MissingCellReference diagnostic.
func crossSheetReferences(wb *models.Workbook, r *resolve.Resolver, formulas []models.ResolvedFormula, opts Options) ([]models.SheetEdge, []models.Diagnostic) {
	counts := make(map[sheetPair]int)
	stored := make(map[sheetCell]models.FormulaKey, len(formulas))

	for i := range formulas {
		f := &formulas[i]
		if sheet, ok := wb.Sheets[f.SheetName]; ok && sheet.Formulas[f.Cell] == f.OriginalText {
			stored[sheetCell{f.SheetName, f.Cell}] = f.Key
			continue
		}
		for _, target := range f.ExternalSheets {
			if !strings.EqualFold(target, f.SheetName) {
				counts[sheetPair{f.SheetName, target}] += max(f.ExternalRefCounts[target], 1)
			}
		}
	}

	var diags []models.Diagnostic
	for _, home := range wb.Order {
		sheet := wb.Sheets[home]
		for _, addr := range sortedFormulaCells(sheet) {
			for _, ref := range parser.ParseReferences(sheet.Formulas[addr]).References {
				if !ref.Kind.SheetQualified() {
					continue
				}
				target, exists := r.Sheet(ref.Sheet)
				if !exists {
					target = ref.Sheet
				}
				if !strings.EqualFold(target, home) {
					counts[sheetPair{home, target}]++
				}
				if !exists || ref.Kind != models.SheetCell {
					continue
				}
				if d, ok := emptyCellReference(wb.Sheets[target], ref, home, addr, opts); ok {
					d.Formula = stored[sheetCell{home, addr}]
					diags = append(diags, d)
				}
			}
		}
	}

	edges := make([]models.SheetEdge, 0, len(counts))
	for p, count := range counts {
		edges = append(edges, models.SheetEdge{From: p.from, To: p.to, Count: count})
	}
	slices.SortFunc(edges, func(a, b models.SheetEdge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return edges, diags
}

// emptyCellReference reports a reference to a cell of target that holds
// nothing. Cells beyond the scanned rows or columns were never read and
// are not reported.
func emptyCellReference(target *models.Sheet, ref models.Reference, home string, at models.CellAddress, opts Options) (models.Diagnostic, bool) {
	col, err := models.ColumnIndex(ref.ColumnStart)
	if err != nil || target == nil {
		return models.Diagnostic{}, false
	}
	addr := models.CellAddress{Column: col, Row: ref.RowStart}
	if (opts.MaxRows > 0 && addr.Row > opts.MaxRows) || (opts.MaxColumns > 0 && addr.Column > opts.MaxColumns) {
		return models.Diagnostic{}, false
	}
	if target.HasValue(addr) {
		return models.Diagnostic{}, false
	}
	return models.Diagnostic{
		Kind:      models.MissingCellReference,
		Sheet:     home,
		Reference: ref.RawText,
		Message:   fmt.Sprintf("%s!%s references empty cell %s!%s", home, at, target.Name, addr),
	}, true
}

func sortedFormulaCells(sheet *models.Sheet) []models.CellAddress {
	cells := make([]models.CellAddress, 0, len(sheet.Formulas))
	for addr := range sheet.Formulas {
		cells = append(cells, addr)
	}
	slices.SortFunc(cells, func(a, b models.CellAddress) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Column, b.Column)
	})
	return cells
}
