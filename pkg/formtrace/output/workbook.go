package output

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/graph"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
)

// Summary sheet names, in workbook order.
const (
	SheetFormulas    = "Formulas"
	SheetSheets      = "Sheets"
	SheetCycles      = "Cycles"
	SheetImpact      = "Impact"
	SheetDiagnostics = "Diagnostics"
)

// WriteWorkbook saves an xlsx summary of an analysis. report may be nil,
// leaving the Impact sheet with its header only.
func WriteWorkbook(path string, a *models.Analysis, report *models.ImpactReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFormulas); err != nil {
		return err
	}
	for _, name := range []string{SheetSheets, SheetCycles, SheetImpact, SheetDiagnostics} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	tables := []struct {
		sheet  string
		header []any
		rows   [][]any
	}{
		{SheetFormulas, []any{"Key", "Sheet", "Result", "Cell", "Original", "Translated", "Pattern", "Dependencies", "External sheets", "Unmapped"}, formulaRows(a)},
		{SheetSheets, []any{"Sheet", "Level", "References"}, sheetRows(a)},
		{SheetCycles, []any{"#", "Length", "Path"}, cycleRows(a)},
		{SheetImpact, []any{"Origin", "Divergent cells", "Affected columns", "Affected formulas", "Score", "Severity"}, impactRows(report)},
		{SheetDiagnostics, []any{"Kind", "Sheet", "Formula", "Reference", "Message"}, diagnosticRows(a)},
	}
	for _, t := range tables {
		if err := writeTable(f, t.sheet, t.header, t.rows, bold); err != nil {
			return fmt.Errorf("writing sheet %s: %w", t.sheet, err)
		}
	}

	return f.SaveAs(path)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func formulaRows(a *models.Analysis) [][]any {
	rows := make([][]any, 0, len(a.Formulas))
	for _, rf := range a.Formulas {
		rows = append(rows, []any{
			string(rf.Key), rf.SheetName, rf.ResultHeader, rf.Cell.String(),
			rf.OriginalText, rf.TranslatedText, rf.GeneralizedPattern,
			strings.Join(rf.Dependencies, ", "),
			strings.Join(rf.ExternalSheets, ", "),
			strings.Join(rf.Unmapped, ", "),
		})
	}
	return rows
}

func sheetRows(a *models.Analysis) [][]any {
	if a.Graph == nil {
		return nil
	}
	rows := make([][]any, 0, len(a.Graph.Sheets))
	for _, s := range a.Graph.Sheets {
		adj := a.Graph.SheetAdjacency[s]
		targets := make([]string, 0, len(adj))
		for to := range adj {
			targets = append(targets, to)
		}
		slices.Sort(targets)
		refs := make([]string, 0, len(targets))
		for _, to := range targets {
			refs = append(refs, fmt.Sprintf("%s (%d)", to, adj[to]))
		}
		rows = append(rows, []any{s, a.Leveling.LevelOf[s], strings.Join(refs, ", ")})
	}
	return rows
}

func cycleRows(a *models.Analysis) [][]any {
	rows := make([][]any, 0, len(a.Leveling.Cycles))
	for i, c := range a.Leveling.Cycles {
		rows = append(rows, []any{i + 1, c.Len(), graph.CyclePath(c)})
	}
	return rows
}

func impactRows(report *models.ImpactReport) [][]any {
	if report == nil {
		return nil
	}
	rows := make([][]any, 0, len(report.Records))
	for _, rec := range report.Records {
		formulas := make([]string, 0, len(rec.AffectedFormulas))
		for _, k := range rec.AffectedFormulas {
			formulas = append(formulas, string(k))
		}
		rows = append(rows, []any{
			rec.OriginColumn, len(rec.DivergentCells),
			strings.Join(rec.AffectedColumns, ", "),
			strings.Join(formulas, ", "),
			rec.Score(), string(rec.Severity),
		})
	}
	return rows
}

func diagnosticRows(a *models.Analysis) [][]any {
	rows := make([][]any, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		rows = append(rows, []any{string(d.Kind), d.Sheet, string(d.Formula), d.Reference, d.Message})
	}
	return rows
}
