package formtrace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
)

func kinds(diags []models.Diagnostic) []models.DiagnosticKind {
	var out []models.DiagnosticKind
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(context.Background(), payrollWorkbook(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "payroll.xlsx", a.BookName)
	require.Len(t, a.Formulas, 3)
	assert.Equal(t, models.FormulaKey("Data.TOTAL"), a.Formulas[0].Key)
	assert.Equal(t, models.FormulaKey("Folha.LIQUIDO"), a.Formulas[1].Key)
	assert.Equal(t, models.FormulaKey("Resumo.TOTALGERAL"), a.Formulas[2].Key)

	total := a.Formulas[0]
	assert.Equal(t, "=SALARIO+BONUS", total.TranslatedText)
	assert.Equal(t, "=A{row}+B{row}", total.GeneralizedPattern)
	assert.Equal(t, []string{"SALARIO", "BONUS"}, total.Dependencies)

	liquido := a.Formulas[1]
	assert.Equal(t, "=TOTAL*0.9", liquido.TranslatedText)
	assert.Equal(t, []string{"Data"}, liquido.ExternalSheets)

	assert.Equal(t, "=SUM(LIQUIDO)", a.Formulas[2].TranslatedText)
	assert.Equal(t, []string{"LIQUIDO"}, a.Formulas[2].Dependencies)

	assert.Equal(t, [][]string{{"Data"}, {"Folha"}, {"Resumo"}}, a.Leveling.Levels)
	assert.Empty(t, a.Leveling.Cycles)
	assert.Equal(t, []models.SheetEdge{
		{From: "Folha", To: "Data", Count: 1},
		{From: "Resumo", To: "Folha", Count: 1},
	}, a.SheetEdges)

	assert.Equal(t, 3, a.Statistics.TotalFormulas)
	assert.Equal(t, 4, a.Statistics.TotalDependencies)
	assert.Equal(t, 2, a.Statistics.CrossSheetReference)
	assert.Equal(t, 3, a.Statistics.LevelCount)
	assert.Equal(t, []string{"BONUS", "LIQUIDO", "SALARIO"}, a.Statistics.MostReferenced)
	assert.Empty(t, a.Suggestions)

	assert.Equal(t, []models.DiagnosticKind{models.InconsistentFormulaPattern}, kinds(a.Diagnostics))
}

func TestAnalyzeSingleWorker(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 1

	a, err := Analyze(context.Background(), payrollWorkbook(), opts)
	require.NoError(t, err)
	assert.Len(t, a.Formulas, 3)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, payrollWorkbook(), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeCycle(t *testing.T) {
	wb := models.NewWorkbook("cycle.xlsx")
	wb.AddSheet(newSheet("Alfa", map[int]string{1: "X"}, map[string]string{"A2": "=Beta!A2+1"}))
	wb.AddSheet(newSheet("Beta", map[int]string{1: "Y"}, map[string]string{"A2": "=Alfa!A2*2"}))

	a, err := Analyze(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, a.Leveling.Cycles, 1)
	assert.Equal(t, []string{"Alfa", "Beta"}, a.Leveling.Cycles[0].Sheets)
	assert.Equal(t, map[string]int{"Alfa": 0, "Beta": 0}, a.Leveling.LevelOf)

	assert.Contains(t, kinds(a.Diagnostics), models.CircularDependency)
	assert.Contains(t, kinds(a.Diagnostics), models.CircularFormulaReference)
	require.NotEmpty(t, a.Suggestions)
	assert.Equal(t, "circular_dependency", a.Suggestions[0].Kind)
}

func TestAnalyzeCycleThroughTotalsRow(t *testing.T) {
	wb := models.NewWorkbook("totals.xlsx")
	wb.AddSheet(newSheet("Resumo", map[int]string{1: "TOTAL"}, map[string]string{"A5": "=SUM(Vendas!B:B)"}))
	wb.AddSheet(newSheet("Vendas", map[int]string{2: "VALOR"}, map[string]string{"B2": "=Resumo!A5*2"}))

	a, err := Analyze(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, a.Formulas, 1)
	assert.Equal(t, models.FormulaKey("Vendas.VALOR"), a.Formulas[0].Key)
	assert.Equal(t, []models.SheetEdge{
		{From: "Resumo", To: "Vendas", Count: 1},
		{From: "Vendas", To: "Resumo", Count: 1},
	}, a.SheetEdges)

	require.Len(t, a.Leveling.Cycles, 1)
	assert.Equal(t, []string{"Resumo", "Vendas"}, a.Leveling.Cycles[0].Sheets)
	assert.Contains(t, kinds(a.Diagnostics), models.CircularDependency)
	assert.Equal(t, 2, a.Statistics.CrossSheetReference)
}

func TestAnalyzeSheetEdgesUseWorkbookSpelling(t *testing.T) {
	wb := models.NewWorkbook("case.xlsx")
	wb.AddSheet(newSheet("Data", map[int]string{1: "V"}, map[string]string{"A2": "=1"}))
	wb.AddSheet(newSheet("Calc", map[int]string{1: "OUT"}, map[string]string{
		"A2": "=data!A2+DATA!A2",
		"A3": "=Calc!A2+A2",
	}))

	a, err := Analyze(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []models.SheetEdge{{From: "Calc", To: "Data", Count: 2}}, a.SheetEdges)
}

func TestAnalyzeMissingCellReference(t *testing.T) {
	wb := models.NewWorkbook("cells.xlsx")
	data := newSheet("Data", map[int]string{1: "BASE"}, nil)
	data.Cells[models.CellAddress{Column: 1, Row: 2}] = true
	wb.AddSheet(data)
	wb.AddSheet(newSheet("Calc", map[int]string{1: "OUT"}, map[string]string{
		"A2": "=Data!A2+Data!A9",
		"A6": "=Data!Z40",
	}))

	a, err := Analyze(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)

	var missing []models.Diagnostic
	for _, d := range a.Diagnostics {
		if d.Kind == models.MissingCellReference {
			missing = append(missing, d)
		}
	}
	require.Len(t, missing, 2)
	assert.Equal(t, "Data!A9", missing[0].Reference)
	assert.Equal(t, models.FormulaKey("Calc.OUT"), missing[0].Formula)
	assert.Equal(t, "Calc!A2 references empty cell Data!A9", missing[0].Message)
	assert.Equal(t, "Data!Z40", missing[1].Reference)
	assert.Empty(t, missing[1].Formula)

	opts := DefaultOptions()
	opts.MaxRows = 10
	a, err = Analyze(context.Background(), wb, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, models.CountDiagnostics(a.Diagnostics)[models.MissingCellReference])
}

func TestAnalyzeDuplicateKeys(t *testing.T) {
	build := func() *models.Workbook {
		wb := models.NewWorkbook("dup.xlsx")
		wb.AddSheet(newSheet("S", map[int]string{1: "V", 2: "V"}, map[string]string{"A2": "=1", "B2": "=2"}))
		return wb
	}

	a, err := Analyze(context.Background(), build(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, a.Formulas, 1)
	assert.Equal(t, "=2", a.Formulas[0].OriginalText)
	require.Len(t, a.Diagnostics, 1)
	assert.Equal(t, models.DuplicateFormulaKey, a.Diagnostics[0].Kind)
	assert.Equal(t, "formula at B2 replaces the one at A2", a.Diagnostics[0].Message)

	opts := DefaultOptions()
	opts.Duplicates = DuplicatesIgnore
	a, err = Analyze(context.Background(), build(), opts)
	require.NoError(t, err)
	assert.Len(t, a.Formulas, 1)
	assert.Empty(t, a.Diagnostics)
}

func TestAnalyzeMissingReferences(t *testing.T) {
	wb := models.NewWorkbook("missing.xlsx")
	wb.AddSheet(newSheet("S", map[int]string{1: "OUT"}, map[string]string{"A2": "=Ghost!A2+Q2"}))

	a, err := Analyze(context.Background(), wb, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, a.Formulas, 1)
	assert.Equal(t, []string{"Ghost!A", "Q"}, a.Formulas[0].Dependencies)
	assert.Equal(t, []string{"S", "Ghost"}, a.Graph.Sheets)
	assert.ElementsMatch(t,
		[]models.DiagnosticKind{models.MissingSheetReference, models.MissingHeaderReference},
		kinds(a.Diagnostics))
}

func TestAnalyzeImpact(t *testing.T) {
	a, err := Analyze(context.Background(), payrollWorkbook(), DefaultOptions())
	require.NoError(t, err)

	report := AnalyzeImpact(a, []models.ValidationOutcome{
		{Row: 2, Column: "SALARIO", Passed: false},
		{Row: 2, Column: "TOTAL", Passed: false},
	}, DefaultOptions())

	require.Len(t, report.Records, 2)
	salario := report.Records[0]
	assert.Equal(t, "SALARIO", salario.OriginColumn)
	assert.Equal(t, []string{"LIQUIDO", "TOTAL", "TOTALGERAL"}, salario.AffectedColumns)
	assert.Equal(t, []models.FormulaKey{"Data.TOTAL", "Folha.LIQUIDO", "Resumo.TOTALGERAL"}, salario.AffectedFormulas)
	assert.Equal(t, models.SeverityCritical, salario.Severity)

	require.Len(t, report.Causes, 1)
	assert.Equal(t, "Possible causes: divergences in SALARIO, BONUS", report.Causes[0].Message)
}

func TestAnalyzeFile(t *testing.T) {
	path := writePayrollFile(t)

	a, err := AnalyzeFile(context.Background(), path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "payroll.xlsx", a.BookName)
	require.Len(t, a.Formulas, 2)
	assert.Equal(t, "=SALARIO+BONUS", a.Formulas[0].TranslatedText)
	assert.Equal(t, "=TOTAL*0.9", a.Formulas[1].TranslatedText)
	assert.Equal(t, map[string]int{"Data": 0, "Folha": 1}, a.Leveling.LevelOf)
}

func TestAnalyzeFileWithCache(t *testing.T) {
	path := writePayrollFile(t)
	cache, err := parser.NewWorkbookCache(2)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Cache = cache
	_, err = AnalyzeFile(context.Background(), path, opts)
	require.NoError(t, err)
	_, err = AnalyzeFile(context.Background(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestAnalyzeFileErrors(t *testing.T) {
	_, err := AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), DefaultOptions())
	assert.ErrorIs(t, err, ErrFileNotFound)

	bad := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))
	_, err = AnalyzeFile(context.Background(), bad, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedWorkbook)

	var mwe *MalformedWorkbookError
	require.True(t, errors.As(err, &mwe))
	assert.Equal(t, bad, mwe.Path)
}
