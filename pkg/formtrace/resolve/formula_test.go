package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

func TestResolveFormula(t *testing.T) {
	r := NewResolver(payrollHeaders())

	result := r.ResolveFormula(Request{
		Sheet:        "Data",
		ResultHeader: "TOTAL",
		Cell:         models.CellAddress{Column: 3, Row: 2},
		Formula:      "=A2+B2+Folha!C2+SUM(Folha!C2:C9)",
	}, TranslateOptions{})

	rf := result.Formula
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, models.FormulaKey("Data.TOTAL"), rf.Key)
	assert.Equal(t, "=SALARIO+BONUS+CARGO+SUM(CARGO)", rf.TranslatedText)
	assert.Equal(t, "=A{row}+B{row}+Folha!C{row}+SUM(Folha!C{row}:C{row})", rf.GeneralizedPattern)
	assert.Equal(t, []string{"SALARIO", "BONUS", "CARGO"}, rf.Dependencies)
	assert.Equal(t, []string{"Folha"}, rf.ExternalSheets)
	assert.Equal(t, map[string]int{"Folha": 2}, rf.ExternalRefCounts)
	assert.Equal(t, map[string]string{"A": "SALARIO", "B": "BONUS", "Folha!C": "CARGO"}, rf.TranslationMap)
	assert.Equal(t, []string{"SUM"}, rf.Functions)
	assert.Len(t, rf.References, 4)
	assert.Empty(t, rf.Unmapped)
	assert.False(t, rf.Explicit)
	assert.True(t, rf.DependsOn("CARGO"))
}

func TestResolveFormulaFallbacks(t *testing.T) {
	r := NewResolver(payrollHeaders())

	result := r.ResolveFormula(Request{
		Sheet:        "Data",
		ResultHeader: "TOTAL",
		Formula:      "=A2+D2+Missing!B2",
	}, TranslateOptions{})

	rf := result.Formula
	assert.Equal(t, "=SALARIO+D2+Missing!B2", rf.TranslatedText)
	assert.Equal(t, []string{"SALARIO", "D", "Missing!B"}, rf.Dependencies)
	assert.Equal(t, []string{"D", "Missing!B"}, rf.Unmapped)
	assert.Equal(t, []string{"Missing"}, rf.ExternalSheets)

	counts := models.CountDiagnostics(result.Diagnostics)
	assert.Equal(t, 1, counts[models.MissingHeaderReference])
	assert.Equal(t, 1, counts[models.MissingSheetReference])
	for _, d := range result.Diagnostics {
		assert.Equal(t, models.FormulaKey("Data.TOTAL"), d.Formula)
	}
}

func TestResolveFormulaParseWarning(t *testing.T) {
	r := NewResolver(payrollHeaders())

	result := r.ResolveFormula(Request{
		Sheet:        "Data",
		ResultHeader: "TOTAL",
		Formula:      "=A2+'Broken",
	}, TranslateOptions{})

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, models.ParseWarning, result.Diagnostics[0].Kind)
	assert.Equal(t, []string{"SALARIO"}, result.Formula.Dependencies)
}

func TestResolveFormulaExplicitMapping(t *testing.T) {
	r := NewResolver(payrollHeaders())

	result := r.ResolveFormula(Request{
		Sheet:        "Data",
		ResultHeader: "TOTAL",
		Formula:      "=A2*Folha!B2",
		Mapping:      NewExplicitMap(map[string]string{"A": "GROSS", "Folha!B": "RATE"}),
	}, TranslateOptions{})

	rf := result.Formula
	assert.True(t, rf.Explicit)
	assert.Equal(t, "=GROSS*RATE", rf.TranslatedText)
	assert.Equal(t, []string{"GROSS", "RATE"}, rf.Dependencies)
	assert.Equal(t, []string{"Folha"}, rf.ExternalSheets)
	assert.Empty(t, result.Diagnostics)
}
