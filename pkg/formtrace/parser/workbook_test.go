package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
)

func writePayrollBook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Data"))
	for col, header := range []string{"SALARIO", "BONUS", "TOTAL"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, f.SetCellValue("Data", cell, header))
	}
	require.NoError(t, f.SetCellValue("Data", "A2", 1000))
	require.NoError(t, f.SetCellValue("Data", "B2", 100))
	require.NoError(t, f.SetCellFormula("Data", "C2", "A2+B2"))
	require.NoError(t, f.SetCellValue("Data", "A3", 2000))
	require.NoError(t, f.SetCellValue("Data", "B3", 200))
	require.NoError(t, f.SetCellFormula("Data", "C3", "=A3+B3"))

	_, err := f.NewSheet("Folha")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Folha", "A1", "TOTAL"))
	require.NoError(t, f.SetCellFormula("Folha", "A2", "Data!C2*2"))

	path := filepath.Join(t.TempDir(), "payroll.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadWorkbook(t *testing.T) {
	path := writePayrollBook(t)

	wb, err := LoadWorkbook(path, LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "payroll.xlsx", wb.BookName)
	assert.Equal(t, []string{"Data", "Folha"}, wb.Order)

	data, ok := wb.Sheet("Data")
	require.True(t, ok)
	assert.Equal(t, "SALARIO", data.Header(1))
	assert.Equal(t, "TOTAL", data.Header(3))
	assert.True(t, data.Cells[models.CellAddress{Column: 1, Row: 2}])
	assert.True(t, data.HasValue(models.CellAddress{Column: 2, Row: 3}))
	assert.False(t, data.HasValue(models.CellAddress{Column: 1, Row: 4}))

	formula, ok := data.Formula(3, 2)
	require.True(t, ok)
	assert.Equal(t, "=A2+B2", formula)
	formula, ok = data.Formula(3, 3)
	require.True(t, ok)
	assert.Equal(t, "=A3+B3", formula)
	assert.Equal(t, []int{2, 3}, data.ColumnFormulas(3))
	_, ok = data.Formula(1, 2)
	assert.False(t, ok)

	folha, ok := wb.Sheet("Folha")
	require.True(t, ok)
	formula, ok = folha.Formula(1, 2)
	require.True(t, ok)
	assert.Equal(t, "=Data!C2*2", formula)
}

func TestLoadWorkbookMaxRows(t *testing.T) {
	path := writePayrollBook(t)

	wb, err := LoadWorkbook(path, LoadOptions{MaxRows: 2})
	require.NoError(t, err)

	data, _ := wb.Sheet("Data")
	assert.Equal(t, []int{2}, data.ColumnFormulas(3))
	assert.False(t, data.Cells[models.CellAddress{Column: 1, Row: 3}])
}

func TestLoadWorkbookMissingFile(t *testing.T) {
	_, err := LoadWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"), LoadOptions{})
	require.Error(t, err)
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		input    string
		expected *models.Area
	}{
		{"$A$1:$D$10", &models.Area{R1: 1, C1: 1, R2: 10, C2: 4}},
		{"B7", &models.Area{R1: 7, C1: 2, R2: 7, C2: 2}},
		{"'My Sheet'!C3:A1", &models.Area{R1: 1, C1: 1, R2: 3, C2: 3}},
		{"", nil},
		{"A1:B2:C3", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseArea(tt.input), tt.input)
	}
}

func TestDataBounds(t *testing.T) {
	area, ok := dataBounds([][]string{{}, {"", "x"}, {"", "", "y"}})
	require.True(t, ok)
	assert.Equal(t, models.Area{R1: 2, C1: 2, R2: 3, C2: 3}, area)

	_, ok = dataBounds(nil)
	assert.False(t, ok)
}
