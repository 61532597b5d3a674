package formtrace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
)

func newSheet(name string, headers map[int]string, formulas map[string]string) *models.Sheet {
	s := models.NewSheet(name)
	for col, h := range headers {
		s.HeaderRow[col] = h
	}
	for cell, f := range formulas {
		addr, err := models.ParseCellAddress(cell)
		if err != nil {
			panic(err)
		}
		s.Formulas[addr] = f
	}
	return s
}

// payrollWorkbook chains Resumo -> Folha -> Data; Data's TOTAL column has
// one row off pattern.
func payrollWorkbook() *models.Workbook {
	wb := models.NewWorkbook("payroll.xlsx")
	wb.AddSheet(newSheet("Data",
		map[int]string{1: "SALARIO", 2: "BONUS", 3: "TOTAL"},
		map[string]string{"C2": "=A2+B2", "C3": "=A3+B3", "C4": "=A4*2"}))
	wb.AddSheet(newSheet("Folha",
		map[int]string{1: "MATRICULA", 2: "LIQUIDO", 3: "NOME"},
		map[string]string{"B2": "=Data!C2*0.9"}))
	wb.AddSheet(newSheet("Resumo",
		map[int]string{1: "TOTALGERAL"},
		map[string]string{"A2": "=SUM(Folha!B:B)"}))
	return wb
}

func writePayrollFile(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Data"))
	_, err := f.NewSheet("Folha")
	require.NoError(t, err)

	for cell, v := range map[string]string{"A1": "SALARIO", "B1": "BONUS", "C1": "TOTAL"} {
		require.NoError(t, f.SetCellValue("Data", cell, v))
	}
	require.NoError(t, f.SetCellValue("Data", "A2", 100))
	require.NoError(t, f.SetCellValue("Data", "B2", 10))
	require.NoError(t, f.SetCellFormula("Data", "C2", "A2+B2"))

	require.NoError(t, f.SetCellValue("Folha", "A1", "LIQUIDO"))
	require.NoError(t, f.SetCellFormula("Folha", "A2", "Data!C2*0.9"))

	path := filepath.Join(t.TempDir(), "payroll.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
