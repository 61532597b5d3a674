package parser

import (
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
)

// ParseArea parses "$A$1:$D$10", "A1:D10" or a single "B7" into an Area.
// It returns nil when the text is not a cell range.
func ParseArea(rangeStr string) *models.Area {
	rangeStr = strings.ReplaceAll(strings.TrimSpace(rangeStr), "$", "")
	if i := strings.LastIndex(rangeStr, "!"); i >= 0 {
		rangeStr = rangeStr[i+1:]
	}

	parts := strings.Split(rangeStr, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return nil
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return nil
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return nil
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}

	return &models.Area{R1: startRow, C1: startCol, R2: endRow, C2: endCol}
}

// usedArea returns the block of a sheet worth scanning for formulas. The
// recorded sheet dimension wins; otherwise the bounds of non-empty values.
func usedArea(f *excelize.File, sheetName string, rows [][]string) models.Area {
	if dim, err := f.GetSheetDimension(sheetName); err == nil {
		if area := ParseArea(dim); area != nil {
			if bounds, ok := dataBounds(rows); ok {
				area.R2 = max(area.R2, bounds.R2)
				area.C2 = max(area.C2, bounds.C2)
			}
			area.R1, area.C1 = 1, 1
			return *area
		}
	}
	if bounds, ok := dataBounds(rows); ok {
		bounds.R1, bounds.C1 = 1, 1
		return bounds
	}
	return models.Area{R1: 1, C1: 1}
}

// dataBounds finds the 1-based bounding box of non-empty cells.
func dataBounds(rows [][]string) (models.Area, bool) {
	minRow, maxRow := -1, -1
	minCol, maxCol := -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}
	if minRow < 0 {
		return models.Area{}, false
	}
	return models.Area{R1: minRow + 1, C1: minCol + 1, R2: maxRow + 1, C2: maxCol + 1}, true
}
