// Package models defines data structures for formula reference analysis.
package models

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// MaxColumn is the last addressable column (XFD).
const MaxColumn = excelize.MaxColumns

// MaxRow is the last addressable row.
const MaxRow = excelize.TotalRows

// CellAddress identifies a single cell by 1-based column and row.
type CellAddress struct {
	// Column is the 1-based column index (A = 1).
	Column int `json:"column"`
	// Row is the 1-based row index.
	Row int `json:"row"`
}

// ParseCellAddress parses an A1-style name such as "B7" or "$B$7".
func ParseCellAddress(name string) (CellAddress, error) {
	col, row, err := excelize.CellNameToCoordinates(name)
	if err != nil {
		return CellAddress{}, err
	}
	return CellAddress{Column: col, Row: row}, nil
}

// String returns the A1-style name of the address.
func (a CellAddress) String() string {
	name, err := excelize.CoordinatesToCellName(a.Column, a.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", a.Row, a.Column)
	}
	return name
}

// ColumnIndex decodes column letters (A, Z, AA, ...) into a 1-based index.
func ColumnIndex(letters string) (int, error) {
	return excelize.ColumnNameToNumber(letters)
}

// ColumnLetters encodes a 1-based column index into its letter form.
func ColumnLetters(index int) (string, error) {
	return excelize.ColumnNumberToName(index)
}
