package models

import (
	"slices"
	"strings"
)

// Sheet holds what the analysis needs from one worksheet.
type Sheet struct {
	// Name is the sheet name as declared in the workbook.
	Name string `json:"name"`
	// HeaderRow maps 1-based column index to the raw row-1 text.
	HeaderRow map[int]string `json:"header_row"`
	// Formulas maps cell address to formula text, leading "=" included.
	Formulas map[CellAddress]string `json:"-"`
	// Cells holds the addresses of cells carrying a value.
	Cells map[CellAddress]bool `json:"-"`
}

// NewSheet returns an empty sheet ready to be filled.
func NewSheet(name string) *Sheet {
	return &Sheet{
		Name:      name,
		HeaderRow: make(map[int]string),
		Formulas:  make(map[CellAddress]string),
		Cells:     make(map[CellAddress]bool),
	}
}

// Header returns the trimmed raw header text of a column.
func (s *Sheet) Header(col int) string {
	return strings.TrimSpace(s.HeaderRow[col])
}

// Formula returns the formula stored at col/row, if any.
func (s *Sheet) Formula(col, row int) (string, bool) {
	f, ok := s.Formulas[CellAddress{Column: col, Row: row}]
	return f, ok
}

// HasValue reports whether a cell holds a value, a formula or header text.
func (s *Sheet) HasValue(addr CellAddress) bool {
	if s.Cells[addr] {
		return true
	}
	if _, ok := s.Formulas[addr]; ok {
		return true
	}
	return addr.Row == 1 && s.Header(addr.Column) != ""
}

// ColumnFormulas returns the rows of a column holding formulas, ascending.
func (s *Sheet) ColumnFormulas(col int) []int {
	var rows []int
	for addr := range s.Formulas {
		if addr.Column == col {
			rows = append(rows, addr.Row)
		}
	}
	slices.Sort(rows)
	return rows
}

// MaxHeaderColumn returns the right-most column carrying header text.
func (s *Sheet) MaxHeaderColumn() int {
	max := 0
	for col, text := range s.HeaderRow {
		if col > max && strings.TrimSpace(text) != "" {
			max = col
		}
	}
	return max
}

// HeaderMap maps 1-based column index to a semantic name. Columns with an
// empty or duplicated header are absent.
type HeaderMap map[int]string

// BuildHeaderMap derives the semantic header map from a raw header row.
// Every column sharing a duplicated header is left unmapped.
func BuildHeaderMap(row map[int]string) HeaderMap {
	seen := make(map[string]int, len(row))
	for _, text := range row {
		if name := strings.TrimSpace(text); name != "" {
			seen[name]++
		}
	}
	hm := make(HeaderMap, len(row))
	for col, text := range row {
		name := strings.TrimSpace(text)
		if name == "" || seen[name] > 1 {
			continue
		}
		hm[col] = name
	}
	return hm
}

// Lookup resolves column letters to a header name.
func (h HeaderMap) Lookup(letters string) (string, bool) {
	col, err := ColumnIndex(letters)
	if err != nil {
		return "", false
	}
	name, ok := h[col]
	return name, ok
}

// Column returns the column index carrying the given header.
func (h HeaderMap) Column(name string) (int, bool) {
	for col, n := range h {
		if n == name {
			return col, true
		}
	}
	return 0, false
}
