package models

import "strings"

// ReferenceKind classifies a parsed formula reference.
type ReferenceKind int

const (
	// LocalCell is an unqualified single cell such as A2 or $A$2.
	LocalCell ReferenceKind = iota
	// LocalRange is an unqualified cell range such as A2:B10.
	LocalRange
	// LocalColumnSpan is an unqualified full-column range such as A:A.
	LocalColumnSpan
	// SheetCell is a sheet-qualified single cell such as Data!A2.
	SheetCell
	// SheetRange is a sheet-qualified cell range such as Data!A2:B10.
	SheetRange
	// SheetColumnSpan is a sheet-qualified full-column range such as Data!B:C.
	SheetColumnSpan
)

var referenceKindNames = [...]string{
	LocalCell:       "local_cell",
	LocalRange:      "local_range",
	LocalColumnSpan: "local_column_span",
	SheetCell:       "sheet_cell",
	SheetRange:      "sheet_range",
	SheetColumnSpan: "sheet_column_span",
}

func (k ReferenceKind) String() string {
	if k < 0 || int(k) >= len(referenceKindNames) {
		return "unknown"
	}
	return referenceKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ReferenceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SheetQualified reports whether the kind carries a sheet name.
func (k ReferenceKind) SheetQualified() bool {
	return k == SheetCell || k == SheetRange || k == SheetColumnSpan
}

// ColumnSpan reports whether the kind covers whole columns.
func (k ReferenceKind) ColumnSpan() bool {
	return k == LocalColumnSpan || k == SheetColumnSpan
}

// Span is a half-open byte range [Start, End) inside the formula text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Reference is a single cell, range or column span found in a formula.
type Reference struct {
	// Kind classifies the reference.
	Kind ReferenceKind `json:"kind"`
	// Sheet is the target sheet for sheet-qualified kinds, unquoted.
	Sheet string `json:"sheet,omitempty"`
	// ColumnStart is the first column, upper-case letters without "$".
	ColumnStart string `json:"column_start"`
	// ColumnEnd is the last column; equal to ColumnStart for single cells.
	ColumnEnd string `json:"column_end"`
	// RowStart is the first row; 0 for column spans.
	RowStart int `json:"row_start,omitempty"`
	// RowEnd is the last row; 0 for column spans.
	RowEnd int `json:"row_end,omitempty"`
	// RawText is the reference exactly as written, "$" markers included.
	RawText string `json:"raw_text"`
	// Span locates RawText inside the formula.
	Span Span `json:"span"`
	// Quoted is set when the sheet name was written in single quotes.
	Quoted bool `json:"quoted,omitempty"`
}

// MultiColumn reports whether the reference covers more than one column.
func (r Reference) MultiColumn() bool {
	return r.ColumnEnd != "" && r.ColumnEnd != r.ColumnStart
}

// Key returns the raw reference key of the first column, e.g. "A" or
// "Data!A". Row numbers and "$" markers never take part in the key.
func (r Reference) Key() string {
	return r.columnKey(r.ColumnStart)
}

// EndKey returns the raw reference key of the last column.
func (r Reference) EndKey() string {
	if r.ColumnEnd == "" {
		return r.Key()
	}
	return r.columnKey(r.ColumnEnd)
}

// SpanKey returns the key of the whole column range, e.g. "B:C" or
// "Data!B:C". Single-column references return Key.
func (r Reference) SpanKey() string {
	if !r.MultiColumn() {
		return r.Key()
	}
	return r.columnKey(r.ColumnStart + ":" + r.ColumnEnd)
}

func (r Reference) columnKey(col string) string {
	if r.Kind.SheetQualified() {
		return r.Sheet + "!" + col
	}
	return col
}

// NormalizeRefKey strips "$" markers and row digits and upper-cases the
// column part of a raw key, so "$a$1", "A$" and "A" all become "A". The
// sheet part is kept as written, minus surrounding quotes.
func NormalizeRefKey(key string) string {
	key = strings.TrimSpace(key)
	sheet, cols := "", key
	if i := strings.LastIndex(key, "!"); i >= 0 {
		sheet, cols = key[:i], key[i+1:]
		sheet = strings.Trim(sheet, "'")
	}
	cols = strings.Map(func(r rune) rune {
		if r == '$' || (r >= '0' && r <= '9') {
			return -1
		}
		return r
	}, strings.ToUpper(cols))
	if sheet == "" {
		return cols
	}
	return sheet + "!" + cols
}
