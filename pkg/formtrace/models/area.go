package models

// Area is a rectangular block of cells, such as a sheet's used range.
type Area struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// Contains reports whether the address lies inside the area.
func (a Area) Contains(addr CellAddress) bool {
	return addr.Row >= a.R1 && addr.Row <= a.R2 && addr.Column >= a.C1 && addr.Column <= a.C2
}

// Clip caps the end row at maxRows and the end column at maxCols.
// Zero leaves the dimension untouched.
func (a Area) Clip(maxRows, maxCols int) Area {
	if maxRows > 0 && a.R2 > maxRows {
		a.R2 = maxRows
	}
	if maxCols > 0 && a.C2 > maxCols {
		a.C2 = maxCols
	}
	return a
}
