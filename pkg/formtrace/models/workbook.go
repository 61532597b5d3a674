package models

// Workbook is the in-memory view of a workbook consumed by the analysis.
type Workbook struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Order lists sheet names in workbook order.
	Order []string `json:"order"`
	// Sheets maps sheet name to Sheet.
	Sheets map[string]*Sheet `json:"sheets"`
}

// NewWorkbook returns an empty workbook.
func NewWorkbook(name string) *Workbook {
	return &Workbook{
		BookName: name,
		Sheets:   make(map[string]*Sheet),
	}
}

// AddSheet appends a sheet, replacing any sheet with the same name.
func (w *Workbook) AddSheet(s *Sheet) {
	if _, exists := w.Sheets[s.Name]; !exists {
		w.Order = append(w.Order, s.Name)
	}
	w.Sheets[s.Name] = s
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.Sheets[name]
	return s, ok
}

// HeaderMaps builds the semantic header map of every sheet.
func (w *Workbook) HeaderMaps() map[string]HeaderMap {
	maps := make(map[string]HeaderMap, len(w.Sheets))
	for name, s := range w.Sheets {
		maps[name] = BuildHeaderMap(s.HeaderRow)
	}
	return maps
}
