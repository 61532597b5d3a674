package models

// SheetEdge is a weighted "sheet references sheet" edge.
type SheetEdge struct {
	// From is the sheet holding the referencing formulas.
	From string `json:"from"`
	// To is the referenced sheet.
	To string `json:"to"`
	// Count is the number of references from From to To.
	Count int `json:"count"`
}

// DependencyGraph links formulas, columns and sheets.
type DependencyGraph struct {
	// Sheets lists every sheet node: workbook sheets first, then referenced
	// sheets absent from the workbook.
	Sheets []string `json:"sheets"`
	// FormulaDeps maps a formula to the semantic names it consumes.
	FormulaDeps map[FormulaKey][]string `json:"formula_dependencies"`
	// ResultColumns maps a formula to the column it computes.
	ResultColumns map[FormulaKey]string `json:"result_columns"`
	// Reverse maps a semantic name to the formulas consuming it, sorted.
	Reverse map[string][]FormulaKey `json:"reverse_dependencies"`
	// SheetAdjacency maps from-sheet to to-sheet to reference count.
	SheetAdjacency map[string]map[string]int `json:"sheet_adjacency"`
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		FormulaDeps:    make(map[FormulaKey][]string),
		ResultColumns:  make(map[FormulaKey]string),
		Reverse:        make(map[string][]FormulaKey),
		SheetAdjacency: make(map[string]map[string]int),
	}
}

// Cycle is an ordered chain of sheets where each references the next and
// the last references the first.
type Cycle struct {
	// Sheets lists the chain, starting at the member listed first in the graph.
	Sheets []string `json:"sheets"`
}

// Len returns the number of sheets in the cycle.
func (c Cycle) Len() int {
	return len(c.Sheets)
}

// Leveling is the processing order assigned to sheets.
type Leveling struct {
	// Levels lists sheets per level, each level sorted by name.
	Levels [][]string `json:"levels"`
	// LevelOf maps a sheet to its level.
	LevelOf map[string]int `json:"level_of"`
	// Cycles holds the circular chains found, if any.
	Cycles []Cycle `json:"cycles,omitempty"`
}

// Statistics summarises a dependency graph.
type Statistics struct {
	// TotalFormulas is the number of resolved formulas.
	TotalFormulas int `json:"total_formulas"`
	// TotalDependencies sums the dependencies of every formula.
	TotalDependencies int `json:"total_dependencies"`
	// CrossSheetReference is the sum of sheet edge counts.
	CrossSheetReference int `json:"cross_sheet_references"`
	// MostReferenced lists the names consumed by the most formulas, at most MostReferencedLimit of them.
	MostReferenced []string `json:"most_referenced,omitempty"`
	// LevelCount is the number of processing levels.
	LevelCount int `json:"level_count"`
}

// Suggestion is an optimisation hint derived from the sheet graph.
type Suggestion struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Remedy      string `json:"remedy"`
}
