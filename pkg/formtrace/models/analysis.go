package models

// Analysis is the structural result of analysing one workbook.
type Analysis struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Formulas are the resolved formulas ordered by key.
	Formulas []ResolvedFormula `json:"formulas"`
	// Graph is the dependency graph built from Formulas.
	Graph *DependencyGraph `json:"graph"`
	// SheetEdges is the sheet adjacency as a sorted edge list.
	SheetEdges []SheetEdge `json:"sheet_edges"`
	// Leveling is the sheet processing order and any cycles.
	Leveling Leveling `json:"leveling"`
	// Statistics summarises the graph.
	Statistics Statistics `json:"statistics"`
	// Suggestions are optimisation hints.
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	// Diagnostics are the non-fatal conditions found.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
