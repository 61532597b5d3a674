package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// MostReferencedLimit is how many columns Summarize lists as most referenced.
const MostReferencedLimit = 3

// Summarize computes graph statistics.
func Summarize(g *models.DependencyGraph, leveling models.Leveling) models.Statistics {
	stats := models.Statistics{
		TotalFormulas: len(g.FormulaDeps),
		LevelCount:    len(leveling.Levels),
	}
	for _, deps := range g.FormulaDeps {
		stats.TotalDependencies += len(deps)
	}
	for _, adj := range g.SheetAdjacency {
		for _, count := range adj {
			stats.CrossSheetReference += count
		}
	}

	type ranked struct {
		name  string
		count int
	}
	var refs []ranked
	for name, keys := range g.Reverse {
		refs = append(refs, ranked{name, len(keys)})
	}
	slices.SortFunc(refs, func(a, b ranked) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	for i := 0; i < len(refs) && i < MostReferencedLimit; i++ {
		stats.MostReferenced = append(stats.MostReferenced, refs[i].name)
	}
	return stats
}

// SuggestionOptions holds the thresholds for optimisation hints.
type SuggestionOptions struct {
	// MaxSheetDependencies is the number of referenced sheets above which
	// a sheet is flagged as complex.
	MaxSheetDependencies int `json:"max_sheet_dependencies"`
	// MaxExternalReferences is the number of cross-sheet references above
	// which a sheet is flagged.
	MaxExternalReferences int `json:"max_external_references"`
}

// DefaultSuggestionOptions returns the default thresholds.
func DefaultSuggestionOptions() SuggestionOptions {
	return SuggestionOptions{
		MaxSheetDependencies:  5,
		MaxExternalReferences: 20,
	}
}

// Suggest derives optimisation hints from the sheet graph: one per cycle,
// then per sheet in name order for too many referenced sheets and for too
// many cross-sheet references.
func Suggest(g *models.DependencyGraph, leveling models.Leveling, opts SuggestionOptions) []models.Suggestion {
	var out []models.Suggestion
	for _, c := range leveling.Cycles {
		out = append(out, models.Suggestion{
			Kind:        "circular_dependency",
			Description: "Circular dependency between sheets: " + CyclePath(c),
			Impact:      "high",
			Remedy:      "Restructure the calculations to break the circular references",
		})
	}

	sheets := make([]string, 0, len(g.SheetAdjacency))
	for s := range g.SheetAdjacency {
		sheets = append(sheets, s)
	}
	slices.Sort(sheets)

	for _, s := range sheets {
		adj := g.SheetAdjacency[s]
		if len(adj) > opts.MaxSheetDependencies {
			out = append(out, models.Suggestion{
				Kind:        "high_complexity",
				Description: fmt.Sprintf("Sheet %q depends on %d sheets", s, len(adj)),
				Impact:      "medium",
				Remedy:      "Consider consolidating or simplifying the calculations",
			})
		}
		total := 0
		for _, count := range adj {
			total += count
		}
		if total > opts.MaxExternalReferences {
			out = append(out, models.Suggestion{
				Kind:        "excess_references",
				Description: fmt.Sprintf("Sheet %q has %d cross-sheet references", s, total),
				Impact:      "medium",
				Remedy:      "Consider local helper tables for the referenced data",
			})
		}
	}
	return out
}

// Closure follows reverse dependencies from a column: every formula
// consuming it, every column those formulas compute, and so on. The origin
// column itself is never listed. Both results are sorted.
func Closure(g *models.DependencyGraph, column string) ([]string, []models.FormulaKey) {
	var columns []string
	var formulas []models.FormulaKey
	seenColumn := map[string]bool{column: true}
	seenFormula := make(map[models.FormulaKey]bool)

	queue := []string{column}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, key := range g.Reverse[name] {
			if seenFormula[key] {
				continue
			}
			seenFormula[key] = true
			formulas = append(formulas, key)

			result := g.ResultColumns[key]
			if result == "" || seenColumn[result] {
				continue
			}
			seenColumn[result] = true
			columns = append(columns, result)
			queue = append(queue, result)
		}
	}
	slices.Sort(columns)
	slices.Sort(formulas)
	return columns, formulas
}
