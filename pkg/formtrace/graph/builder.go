// Package graph aggregates resolved formulas into dependency structures,
// orders sheets for processing and reports circular chains.
package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// Build aggregates resolved formulas into a dependency graph. sheets lists
// the workbook sheets in workbook order; sheets referenced by formulas but
// absent from the workbook are appended in name order. The sheet adjacency
// comes from the formulas' own external references.
//
// Besides the graph, Build reports formulas that consume their own result
// column and pairs of formulas consuming each other's result columns.
func Build(formulas []models.ResolvedFormula, sheets []string) (*models.DependencyGraph, []models.Diagnostic) {
	g := newGraph(formulas)
	for i := range formulas {
		f := &formulas[i]
		for _, target := range f.ExternalSheets {
			if target == f.SheetName {
				continue
			}
			count := f.ExternalRefCounts[target]
			if count == 0 {
				count = 1
			}
			AddSheetEdge(g, f.SheetName, target, count)
		}
	}
	addSheets(g, sheets, formulas)
	return g, circularFormulas(formulas)
}

// BuildWithEdges is Build with the sheet adjacency taken from edges, which
// usually come from every formula of the workbook rather than only the
// resolved ones.
func BuildWithEdges(formulas []models.ResolvedFormula, sheets []string, edges []models.SheetEdge) (*models.DependencyGraph, []models.Diagnostic) {
	g := newGraph(formulas)
	for _, e := range edges {
		if e.From == e.To || e.Count <= 0 {
			continue
		}
		AddSheetEdge(g, e.From, e.To, e.Count)
	}
	addSheets(g, sheets, formulas)
	return g, circularFormulas(formulas)
}

func newGraph(formulas []models.ResolvedFormula) *models.DependencyGraph {
	g := models.NewDependencyGraph()
	for i := range formulas {
		f := &formulas[i]
		g.FormulaDeps[f.Key] = slices.Clone(f.Dependencies)
		g.ResultColumns[f.Key] = f.ResultHeader
		for _, dep := range f.Dependencies {
			g.Reverse[dep] = append(g.Reverse[dep], f.Key)
		}
	}
	for dep, keys := range g.Reverse {
		slices.Sort(keys)
		g.Reverse[dep] = slices.Compact(keys)
	}
	return g
}

// addSheets lists workbook sheets first, then formula home sheets and
// edge endpoints missing from the workbook, in name order.
func addSheets(g *models.DependencyGraph, sheets []string, formulas []models.ResolvedFormula) {
	known := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		if !known[s] {
			known[s] = true
			g.Sheets = append(g.Sheets, s)
		}
	}

	var extra []string
	note := func(s string) {
		if !known[s] {
			known[s] = true
			extra = append(extra, s)
		}
	}
	for i := range formulas {
		note(formulas[i].SheetName)
	}
	for from, adj := range g.SheetAdjacency {
		note(from)
		for to := range adj {
			note(to)
		}
	}
	slices.Sort(extra)
	g.Sheets = append(g.Sheets, extra...)
}

// AddSheetEdge adds count references from one sheet to another.
func AddSheetEdge(g *models.DependencyGraph, from, to string, count int) {
	adj, ok := g.SheetAdjacency[from]
	if !ok {
		adj = make(map[string]int)
		g.SheetAdjacency[from] = adj
	}
	adj[to] += count
}

// SheetEdges flattens the sheet adjacency into edges sorted by endpoints.
func SheetEdges(g *models.DependencyGraph) []models.SheetEdge {
	var edges []models.SheetEdge
	for from, adj := range g.SheetAdjacency {
		for to, count := range adj {
			edges = append(edges, models.SheetEdge{From: from, To: to, Count: count})
		}
	}
	slices.SortFunc(edges, func(a, b models.SheetEdge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return edges
}

// circularFormulas detects formulas consuming their own result column and
// pairs of formulas consuming each other's result column. Detection is by
// semantic name only, so it is reported, never prevented.
func circularFormulas(formulas []models.ResolvedFormula) []models.Diagnostic {
	byResult := make(map[string][]int)
	for i := range formulas {
		byResult[formulas[i].ResultHeader] = append(byResult[formulas[i].ResultHeader], i)
	}

	var diags []models.Diagnostic
	for i := range formulas {
		f := &formulas[i]
		if f.DependsOn(f.ResultHeader) {
			diags = append(diags, models.Diagnostic{
				Kind:    models.CircularFormulaReference,
				Sheet:   f.SheetName,
				Formula: f.Key,
				Message: fmt.Sprintf("formula %s consumes its own result column %q", f.Key, f.ResultHeader),
			})
		}
		for _, dep := range f.Dependencies {
			for _, j := range byResult[dep] {
				other := &formulas[j]
				if other.Key <= f.Key || !other.DependsOn(f.ResultHeader) {
					continue
				}
				diags = append(diags, models.Diagnostic{
					Kind:    models.CircularFormulaReference,
					Sheet:   f.SheetName,
					Formula: f.Key,
					Message: fmt.Sprintf("formulas %s and %s consume each other's result columns", f.Key, other.Key),
				})
			}
		}
	}
	return diags
}
