package graph

import (
	"slices"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Level assigns a processing level to every sheet of g. A sheet's level is
// one more than the highest level among the sheets it references; sheets
// referencing nothing sit at level 0. Sheets caught in or behind a cycle
// all share the level after the last assignable one, and every cycle found
// is returned both in the leveling and as a CircularDependency diagnostic.
//
// Runs in O(sheets + edges) whatever the shape of the graph.
func Level(g *models.DependencyGraph) (models.Leveling, []models.Diagnostic) {
	idx := newSheetIndex(g)
	n := len(idx.names)

	// dependents[v] lists sheets referencing v; pending[v] counts the
	// distinct sheets v references that are not placed yet.
	dependents := make([][]int, n)
	pending := make([]int, n)
	for from, adj := range g.SheetAdjacency {
		u := idx.ids[from]
		for to := range adj {
			v := idx.ids[to]
			dependents[v] = append(dependents[v], u)
			pending[u]++
		}
	}

	level := make([]int, n)
	placed := make([]bool, n)
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if pending[v] == 0 {
			queue = append(queue, v)
		}
	}
	maxLevel := -1
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		placed[u] = true
		maxLevel = max(maxLevel, level[u])
		for _, w := range dependents[u] {
			level[w] = max(level[w], level[u]+1)
			pending[w]--
			if pending[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	var remaining []int
	for v := 0; v < n; v++ {
		if !placed[v] {
			level[v] = maxLevel + 1
			remaining = append(remaining, v)
		}
	}

	leveling := models.Leveling{LevelOf: make(map[string]int, n)}
	depth := maxLevel + 1
	if len(remaining) > 0 {
		depth++
	}
	leveling.Levels = make([][]string, depth)
	for v, name := range idx.names {
		leveling.LevelOf[name] = level[v]
		leveling.Levels[level[v]] = append(leveling.Levels[level[v]], name)
	}
	for _, names := range leveling.Levels {
		slices.Sort(names)
	}

	var diags []models.Diagnostic
	if len(remaining) > 0 {
		leveling.Cycles = findCycles(g, idx, remaining)
		for _, c := range leveling.Cycles {
			diags = append(diags, models.Diagnostic{
				Kind:    models.CircularDependency,
				Sheet:   c.Sheets[0],
				Message: "circular dependency: " + CyclePath(c),
			})
		}
	}
	return leveling, diags
}

// CyclePath renders a cycle as "A -> B -> C -> A".
func CyclePath(c models.Cycle) string {
	if len(c.Sheets) == 0 {
		return ""
	}
	return strings.Join(append(slices.Clone(c.Sheets), c.Sheets[0]), " -> ")
}

type sheetIndex struct {
	names []string
	ids   map[string]int
}

// newSheetIndex numbers the sheet nodes of g in name order, including
// adjacency endpoints missing from g.Sheets.
func newSheetIndex(g *models.DependencyGraph) sheetIndex {
	set := make(map[string]bool, len(g.Sheets))
	for _, s := range g.Sheets {
		set[s] = true
	}
	for from, adj := range g.SheetAdjacency {
		set[from] = true
		for to := range adj {
			set[to] = true
		}
	}
	idx := sheetIndex{ids: make(map[string]int, len(set))}
	for s := range set {
		idx.names = append(idx.names, s)
	}
	slices.Sort(idx.names)
	for i, s := range idx.names {
		idx.ids[s] = i
	}
	return idx
}

// findCycles locates the strongly connected components among the
// unplaced sheets and extracts one concrete cycle from each component
// that has one. Self references are cycles of length 1.
func findCycles(g *models.DependencyGraph, idx sheetIndex, remaining []int) []models.Cycle {
	inRemaining := make(map[int]bool, len(remaining))
	dg := simple.NewDirectedGraph()
	for _, v := range remaining {
		inRemaining[v] = true
		dg.AddNode(simple.Node(v))
	}

	selfLoop := make(map[int]bool)
	for _, v := range remaining {
		for to := range g.SheetAdjacency[idx.names[v]] {
			w := idx.ids[to]
			switch {
			case w == v:
				selfLoop[v] = true
			case inRemaining[w]:
				// simple graphs panic on self edges, hence the case above
				dg.SetEdge(simple.Edge{F: simple.Node(v), T: simple.Node(w)})
			}
		}
	}

	var cycles []models.Cycle
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) == 1 {
			v := int(scc[0].ID())
			if selfLoop[v] {
				cycles = append(cycles, models.Cycle{Sheets: []string{idx.names[v]}})
			}
			continue
		}
		members := make(map[int]bool, len(scc))
		start := -1
		for _, node := range scc {
			v := int(node.ID())
			members[v] = true
			if start < 0 || v < start {
				start = v
			}
		}
		if path := cycleFrom(g, idx, start, members); len(path) > 0 {
			cycles = append(cycles, models.Cycle{Sheets: path})
		}
	}

	slices.SortFunc(cycles, func(a, b models.Cycle) int {
		return strings.Compare(a.Sheets[0], b.Sheets[0])
	})
	return cycles
}

// cycleFrom walks a strongly connected component depth-first from start,
// with an explicit stack, and returns the first closed path it meets.
// Neighbors are visited in name order so the result is deterministic.
func cycleFrom(g *models.DependencyGraph, idx sheetIndex, start int, members map[int]bool) []string {
	type frame struct {
		node  int
		next  []int
		child int
	}

	neighbors := func(v int) []int {
		var out []int
		for to := range g.SheetAdjacency[idx.names[v]] {
			w := idx.ids[to]
			if w != v && members[w] {
				out = append(out, w)
			}
		}
		slices.Sort(out)
		return out
	}

	onStack := map[int]int{start: 0}
	visited := map[int]bool{start: true}
	stack := []frame{{node: start, next: neighbors(start)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.child >= len(top.next) {
			delete(onStack, top.node)
			stack = stack[:len(stack)-1]
			continue
		}
		w := top.next[top.child]
		top.child++

		if pos, ok := onStack[w]; ok {
			path := make([]string, 0, len(stack)-pos)
			for _, f := range stack[pos:] {
				path = append(path, idx.names[f.node])
			}
			return path
		}
		if visited[w] {
			continue
		}
		visited[w] = true
		onStack[w] = len(stack)
		stack = append(stack, frame{node: w, next: neighbors(w)})
	}
	return nil
}
