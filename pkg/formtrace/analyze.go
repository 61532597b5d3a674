package formtrace

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/graph"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/impact"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/resolve"
	"golang.org/x/sync/errgroup"
)

// LoadWorkbook reads a workbook file, through opts.Cache when set.
func LoadWorkbook(path string, opts Options) (*models.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	var wb *models.Workbook
	var err error
	if opts.Cache != nil {
		wb, err = opts.Cache.Load(path, opts.loadOptions())
	} else {
		wb, err = parser.LoadWorkbook(path, opts.loadOptions())
	}
	if err != nil {
		return nil, NewMalformedWorkbookError(path, err)
	}
	return wb, nil
}

// AnalyzeFile loads a workbook and analyses it.
func AnalyzeFile(ctx context.Context, path string, opts Options) (*models.Analysis, error) {
	wb, err := LoadWorkbook(path, opts)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, wb, opts)
}

// Analyze discovers and resolves the formulas of wb, builds the dependency
// graph and levels its sheets. Sheet edges count the references of every
// formula in the workbook, totals rows included. Only cancellation of ctx is an error; every
// other condition ends up in the analysis diagnostics.
func Analyze(ctx context.Context, wb *models.Workbook, opts Options) (*models.Analysis, error) {
	log := opts.logger().With("book", wb.BookName)

	reqs, diags := Discover(wb, opts)
	log.Debug("formulas discovered", "sheets", len(wb.Order), "formulas", len(reqs))

	resolver := resolve.NewWorkbookResolver(wb)
	results, err := resolveAll(ctx, resolver, reqs, opts)
	if err != nil {
		return nil, err
	}

	formulas, resolveDiags := keepLatest(results, opts.ShouldReportDuplicates())
	diags = append(diags, resolveDiags...)

	edges, refDiags := crossSheetReferences(wb, resolver, formulas, opts)
	diags = append(diags, refDiags...)
	log.Debug("cross-sheet references scanned", "edges", len(edges), "empty_cells", len(refDiags))

	g, graphDiags := graph.BuildWithEdges(formulas, wb.Order, edges)
	diags = append(diags, graphDiags...)

	leveling, levelDiags := graph.Level(g)
	diags = append(diags, levelDiags...)
	for _, c := range leveling.Cycles {
		log.Warn("circular sheet dependency", "path", graph.CyclePath(c))
	}

	analysis := &models.Analysis{
		BookName:    wb.BookName,
		Formulas:    formulas,
		Graph:       g,
		SheetEdges:  graph.SheetEdges(g),
		Leveling:    leveling,
		Statistics:  graph.Summarize(g, leveling),
		Suggestions: graph.Suggest(g, leveling, opts.Suggestions),
		Diagnostics: diags,
	}
	log.Info("analysis complete",
		"formulas", len(formulas),
		"levels", len(leveling.Levels),
		"cycles", len(leveling.Cycles),
		"diagnostics", len(diags))
	return analysis, nil
}

// AnalyzeImpact relates validation outcomes to an analysis' dependency graph.
func AnalyzeImpact(analysis *models.Analysis, outcomes []models.ValidationOutcome, opts Options) models.ImpactReport {
	report := impact.NewAnalyzer(analysis.Graph, opts.Impact).Analyze(outcomes)
	opts.logger().Info("impact analysis complete",
		"book", analysis.BookName,
		"outcomes", len(outcomes),
		"records", len(report.Records),
		"alerts", len(report.Alerts))
	return report
}

// resolveAll resolves requests on a bounded worker pool. Results keep the
// order of reqs.
func resolveAll(ctx context.Context, r *resolve.Resolver, reqs []resolve.Request, opts Options) ([]resolve.Result, error) {
	results := make([]resolve.Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i := range reqs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.ResolveFormula(reqs[i], opts.Translate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// keepLatest applies last-write-wins to formulas sharing a key and returns
// the survivors ordered by key, with their diagnostics. Overwrites are
// reported when report is set.
func keepLatest(results []resolve.Result, report bool) ([]models.ResolvedFormula, []models.Diagnostic) {
	winner := make(map[models.FormulaKey]int, len(results))
	var diags []models.Diagnostic
	for i, res := range results {
		key := res.Formula.Key
		if prev, ok := winner[key]; ok && report {
			diags = append(diags, models.Diagnostic{
				Kind:    models.DuplicateFormulaKey,
				Sheet:   res.Formula.SheetName,
				Formula: key,
				Message: fmt.Sprintf("formula at %s replaces the one at %s",
					res.Formula.Cell, results[prev].Formula.Cell),
			})
		}
		winner[key] = i
	}

	kept := make([]int, 0, len(winner))
	for _, i := range winner {
		kept = append(kept, i)
	}
	slices.SortFunc(kept, func(a, b int) int {
		return cmp.Compare(results[a].Formula.Key, results[b].Formula.Key)
	})

	formulas := make([]models.ResolvedFormula, 0, len(kept))
	for _, i := range kept {
		formulas = append(formulas, results[i].Formula)
		diags = append(diags, results[i].Diagnostics...)
	}
	return formulas, diags
}
