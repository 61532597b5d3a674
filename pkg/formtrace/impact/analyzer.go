// Package impact explains validation divergences through the dependency
// graph: candidate causes for divergent formula cells, and the columns
// and formulas put at risk by each divergent column.
package impact

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/graph"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// Thresholds grade the cascade score of an impact record. Scores up to
// ModerateMax are moderate, up to HighMax high, anything above critical.
type Thresholds struct {
	ModerateMax int `json:"moderate_max"`
	HighMax     int `json:"high_max"`
}

// DefaultThresholds returns the default severity policy.
func DefaultThresholds() Thresholds {
	return Thresholds{ModerateMax: 2, HighMax: 5}
}

// Classify maps a cascade score to a severity.
func (t Thresholds) Classify(score int) models.Severity {
	switch {
	case score <= t.ModerateMax:
		return models.SeverityModerate
	case score <= t.HighMax:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}

// Options configures an Analyzer.
type Options struct {
	Severity Thresholds   `json:"severity"`
	Alerts   AlertOptions `json:"alerts"`
	// MaxCauses is how many candidate names a causes message lists.
	MaxCauses int `json:"max_causes"`
}

// DefaultOptions returns the default analyzer options.
func DefaultOptions() Options {
	return Options{
		Severity:  DefaultThresholds(),
		Alerts:    DefaultAlertOptions(),
		MaxCauses: 3,
	}
}

// Analyzer relates validation outcomes to a dependency graph.
type Analyzer struct {
	graph    *models.DependencyGraph
	opts     Options
	byResult map[string][]models.FormulaKey
}

// NewAnalyzer returns an analyzer over g.
func NewAnalyzer(g *models.DependencyGraph, opts Options) *Analyzer {
	if opts.MaxCauses <= 0 {
		opts.MaxCauses = 3
	}
	a := &Analyzer{
		graph:    g,
		opts:     opts,
		byResult: make(map[string][]models.FormulaKey),
	}
	for key, column := range g.ResultColumns {
		a.byResult[column] = append(a.byResult[column], key)
	}
	for column := range a.byResult {
		slices.Sort(a.byResult[column])
	}
	return a
}

// PossibleCauses returns the formulas computing column and their
// dependencies, in declaration order, merged across formulas in key order.
// The names are candidates only: whether they diverged is not checked.
func (a *Analyzer) PossibleCauses(column string) ([]models.FormulaKey, []string) {
	keys := a.byResult[column]
	var causes []string
	seen := make(map[string]bool)
	for _, key := range keys {
		for _, dep := range a.graph.FormulaDeps[key] {
			if !seen[dep] {
				seen[dep] = true
				causes = append(causes, dep)
			}
		}
	}
	return keys, causes
}

// CausesMessage renders candidate causes, listing at most limit names and
// counting the rest.
func CausesMessage(causes []string, limit int) string {
	if len(causes) == 0 {
		return ""
	}
	shown := causes
	if len(shown) > limit {
		shown = shown[:limit]
	}
	msg := "Possible causes: divergences in " + strings.Join(shown, ", ")
	if extra := len(causes) - len(shown); extra > 0 {
		msg += fmt.Sprintf(" and %d other columns", extra)
	}
	return msg
}

// Analyze builds the impact report for a set of validation outcomes.
func (a *Analyzer) Analyze(outcomes []models.ValidationOutcome) models.ImpactReport {
	var report models.ImpactReport

	failed := make(map[string][]models.CellKey)
	var origins []string
	messages := make(map[models.CellKey]string)

	for _, o := range outcomes {
		if o.Passed {
			continue
		}
		cell := models.CellKey{Row: o.Row, Column: o.Column}
		if _, ok := failed[o.Column]; !ok {
			origins = append(origins, o.Column)
		}
		failed[o.Column] = append(failed[o.Column], cell)

		keys, causes := a.PossibleCauses(o.Column)
		if len(keys) == 0 {
			continue
		}
		msg := CausesMessage(causes, a.opts.MaxCauses)
		messages[cell] = msg
		report.Causes = append(report.Causes, models.CauseNote{
			Row:      o.Row,
			Column:   o.Column,
			Formulas: keys,
			Causes:   causes,
			Message:  msg,
		})
	}

	slices.Sort(origins)
	for _, origin := range origins {
		report.Records = append(report.Records, a.Record(origin, failed[origin]))
	}

	report.Alerts = Alerts(outcomes, report.Records, a.opts.Alerts)

	report.Outcomes = make([]models.EnrichedOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		enriched := models.EnrichedOutcome{ValidationOutcome: o}
		if !o.Passed {
			enriched.PossibleCauses = messages[models.CellKey{Row: o.Row, Column: o.Column}]
		}
		report.Outcomes = append(report.Outcomes, enriched)
	}
	return report
}

// Record computes the cascade of one divergent column: everything
// reachable through one or more reverse-dependency hops.
func (a *Analyzer) Record(origin string, cells []models.CellKey) models.ImpactRecord {
	columns, formulas := graph.Closure(a.graph, origin)
	rec := models.ImpactRecord{
		OriginColumn:     origin,
		DivergentCells:   cells,
		AffectedColumns:  columns,
		AffectedFormulas: formulas,
	}
	rec.Severity = a.opts.Severity.Classify(rec.Score())
	return rec
}
