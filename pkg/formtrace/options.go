// Package formtrace resolves spreadsheet formula references into semantic
// column names, builds the dependency graph of a workbook and explains
// validation divergences through it.
package formtrace

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/graph"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/impact"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/resolve"
)

// DuplicatePolicy decides what happens when two discovered formulas share a key.
type DuplicatePolicy string

const (
	// DuplicatesReport keeps the later formula and raises a diagnostic.
	DuplicatesReport DuplicatePolicy = "report"
	// DuplicatesIgnore keeps the later formula silently.
	DuplicatesIgnore DuplicatePolicy = "ignore"
)

// Mapping is an explicit translation for one formula. When present, header
// lookup is bypassed for that formula.
type Mapping struct {
	// Sheet and ResultHeader identify the formula.
	Sheet        string `json:"sheet"`
	ResultHeader string `json:"result_header"`
	// Formula overrides the formula text found in the workbook. Empty means
	// the sample row of the ResultHeader column.
	Formula string `json:"formula,omitempty"`
	// Translation maps raw reference keys ("A", "$A$2", "Data!B", "A:B")
	// to semantic names.
	Translation map[string]string `json:"translation"`
}

// Options configures an analysis.
type Options struct {
	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
	// SampleRow is the row whose formula represents each column.
	SampleRow int
	// MaxRows caps the rows read from each sheet; 0 reads every row.
	MaxRows int
	// MaxColumns caps the columns read and scanned per sheet; 0 means no cap.
	MaxColumns int
	// ColumnsPerSheet restricts discovery to the listed column letters.
	ColumnsPerSheet map[string][]string
	// Mappings are explicit per-formula translations.
	Mappings []Mapping
	// Translate controls how translated formulas are written.
	Translate resolve.TranslateOptions
	// Duplicates is the duplicate formula key policy.
	Duplicates DuplicatePolicy
	// Workers bounds parallel formula resolution; 0 uses GOMAXPROCS.
	Workers int
	// Suggestions holds the optimisation hint thresholds.
	Suggestions graph.SuggestionOptions
	// Impact configures impact analysis.
	Impact impact.Options
	// Cache, when set, is consulted by AnalyzeFile before loading.
	Cache *parser.WorkbookCache
}

// DefaultOptions returns default analysis options.
func DefaultOptions() Options {
	return Options{
		SampleRow:   2,
		MaxColumns:  300,
		Duplicates:  DuplicatesReport,
		Suggestions: graph.DefaultSuggestionOptions(),
		Impact:      impact.DefaultOptions(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) sampleRow() int {
	if o.SampleRow > 0 {
		return o.SampleRow
	}
	return 2
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ShouldReportDuplicates returns whether duplicate formula keys raise diagnostics.
func (o Options) ShouldReportDuplicates() bool {
	return o.Duplicates != DuplicatesIgnore
}

func (o Options) loadOptions() parser.LoadOptions {
	return parser.LoadOptions{MaxRows: o.MaxRows, MaxColumns: o.MaxColumns}
}
