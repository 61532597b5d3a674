package models

import "fmt"

// DiagnosticKind names a non-fatal condition found during analysis.
type DiagnosticKind string

const (
	// ParseWarning marks formula text the reference scanner skipped.
	ParseWarning DiagnosticKind = "parse_warning"
	// MissingSheetReference marks a reference to a sheet not in the workbook.
	MissingSheetReference DiagnosticKind = "missing_sheet_reference"
	// MissingHeaderReference marks a reference to a column without a usable header.
	MissingHeaderReference DiagnosticKind = "missing_header_reference"
	// MissingCellReference marks a single-cell reference to an empty cell
	// of an existing sheet.
	MissingCellReference DiagnosticKind = "missing_cell_reference"
	// CircularDependency marks a chain of sheets referencing each other.
	CircularDependency DiagnosticKind = "circular_dependency"
	// CircularFormulaReference marks formulas consuming their own or each
	// other's result columns.
	CircularFormulaReference DiagnosticKind = "circular_formula_reference"
	// DuplicateFormulaKey marks a formula replacing another with the same key.
	DuplicateFormulaKey DiagnosticKind = "duplicate_formula_key"
	// InconsistentFormulaPattern marks a row whose formula departs from
	// the sample row's pattern.
	InconsistentFormulaPattern DiagnosticKind = "inconsistent_formula_pattern"
)

// Diagnostic is a recoverable condition reported alongside normal output.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`
	// Sheet is the sheet the condition was found on.
	Sheet string `json:"sheet,omitempty"`
	// Formula is the key of the formula involved, if any.
	Formula FormulaKey `json:"formula,omitempty"`
	// Reference is the raw reference text involved, if any.
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message"`
}

func (d Diagnostic) String() string {
	loc := d.Sheet
	if d.Formula != "" {
		loc = string(d.Formula)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, loc, d.Message)
}

// CountDiagnostics tallies diagnostics per kind.
func CountDiagnostics(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
