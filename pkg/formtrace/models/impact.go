package models

// ValidationOutcome is the pass/fail result of comparing one cell.
type ValidationOutcome struct {
	// Row is the aligned row index.
	Row int `json:"row"`
	// Column is the semantic column name compared.
	Column string `json:"column"`
	// Passed is false when the two datasets disagree.
	Passed bool `json:"passed"`
}

// CellKey identifies a divergent cell.
type CellKey struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// Severity grades how far a divergence cascades.
type Severity string

const (
	// SeverityModerate is a cascade score within the moderate threshold.
	SeverityModerate Severity = "moderate"
	// SeverityHigh is a cascade score above moderate, within the high threshold.
	SeverityHigh Severity = "high"
	// SeverityCritical is a cascade score above the high threshold.
	SeverityCritical Severity = "critical"
)

// ImpactRecord lists everything put at risk by divergences in one column.
type ImpactRecord struct {
	// OriginColumn is the column where divergences were observed.
	OriginColumn string `json:"origin_column"`
	// DivergentCells are the failed cells of the origin column.
	DivergentCells []CellKey `json:"divergent_cells"`
	// AffectedColumns are result columns reachable through reverse dependencies.
	AffectedColumns []string `json:"affected_columns"`
	// AffectedFormulas are formulas reachable through reverse dependencies.
	AffectedFormulas []FormulaKey `json:"affected_formulas"`
	// Severity grades Score against the configured thresholds.
	Severity Severity `json:"severity"`
}

// Score is the number of affected columns plus affected formulas.
func (r ImpactRecord) Score() int {
	return len(r.AffectedColumns) + len(r.AffectedFormulas)
}

// CauseNote explains a divergent formula cell by its candidate inputs.
type CauseNote struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	// Formulas are the formulas computing Column.
	Formulas []FormulaKey `json:"formulas"`
	// Causes are candidate dependency names in declaration order.
	Causes []string `json:"causes"`
	// Message is the human-readable possible-causes text.
	Message string `json:"message"`
}

// Alert flags a column whose divergences need attention.
type Alert struct {
	// Severity is "high" or "medium".
	Severity string `json:"severity"`
	// Kind is "high_error_rate", "medium_error_rate" or "cascade_impact".
	Kind string `json:"kind"`
	// Location is the column the alert is about.
	Location string `json:"location"`
	// Description states what was observed.
	Description string `json:"description"`
	// Recommendation suggests what to do about it.
	Recommendation string `json:"recommendation"`
	// Impact quantifies the records or columns concerned.
	Impact string `json:"impact"`
}

// EnrichedOutcome pairs an outcome with its possible-causes message.
type EnrichedOutcome struct {
	ValidationOutcome
	PossibleCauses string `json:"possible_causes,omitempty"`
}

// ImpactReport is the result of impact analysis.
type ImpactReport struct {
	Causes   []CauseNote       `json:"causes"`
	Records  []ImpactRecord    `json:"records"`
	Alerts   []Alert           `json:"alerts,omitempty"`
	Outcomes []EnrichedOutcome `json:"outcomes,omitempty"`
}
