package models

// FormulaKey identifies a formula as "{sheet}.{resultHeader}".
type FormulaKey string

// NewFormulaKey builds the key of the formula computing resultHeader on sheet.
func NewFormulaKey(sheet, resultHeader string) FormulaKey {
	return FormulaKey(sheet + "." + resultHeader)
}

// ResolvedFormula is a formula together with its translation, pattern and
// dependencies.
type ResolvedFormula struct {
	// Key is "{SheetName}.{ResultHeader}".
	Key FormulaKey `json:"key"`
	// SheetName is the sheet holding the formula.
	SheetName string `json:"sheet"`
	// ResultHeader is the output column the formula computes.
	ResultHeader string `json:"result_header"`
	// Cell is where the formula text was read from.
	Cell CellAddress `json:"cell"`
	// OriginalText is the formula as authored.
	OriginalText string `json:"original"`
	// TranslatedText has column tokens replaced by semantic names.
	TranslatedText string `json:"translated"`
	// GeneralizedPattern has row numbers replaced by a placeholder.
	GeneralizedPattern string `json:"pattern"`
	// Dependencies lists consumed semantic names in declaration order.
	Dependencies []string `json:"dependencies"`
	// Unmapped lists raw keys of references without a semantic name.
	Unmapped []string `json:"unmapped,omitempty"`
	// ExternalSheets lists the other sheets referenced, sorted.
	ExternalSheets []string `json:"external_sheets,omitempty"`
	// ExternalRefCounts counts references per external sheet.
	ExternalRefCounts map[string]int `json:"external_ref_counts,omitempty"`
	// TranslationMap maps raw reference keys to semantic names.
	TranslationMap map[string]string `json:"translation_map"`
	// Functions are the spreadsheet functions called, in call order.
	Functions []string `json:"functions,omitempty"`
	// References are the parsed references in formula order.
	References []Reference `json:"references,omitempty"`
	// Explicit is set when the translation came from a mapping configuration.
	Explicit bool `json:"explicit,omitempty"`
}

// DependsOn reports whether name is among the formula's dependencies.
func (f *ResolvedFormula) DependsOn(name string) bool {
	for _, d := range f.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}
