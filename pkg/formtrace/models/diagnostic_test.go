package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: MissingHeaderReference, Sheet: "Data", Formula: "Data.TOTAL", Message: "no header for column Q"}
	assert.Equal(t, "missing_header_reference [Data.TOTAL]: no header for column Q", d.String())

	d = Diagnostic{Kind: CircularDependency, Sheet: "A", Message: "circular dependency: A -> A"}
	assert.Equal(t, "circular_dependency [A]: circular dependency: A -> A", d.String())

	d = Diagnostic{Kind: ParseWarning, Message: "bad token"}
	assert.Equal(t, "parse_warning: bad token", d.String())
}

func TestCountDiagnostics(t *testing.T) {
	counts := CountDiagnostics([]Diagnostic{
		{Kind: ParseWarning},
		{Kind: ParseWarning},
		{Kind: DuplicateFormulaKey},
	})
	assert.Equal(t, map[DiagnosticKind]int{ParseWarning: 2, DuplicateFormulaKey: 1}, counts)
}
