package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

func TestParseReferencesLocalCells(t *testing.T) {
	set := ParseReferences("=A2+B2")

	require.Len(t, set.References, 2)
	assert.Empty(t, set.Warnings)
	for _, ref := range set.References {
		assert.Equal(t, models.LocalCell, ref.Kind)
		assert.Empty(t, ref.Sheet)
		assert.Equal(t, 2, ref.RowStart)
	}
	assert.Equal(t, "A2", set.References[0].RawText)
	assert.Equal(t, models.Span{Start: 1, End: 3}, set.References[0].Span)
	assert.Equal(t, "B2", set.References[1].RawText)
	assert.Equal(t, models.Span{Start: 4, End: 6}, set.References[1].Span)
}

func TestParseReferencesLookupWithColumnSpan(t *testing.T) {
	set := ParseReferences("=VLOOKUP(A2, Folha!B:C, 2)")

	require.Len(t, set.References, 2)
	assert.Equal(t, models.LocalCell, set.References[0].Kind)
	assert.Equal(t, "A", set.References[0].ColumnStart)

	span := set.References[1]
	assert.Equal(t, models.SheetColumnSpan, span.Kind)
	assert.Equal(t, "Folha", span.Sheet)
	assert.Equal(t, "B", span.ColumnStart)
	assert.Equal(t, "C", span.ColumnEnd)
	assert.Zero(t, span.RowStart)
	assert.Zero(t, span.RowEnd)
	assert.Equal(t, "Folha!B:C", span.RawText)
}

func TestParseReferencesKinds(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		kind    models.ReferenceKind
		sheet   string
		start   string
		end     string
		raw     string
	}{
		{"local cell", "=C7*2", models.LocalCell, "", "C", "C", "C7"},
		{"local range", "=SUM(A2:B10)", models.LocalRange, "", "A", "B", "A2:B10"},
		{"local column span", "=SUM(A:A)", models.LocalColumnSpan, "", "A", "A", "A:A"},
		{"sheet cell", "=Data!A2", models.SheetCell, "Data", "A", "A", "Data!A2"},
		{"sheet range", "=SUM(Data!A2:B10)", models.SheetRange, "Data", "A", "B", "Data!A2:B10"},
		{"sheet column span", "=SUM(Data!A:C)", models.SheetColumnSpan, "Data", "A", "C", "Data!A:C"},
		{"quoted sheet", "='Sheet Name'!A1*2", models.SheetCell, "Sheet Name", "A", "A", "'Sheet Name'!A1"},
		{"escaped quote", "='It''s'!B3", models.SheetCell, "It's", "B", "B", "'It''s'!B3"},
		{"digit in sheet name", "=Sheet1!$D$4", models.SheetCell, "Sheet1", "D", "D", "Sheet1!$D$4"},
		{"absolute markers", "=$AB$12", models.LocalCell, "", "AB", "AB", "$AB$12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ParseReferences(tt.formula)
			require.Len(t, set.References, 1)
			ref := set.References[0]
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.sheet, ref.Sheet)
			assert.Equal(t, tt.start, ref.ColumnStart)
			assert.Equal(t, tt.end, ref.ColumnEnd)
			assert.Equal(t, tt.raw, ref.RawText)
			assert.Equal(t, tt.raw, tt.formula[ref.Span.Start:ref.Span.End])
			assert.Equal(t, tt.kind.SheetQualified(), ref.Sheet != "")
		})
	}
}

func TestParseReferencesAbsoluteVariants(t *testing.T) {
	set := ParseReferences("=A1+$A1+A$1+$A$1")

	require.Len(t, set.References, 4)
	for _, ref := range set.References {
		assert.Equal(t, "A", ref.ColumnStart)
		assert.Equal(t, 1, ref.RowStart)
		assert.Equal(t, "A", ref.Key())
	}
	assert.Equal(t, "$A$1", set.References[3].RawText)
}

func TestParseReferencesSkipsFunctionNames(t *testing.T) {
	tests := []struct {
		formula string
		raws    []string
	}{
		{"=IF(AND(A2>0,B2<5),1,0)", []string{"A2", "B2"}},
		{"=LOG10(A2)", []string{"A2"}},
		{"=ATAN2(B2, C2)", []string{"B2", "C2"}},
		{"=ROUND (D2, 2)", []string{"D2"}},
		{"=IF(TRUE, E2, FALSE)", []string{"E2"}},
		{"=F1(A1)+F1", []string{"A1", "F1"}},
		{"=LOG10*2", []string{"LOG10"}},
	}

	for _, tt := range tests {
		set := ParseReferences(tt.formula)
		var raws []string
		for _, ref := range set.References {
			raws = append(raws, ref.RawText)
		}
		assert.Equal(t, tt.raws, raws, tt.formula)
	}
}

func TestParseReferencesIgnoresLiterals(t *testing.T) {
	set := ParseReferences(`=IF(A2="B2",C2&"x""D4",#REF!)+12`)

	require.Len(t, set.References, 2)
	assert.Equal(t, "A2", set.References[0].RawText)
	assert.Equal(t, "C2", set.References[1].RawText)
	assert.Empty(t, set.Warnings)
}

func TestParseReferencesSkipsNamesAndLowercase(t *testing.T) {
	set := ParseReferences("=TaxRate*total+A2")

	require.Len(t, set.References, 1)
	assert.Equal(t, "A2", set.References[0].RawText)
}

func TestParseReferencesWarnings(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		valid   []string
	}{
		{"unterminated quote", "='Broken+B2", []string{"B2"}},
		{"mixed range", "=SUM(A1:B)+C2", []string{"C2"}},
		{"column out of range", "=XFE1+A2", []string{"A2"}},
		{"row out of range", "=A0+B2", []string{"B2"}},
		{"empty body after sheet", "=Data!+D2", []string{"D2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ParseReferences(tt.formula)
			assert.NotEmpty(t, set.Warnings)
			var raws []string
			for _, ref := range set.References {
				raws = append(raws, ref.RawText)
			}
			assert.Equal(t, tt.valid, raws)
		})
	}
}

func TestParseReferencesSpansDoNotOverlap(t *testing.T) {
	formula := "=SUMIFS('Base Data'!C:C,'Base Data'!A:A,A2,Rates!B$2:B$9,\">0\")+$D2"
	set := ParseReferences(formula)

	require.Len(t, set.References, 5)
	prev := 0
	for _, ref := range set.References {
		assert.GreaterOrEqual(t, ref.Span.Start, prev)
		assert.Equal(t, ref.RawText, formula[ref.Span.Start:ref.Span.End])
		prev = ref.Span.End
	}
	assert.Equal(t, "Base Data", set.References[0].Sheet)
	assert.True(t, set.References[0].Quoted)
	assert.Equal(t, models.SheetRange, set.References[3].Kind)
}

func TestParseReferencesWithoutLeadingEquals(t *testing.T) {
	set := ParseReferences("A2*B2")

	require.Len(t, set.References, 2)
	assert.Equal(t, models.Span{Start: 0, End: 2}, set.References[0].Span)
}
