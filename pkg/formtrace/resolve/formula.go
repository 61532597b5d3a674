package resolve

import (
	"fmt"
	"slices"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
)

// Request describes one formula to resolve.
type Request struct {
	// Sheet is the sheet holding the formula.
	Sheet string
	// ResultHeader is the output column the formula computes.
	ResultHeader string
	// Cell is where the formula was read from.
	Cell models.CellAddress
	// Formula is the formula text, leading "=" optional.
	Formula string
	// Mapping, when set, replaces header lookup for this formula.
	Mapping ExplicitMap
}

// Result is a resolved formula and the diagnostics raised on the way.
type Result struct {
	Formula     models.ResolvedFormula
	Diagnostics []models.Diagnostic
}

// ResolveFormula parses, resolves, translates and generalizes one formula.
// It never fails: malformed tokens and unknown names become diagnostics.
func (r *Resolver) ResolveFormula(req Request, opts TranslateOptions) Result {
	key := models.NewFormulaKey(req.Sheet, req.ResultHeader)
	set := parser.ParseReferences(req.Formula)

	var diags []models.Diagnostic
	for _, w := range set.Warnings {
		diags = append(diags, models.Diagnostic{
			Kind:      models.ParseWarning,
			Sheet:     req.Sheet,
			Formula:   key,
			Reference: w.Token,
			Message:   fmt.Sprintf("%s at offset %d", w.Message, w.Offset),
		})
	}

	names := make([]Resolution, len(set.References))
	for i, ref := range set.References {
		if req.Mapping != nil {
			names[i] = r.ResolveExplicit(ref, req.Sheet, req.Mapping)
		} else {
			names[i] = r.Resolve(ref, req.Sheet)
		}
		if d := names[i].Diagnostic; d != nil {
			d.Formula = key
			diags = append(diags, *d)
		}
	}

	rf := models.ResolvedFormula{
		Key:                key,
		SheetName:          req.Sheet,
		ResultHeader:       req.ResultHeader,
		Cell:               req.Cell,
		OriginalText:       req.Formula,
		TranslatedText:     Translate(req.Formula, set.References, names, opts),
		GeneralizedPattern: Generalize(req.Formula),
		TranslationMap:     make(map[string]string),
		Functions:          parser.FunctionNames(req.Formula),
		References:         set.References,
		Explicit:           req.Mapping != nil,
	}

	seenDep := make(map[string]bool)
	seenUnmapped := make(map[string]bool)
	for i, ref := range set.References {
		res := names[i]
		if !seenDep[res.Name] {
			seenDep[res.Name] = true
			rf.Dependencies = append(rf.Dependencies, res.Name)
		}
		if res.Mapped {
			rf.TranslationMap[ref.Key()] = res.Name
			if ref.MultiColumn() {
				rf.TranslationMap[ref.EndKey()] = res.EndName
			}
		} else if !seenUnmapped[ref.SpanKey()] {
			seenUnmapped[ref.SpanKey()] = true
			rf.Unmapped = append(rf.Unmapped, ref.SpanKey())
		}
		if res.External {
			if rf.ExternalRefCounts == nil {
				rf.ExternalRefCounts = make(map[string]int)
			}
			if rf.ExternalRefCounts[res.Sheet] == 0 {
				rf.ExternalSheets = append(rf.ExternalSheets, res.Sheet)
			}
			rf.ExternalRefCounts[res.Sheet]++
		}
	}
	slices.Sort(rf.ExternalSheets)

	return Result{Formula: rf, Diagnostics: diags}
}
