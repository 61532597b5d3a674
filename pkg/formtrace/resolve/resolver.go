// Package resolve turns parsed references into semantic names and rewrites
// formulas in terms of those names.
package resolve

import (
	"fmt"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// Resolution is the name chosen for one reference.
type Resolution struct {
	// Name is the semantic name of the first column, or the raw key
	// ("A", "Data!A") when no name is known.
	Name string `json:"name"`
	// EndName is the name of the last column; equal to Name for
	// single-column references.
	EndName string `json:"end_name"`
	// Mapped is set when every column of the reference has a name.
	Mapped bool `json:"mapped"`
	// Sheet is the sheet the reference points into, canonical spelling.
	Sheet string `json:"sheet"`
	// External is set when Sheet differs from the formula's home sheet.
	External bool `json:"external,omitempty"`
	// Diagnostic reports why the reference fell back to its raw key.
	Diagnostic *models.Diagnostic `json:"diagnostic,omitempty"`
}

// Resolver maps references to semantic names using the header maps of
// every sheet in a workbook. It is safe for concurrent use once built.
type Resolver struct {
	headers map[string]models.HeaderMap
	folded  map[string]string
}

// NewResolver returns a resolver over the given header maps.
func NewResolver(headers map[string]models.HeaderMap) *Resolver {
	r := &Resolver{
		headers: headers,
		folded:  make(map[string]string, len(headers)),
	}
	for name := range headers {
		r.folded[strings.ToLower(name)] = name
	}
	return r
}

// NewWorkbookResolver builds the header maps of wb and returns a resolver.
func NewWorkbookResolver(wb *models.Workbook) *Resolver {
	return NewResolver(wb.HeaderMaps())
}

// Sheet returns the canonical spelling of a sheet name. Sheet names
// compare case-insensitively, as in spreadsheet applications.
func (r *Resolver) Sheet(name string) (string, bool) {
	if _, ok := r.headers[name]; ok {
		return name, true
	}
	canonical, ok := r.folded[strings.ToLower(name)]
	return canonical, ok
}

// Resolve picks the semantic name of ref for a formula living on home.
// Local references use the home sheet's headers, sheet-qualified ones the
// target sheet's. Unknown sheets and unnamed columns fall back to the raw
// key and carry a diagnostic.
func (r *Resolver) Resolve(ref models.Reference, home string) Resolution {
	target := home
	if ref.Kind.SheetQualified() {
		target = ref.Sheet
	}

	res := Resolution{
		Name:    ref.Key(),
		EndName: ref.EndKey(),
		Sheet:   target,
	}

	canonical, ok := r.Sheet(target)
	if !ok {
		if ref.Kind.SheetQualified() {
			res.External = true
		}
		res.Diagnostic = &models.Diagnostic{
			Kind:      models.MissingSheetReference,
			Sheet:     home,
			Reference: ref.RawText,
			Message:   fmt.Sprintf("sheet %q does not exist", target),
		}
		return res
	}
	res.Sheet = canonical
	res.External = !strings.EqualFold(canonical, home)

	hm := r.headers[canonical]
	start, startOK := hm.Lookup(ref.ColumnStart)
	end, endOK := start, startOK
	if ref.MultiColumn() {
		end, endOK = hm.Lookup(ref.ColumnEnd)
	}
	if startOK && endOK {
		res.Name, res.EndName, res.Mapped = start, end, true
		return res
	}

	missing := ref.ColumnStart
	if startOK {
		missing = ref.ColumnEnd
	}
	res.Diagnostic = &models.Diagnostic{
		Kind:      models.MissingHeaderReference,
		Sheet:     home,
		Reference: ref.RawText,
		Message:   fmt.Sprintf("column %s of sheet %q has no header", missing, canonical),
	}
	return res
}

// ResolveExplicit picks names from an explicit translation map instead of
// header rows. Keys are normalized with models.NormalizeRefKey; a column
// span key ("B:C") wins over the key of its first column.
func (r *Resolver) ResolveExplicit(ref models.Reference, home string, mapping ExplicitMap) Resolution {
	res := Resolution{
		Name:    ref.Key(),
		EndName: ref.EndKey(),
		Sheet:   home,
	}
	if ref.Kind.SheetQualified() {
		res.Sheet = ref.Sheet
		if canonical, ok := r.Sheet(ref.Sheet); ok {
			res.Sheet = canonical
		}
		res.External = !strings.EqualFold(res.Sheet, home)
	}

	if name, ok := mapping.lookup(ref.SpanKey()); ok && ref.MultiColumn() {
		res.Name, res.EndName, res.Mapped = name, name, true
		return res
	}
	start, startOK := mapping.lookup(ref.Key())
	end, endOK := start, startOK
	if ref.MultiColumn() {
		end, endOK = mapping.lookup(ref.EndKey())
	}
	if startOK && endOK {
		res.Name, res.EndName, res.Mapped = start, end, true
		return res
	}

	res.Diagnostic = &models.Diagnostic{
		Kind:      models.MissingHeaderReference,
		Sheet:     home,
		Reference: ref.RawText,
		Message:   fmt.Sprintf("no explicit mapping for %s", ref.SpanKey()),
	}
	return res
}

// ExplicitMap is a translation map supplied by configuration, keyed by
// normalized raw reference key.
type ExplicitMap map[string]string

// NewExplicitMap normalizes the keys of a configured translation map, so
// "$A$2", "a" and "A" all address column A.
func NewExplicitMap(raw map[string]string) ExplicitMap {
	if len(raw) == 0 {
		return nil
	}
	m := make(ExplicitMap, len(raw))
	for key, name := range raw {
		m[models.NormalizeRefKey(key)] = strings.TrimSpace(name)
	}
	return m
}

func (m ExplicitMap) lookup(key string) (string, bool) {
	name, ok := m[models.NormalizeRefKey(key)]
	return name, ok && name != ""
}
