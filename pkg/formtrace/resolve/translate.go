package resolve

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// TranslateOptions controls how a mapped reference is written back.
type TranslateOptions struct {
	// PreserveRows appends the row number to each substituted name.
	PreserveRows bool `json:"preserve_rows"`
	// KeepAbsoluteMarkers keeps the "$" markers around substituted names.
	KeepAbsoluteMarkers bool `json:"keep_absolute_markers"`
}

// Translate rewrites formula replacing every mapped reference with its
// semantic name. refs and names are parallel slices. Unmapped references
// keep their raw text. Substitutions run from the highest span offset
// down so earlier spans stay valid.
func Translate(formula string, refs []models.Reference, names []Resolution, opts TranslateOptions) string {
	order := make([]int, 0, len(refs))
	for i := range refs {
		if i < len(names) && names[i].Mapped {
			order = append(order, i)
		}
	}
	slices.SortFunc(order, func(a, b int) int {
		return refs[b].Span.Start - refs[a].Span.Start
	})

	out := formula
	for _, i := range order {
		ref := refs[i]
		if ref.Span.Start < 0 || ref.Span.End > len(out) || ref.Span.Start > ref.Span.End {
			continue
		}
		out = out[:ref.Span.Start] + render(ref, names[i], opts) + out[ref.Span.End:]
	}
	return out
}

// render writes the replacement text of one mapped reference. A range
// whose ends render identically collapses to a single name.
func render(ref models.Reference, res Resolution, opts TranslateOptions) string {
	startPart, endPart := bodyParts(ref.RawText)
	hasRows := !ref.Kind.ColumnSpan()

	start := renderPart(res.Name, ref.RowStart, startPart, hasRows, opts)
	if ref.Kind == models.LocalCell || ref.Kind == models.SheetCell {
		return start
	}
	end := renderPart(res.EndName, ref.RowEnd, endPart, hasRows, opts)
	if end == start {
		return start
	}
	return start + ":" + end
}

func renderPart(name string, row int, raw string, hasRow bool, opts TranslateOptions) string {
	var b strings.Builder
	colAbs, rowAbs := absoluteMarkers(raw)
	if opts.KeepAbsoluteMarkers && colAbs {
		b.WriteByte('$')
	}
	b.WriteString(name)
	if opts.PreserveRows && hasRow && row > 0 {
		if opts.KeepAbsoluteMarkers && rowAbs {
			b.WriteByte('$')
		}
		b.WriteString(strconv.Itoa(row))
	}
	return b.String()
}

// bodyParts splits the raw text of a reference into its two column parts
// without the sheet prefix. Single cells return the same part twice.
func bodyParts(raw string) (string, string) {
	if i := strings.LastIndex(raw, "!"); i >= 0 {
		raw = raw[i+1:]
	}
	start, end, found := strings.Cut(raw, ":")
	if !found {
		return start, start
	}
	return start, end
}

// absoluteMarkers reports the column and row "$" markers of "$A$1" style text.
func absoluteMarkers(part string) (col, row bool) {
	col = strings.HasPrefix(part, "$")
	row = strings.Contains(strings.TrimPrefix(part, "$"), "$")
	return col, row
}
