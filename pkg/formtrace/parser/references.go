// Package parser reads workbooks and scans formula text for references.
package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// Warning describes a malformed reference token that was skipped.
type Warning struct {
	// Offset is the byte offset of the token in the formula.
	Offset int `json:"offset"`
	// Token is the offending text.
	Token   string `json:"token"`
	Message string `json:"message"`
}

// ReferenceSet is the outcome of scanning one formula.
type ReferenceSet struct {
	// References are ordered by span start and never overlap.
	References []models.Reference
	// Warnings lists skipped tokens.
	Warnings []Warning
}

// ParseReferences extracts every cell, range and column-span reference from
// formula text. A leading "=" is skipped; spans index the text as given.
//
// Tokens are matched longest-first: a quoted or unquoted sheet prefix is
// consumed together with its cell, range or column span, so the local
// grammar never sees the tail of a sheet-qualified reference. A cell-like
// word directly followed by "(" is a function name, not a reference; the
// same word elsewhere, as in "=LOG10*2", is a cell.
func ParseReferences(formula string) ReferenceSet {
	s := &refScanner{src: formula}
	if strings.HasPrefix(formula, "=") {
		s.pos = 1
	}
	s.run()
	return s.out
}

type refScanner struct {
	src string
	pos int
	out ReferenceSet
}

// cellPart is one side of a reference body: "$A$1", "B7", "C" or "$C".
type cellPart struct {
	col    string
	row    int
	hasRow bool
	next   int
}

type bodyStatus int

const (
	bodyNone bodyStatus = iota
	bodyOK
	bodyMalformed
)

// refBody is a parsed reference without its sheet prefix.
type refBody struct {
	start, end cellPart
	isRange    bool
	next       int
	problem    string
}

func (s *refScanner) run() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"':
			s.skipString()
		case c == '\'':
			s.scanQuotedSheet()
		case c == '[':
			s.skipBracket()
		case c == '#':
			s.skipErrorLiteral()
		case c >= '0' && c <= '9':
			s.skipNumber()
		default:
			r, size := utf8.DecodeRuneInString(s.src[s.pos:])
			if isWordStart(r) {
				s.scanWord()
				continue
			}
			s.pos += size
		}
	}
}

func (s *refScanner) warn(offset int, token, msg string) {
	s.out.Warnings = append(s.out.Warnings, Warning{Offset: offset, Token: token, Message: msg})
}

func (s *refScanner) skipString() {
	start := s.pos
	j := s.pos + 1
	for j < len(s.src) {
		if s.src[j] == '"' {
			if j+1 < len(s.src) && s.src[j+1] == '"' {
				j += 2
				continue
			}
			s.pos = j + 1
			return
		}
		j++
	}
	s.warn(start, s.src[start:], "unterminated string literal")
	s.pos = len(s.src)
}

func (s *refScanner) skipBracket() {
	start := s.pos
	depth := 0
	for j := s.pos; j < len(s.src); j++ {
		switch s.src[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				s.pos = j + 1
				return
			}
		}
	}
	s.warn(start, s.src[start:], "unterminated bracket")
	s.pos = start + 1
}

// skipErrorLiteral skips #REF!, #DIV/0!, #N/A and friends.
func (s *refScanner) skipErrorLiteral() {
	j := s.pos + 1
	for j < len(s.src) && (isASCIIAlnum(s.src[j]) || s.src[j] == '/') {
		j++
	}
	if j < len(s.src) && (s.src[j] == '!' || s.src[j] == '?') {
		j++
	}
	s.pos = j
}

func (s *refScanner) skipNumber() {
	s.pos = s.wordEnd(s.pos)
}

// scanQuotedSheet handles 'Sheet Name'!ref. An unterminated quote is
// reported and scanning resumes right after the opening quote.
func (s *refScanner) scanQuotedSheet() {
	start := s.pos
	var name strings.Builder
	j := s.pos + 1
	for j < len(s.src) {
		if s.src[j] == '\'' {
			if j+1 < len(s.src) && s.src[j+1] == '\'' {
				name.WriteByte('\'')
				j += 2
				continue
			}
			break
		}
		name.WriteByte(s.src[j])
		j++
	}
	if j >= len(s.src) {
		s.warn(start, s.src[start:], "unterminated quoted sheet name")
		s.pos = start + 1
		return
	}
	if j+1 >= len(s.src) || s.src[j+1] != '!' {
		s.warn(start, s.src[start:j+1], "quoted name is not followed by a reference")
		s.pos = j + 1
		return
	}
	s.scanSheetBody(start, name.String(), true, j+2)
}

// scanWord handles an identifier-like run: a sheet prefix, a local
// reference or anything else (function names, named ranges, booleans).
func (s *refScanner) scanWord() {
	start := s.pos
	end := s.wordEnd(start)
	if end < len(s.src) && s.src[end] == '!' {
		s.scanSheetBody(start, s.src[start:end], false, end+1)
		return
	}

	body, status := s.parseBody(start)
	switch status {
	case bodyNone:
		s.pos = end
		return
	case bodyMalformed:
		s.warn(start, s.src[start:body.next], body.problem)
		s.pos = body.next
		return
	}
	if !body.isRange && s.isFunctionCall(body.next) {
		s.pos = body.next
		return
	}
	s.emit(start, body, "", false)
	s.pos = body.next
}

func (s *refScanner) scanSheetBody(refStart int, sheet string, quoted bool, bodyStart int) {
	body, status := s.parseBody(bodyStart)
	switch status {
	case bodyNone:
		end := s.wordEnd(bodyStart)
		s.warn(refStart, s.src[refStart:end], "malformed reference after sheet name")
		s.pos = end
		return
	case bodyMalformed:
		s.warn(refStart, s.src[refStart:body.next], body.problem)
		s.pos = body.next
		return
	}
	if sheet == "" {
		s.warn(refStart, s.src[refStart:body.next], "empty sheet name")
		s.pos = body.next
		return
	}
	s.emit(refStart, body, sheet, quoted)
	s.pos = body.next
}

func (s *refScanner) emit(start int, body refBody, sheet string, quoted bool) {
	ref := models.Reference{
		Sheet:       sheet,
		ColumnStart: body.start.col,
		ColumnEnd:   body.start.col,
		RawText:     s.src[start:body.next],
		Span:        models.Span{Start: start, End: body.next},
		Quoted:      quoted,
	}
	switch {
	case body.isRange && body.start.hasRow:
		ref.Kind = models.LocalRange
		ref.ColumnEnd = body.end.col
		ref.RowStart, ref.RowEnd = body.start.row, body.end.row
	case body.isRange:
		ref.Kind = models.LocalColumnSpan
		ref.ColumnEnd = body.end.col
	default:
		ref.Kind = models.LocalCell
		ref.RowStart, ref.RowEnd = body.start.row, body.start.row
	}
	if sheet != "" {
		// Sheet kinds mirror the local kinds in declaration order.
		ref.Kind += models.SheetCell
	}
	s.out.References = append(s.out.References, ref)
}

// parseBody parses cell, cell:cell or col:col starting at i. Every part
// must end on a word boundary, otherwise the text is not a reference.
func (s *refScanner) parseBody(i int) (refBody, bodyStatus) {
	first, ok := s.parsePart(i)
	if !ok {
		return refBody{}, bodyNone
	}
	body := refBody{start: first, next: first.next}

	if first.next < len(s.src) && s.src[first.next] == ':' {
		second, ok := s.parsePart(first.next + 1)
		switch {
		case ok && first.hasRow == second.hasRow:
			body.end = second
			body.isRange = true
			body.next = second.next
		case ok:
			body.next = second.next
			body.problem = "range mixes a cell with a whole column"
			return body, bodyMalformed
		case !first.hasRow:
			return refBody{}, bodyNone
		}
	} else if !first.hasRow {
		return refBody{}, bodyNone
	}

	if msg := validatePart(body.start); msg != "" {
		body.problem = msg
		return body, bodyMalformed
	}
	if body.isRange {
		if msg := validatePart(body.end); msg != "" {
			body.problem = msg
			return body, bodyMalformed
		}
	}
	return body, bodyOK
}

// parsePart reads "$"? LETTERS ("$"? DIGITS)? ending on a word boundary.
// Only upper-case column letters are accepted, as stored by spreadsheet
// applications.
func (s *refScanner) parsePart(i int) (cellPart, bool) {
	j := i
	if j < len(s.src) && s.src[j] == '$' {
		j++
	}
	colStart := j
	for j < len(s.src) && s.src[j] >= 'A' && s.src[j] <= 'Z' {
		j++
	}
	if j == colStart || j-colStart > 3 {
		return cellPart{}, false
	}
	part := cellPart{col: s.src[colStart:j]}

	rowMarker := j < len(s.src) && s.src[j] == '$'
	if rowMarker {
		j++
	}
	rowStart := j
	for j < len(s.src) && s.src[j] >= '0' && s.src[j] <= '9' {
		j++
	}
	if j > rowStart {
		part.hasRow = true
		part.row, _ = strconv.Atoi(s.src[rowStart:j])
		if rowStart < j-7 {
			part.row = models.MaxRow + 1
		}
	} else if rowMarker {
		return cellPart{}, false
	}
	if s.wordEnd(j) != j {
		return cellPart{}, false
	}
	part.next = j
	return part, true
}

func validatePart(p cellPart) string {
	col, err := models.ColumnIndex(p.col)
	if err != nil || col > models.MaxColumn {
		return "column " + p.col + " is out of range"
	}
	if p.hasRow && (p.row < 1 || p.row > models.MaxRow) {
		return "row " + strconv.Itoa(p.row) + " is out of range"
	}
	return ""
}

// isFunctionCall reports whether the cell-like token ending at end is
// called, such as LOG10 in LOG10(x).
func (s *refScanner) isFunctionCall(end int) bool {
	j := end
	for j < len(s.src) && s.src[j] == ' ' {
		j++
	}
	return j < len(s.src) && s.src[j] == '('
}

// wordEnd returns the end of the identifier run starting at i.
func (s *refScanner) wordEnd(i int) int {
	for i < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[i:])
		if !isWordChar(r) {
			break
		}
		i += size
	}
	return i
}

func isWordStart(r rune) bool {
	return r == '_' || r == '$' || r == '\\' || unicode.IsLetter(r)
}

func isWordChar(r rune) bool {
	return isWordStart(r) || r == '.' || unicode.IsDigit(r)
}

func isASCIIAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
