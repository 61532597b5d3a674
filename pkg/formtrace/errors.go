package formtrace

import (
	"errors"
	"fmt"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrMalformedWorkbook indicates the workbook's declared sheet list cannot be read.
var ErrMalformedWorkbook = errors.New("malformed workbook structure")

// MalformedWorkbookError aborts an analysis: the workbook package or its
// sheet list is unreadable. It matches ErrMalformedWorkbook with errors.Is.
type MalformedWorkbookError struct {
	Path string
	Part string // package part that failed, e.g. "xl/workbook.xml"
	Err  error
}

func (e *MalformedWorkbookError) Error() string {
	if e.Part == "" || e.Part == e.Path {
		return fmt.Sprintf("malformed workbook %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("malformed workbook %q (%s): %v", e.Path, e.Part, e.Err)
}

func (e *MalformedWorkbookError) Unwrap() error {
	return e.Err
}

func (e *MalformedWorkbookError) Is(target error) bool {
	return target == ErrMalformedWorkbook
}

// NewMalformedWorkbookError creates a new MalformedWorkbookError, lifting
// the failing part out of a parser.PackageError.
func NewMalformedWorkbookError(path string, err error) *MalformedWorkbookError {
	e := &MalformedWorkbookError{Path: path, Err: err}
	var pe *parser.PackageError
	if errors.As(err, &pe) {
		e.Part = pe.Part
		e.Err = pe.Err
	}
	return e
}
