package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PackageError reports an unreadable part of the workbook package.
type PackageError struct {
	// Part is the package part that failed, e.g. "xl/workbook.xml".
	Part string
	Err  error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("workbook package part %q: %v", e.Part, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

// errMissingPart is wrapped by PackageError when a required part is absent.
var errMissingPart = errors.New("part not found")

// PackageSheet is a sheet as declared by xl/workbook.xml.
type PackageSheet struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// RelID is the relationship id linking the sheet to its part.
	RelID string `json:"rel_id"`
	// Part is the worksheet part path, e.g. "xl/worksheets/sheet1.xml".
	Part string `json:"part,omitempty"`
	// State is "visible", "hidden" or "veryHidden".
	State string `json:"state"`
}

// ReadSheetList reads the declared sheet list straight from the package.
// Any failure here means the workbook structure itself is unusable.
func ReadSheetList(xlsxPath string) ([]PackageSheet, error) {
	r, err := zip.OpenReader(xlsxPath)
	if err != nil {
		return nil, &PackageError{Part: xlsxPath, Err: err}
	}
	defer r.Close()
	return readSheetList(&r.Reader)
}

func readSheetList(r *zip.Reader) ([]PackageSheet, error) {
	workbookXML, err := readZipFile(r, "xl/workbook.xml")
	if err != nil {
		return nil, &PackageError{Part: "xl/workbook.xml", Err: err}
	}
	sheets, err := parseWorkbookSheets(workbookXML)
	if err != nil {
		return nil, &PackageError{Part: "xl/workbook.xml", Err: err}
	}
	if len(sheets) == 0 {
		return nil, &PackageError{Part: "xl/workbook.xml", Err: errors.New("no sheets declared")}
	}

	// Relationships only add part paths; a missing rels part is tolerated.
	if relsXML, err := readZipFile(r, "xl/_rels/workbook.xml.rels"); err == nil {
		parts := parseWorkbookRels(relsXML)
		for i := range sheets {
			sheets[i].Part = parts[sheets[i].RelID]
		}
	}
	return sheets, nil
}

// formulaCells lists the cells of a worksheet part that carry a formula
// element, shared-formula followers included, in document order.
func formulaCells(r *zip.Reader, part string) ([]string, error) {
	data, err := readZipFile(r, part)
	if err != nil {
		return nil, err
	}

	var cells []string
	var current string
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "c":
				current = ""
				for _, attr := range el.Attr {
					if attr.Name.Local == "r" {
						current = attr.Value
					}
				}
			case "f":
				if current != "" {
					cells = append(cells, current)
					current = ""
				}
			}
		case xml.EndElement:
			if el.Name.Local == "c" {
				current = ""
			}
		}
	}
	return cells, nil
}

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, errMissingPart
}

func parseWorkbookSheets(data []byte) ([]PackageSheet, error) {
	var result []PackageSheet
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		sheet := PackageSheet{State: "visible"}
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				sheet.Name = attr.Value
			case "id":
				sheet.RelID = attr.Value
			case "state":
				sheet.State = attr.Value
			}
		}
		if sheet.Name != "" {
			result = append(result, sheet)
		}
	}

	return result, nil
}

func parseWorkbookRels(data []byte) map[string]string {
	result := make(map[string]string) // rId -> part path
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if rID != "" && strings.Contains(strings.ToLower(target), "worksheet") {
				result[rID] = resolveRelativePath(target, "xl")
			}
		}
	}

	return result
}

func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "../") {
		clean := target
		for strings.HasPrefix(clean, "../") {
			clean = strings.TrimPrefix(clean, "../")
		}
		return "xl/" + clean
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return baseDir + "/" + target
}
