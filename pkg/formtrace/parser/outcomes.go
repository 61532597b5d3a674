package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/xuri/excelize/v2"
	"sigs.k8s.io/yaml"
)

// LoadOutcomes reads validation outcomes from a .csv, .json, .yaml/.yml
// or .xlsx file. Tabular formats need a header row naming the "row",
// "column" and "passed" columns, in any order.
func LoadOutcomes(path string) ([]models.ValidationOutcome, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadOutcomesCSV(f)
	case ".json", ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var outcomes []models.ValidationOutcome
		if err := yaml.Unmarshal(data, &outcomes); err != nil {
			return nil, fmt.Errorf("decode outcomes %s: %w", path, err)
		}
		return outcomes, nil
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, err
		}
		return outcomesFromRows(rows)
	default:
		return nil, fmt.Errorf("unsupported outcome file %q", path)
	}
}

// ReadOutcomesCSV reads "row,column,passed" records with a header line.
func ReadOutcomesCSV(r io.Reader) ([]models.ValidationOutcome, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return outcomesFromRows(rows)
}

func outcomesFromRows(rows [][]string) ([]models.ValidationOutcome, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	idx := map[string]int{"row": -1, "column": -1, "passed": -1}
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	for name, i := range idx {
		if i < 0 {
			return nil, fmt.Errorf("outcome header has no %q column", name)
		}
	}

	outcomes := make([]models.ValidationOutcome, 0, len(rows)-1)
	for n, rec := range rows[1:] {
		line := n + 2
		if isBlankRecord(rec) {
			continue
		}
		row, err := strconv.Atoi(strings.TrimSpace(field(rec, idx["row"])))
		if err != nil {
			return nil, fmt.Errorf("outcome line %d: bad row: %w", line, err)
		}
		passed, err := parsePassed(field(rec, idx["passed"]))
		if err != nil {
			return nil, fmt.Errorf("outcome line %d: %w", line, err)
		}
		outcomes = append(outcomes, models.ValidationOutcome{
			Row:    row,
			Column: strings.TrimSpace(field(rec, idx["column"])),
			Passed: passed,
		})
	}
	return outcomes, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parsePassed(s string) (bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "pass", "passed", "ok", "yes", "y":
		return true, nil
	case "fail", "failed", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("bad passed value %q", s)
	}
	return b, nil
}
