package parser

import (
	"strings"

	"github.com/xuri/efp"
)

// FunctionNames returns the distinct function identifiers called by a
// formula, in call order, using the spreadsheet formula tokenizer.
func FunctionNames(formula string) []string {
	var names []string
	seen := make(map[string]bool)
	ps := efp.ExcelParser()
	for _, token := range ps.Parse(formula) {
		if token.TType != efp.TokenTypeFunction || token.TSubType != efp.TokenSubTypeStart {
			continue
		}
		name := normalizeFunctionName(token.TValue)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func normalizeFunctionName(name string) string {
	name = strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(name), "("))
	return strings.TrimPrefix(name, "_XLFN.")
}
