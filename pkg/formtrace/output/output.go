// Package output serializes analysis results.
package output

import (
	"encoding/json"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"sigs.k8s.io/yaml"
)

// Report bundles an analysis with its optional impact report.
type Report struct {
	Analysis *models.Analysis     `json:"analysis"`
	Impact   *models.ImpactReport `json:"impact,omitempty"`
}

// ToJSON serializes v to JSON, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ToYAML serializes v to YAML using its JSON field names.
func ToYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
