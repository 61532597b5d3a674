package impact

import (
	"fmt"
	"strings"

	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
)

// AlertOptions holds the alert thresholds.
type AlertOptions struct {
	// HighErrorRate is the failed share above which a column gets a high alert.
	HighErrorRate float64 `json:"high_error_rate"`
	// MediumErrorRate is the failed share above which a column gets a medium alert.
	MediumErrorRate float64 `json:"medium_error_rate"`
	// CascadeMin is the cascade score above which a column gets a cascade alert.
	CascadeMin int `json:"cascade_min"`
}

// DefaultAlertOptions returns the default alert thresholds.
func DefaultAlertOptions() AlertOptions {
	return AlertOptions{
		HighErrorRate:   0.3,
		MediumErrorRate: 0.1,
		CascadeMin:      3,
	}
}

// Alerts flags columns with a high share of failed outcomes, in order of
// first appearance, then origin columns whose cascade is wide.
func Alerts(outcomes []models.ValidationOutcome, records []models.ImpactRecord, opts AlertOptions) []models.Alert {
	type tally struct{ total, failed int }
	counts := make(map[string]*tally)
	var columns []string
	for _, o := range outcomes {
		t, ok := counts[o.Column]
		if !ok {
			t = &tally{}
			counts[o.Column] = t
			columns = append(columns, o.Column)
		}
		t.total++
		if !o.Passed {
			t.failed++
		}
	}

	var alerts []models.Alert
	for _, column := range columns {
		t := counts[column]
		rate := float64(t.failed) / float64(t.total)
		description := fmt.Sprintf("Column %s has %.1f%% divergent rows", column, rate*100)
		switch {
		case rate > opts.HighErrorRate:
			alerts = append(alerts, models.Alert{
				Severity:       "high",
				Kind:           "high_error_rate",
				Location:       column,
				Description:    description,
				Recommendation: "Review the calculation or the mapping of this column",
				Impact:         fmt.Sprintf("%d records affected", t.total),
			})
		case rate > opts.MediumErrorRate:
			alerts = append(alerts, models.Alert{
				Severity:       "medium",
				Kind:           "medium_error_rate",
				Location:       column,
				Description:    description,
				Recommendation: "Check the specific divergent cases",
				Impact:         fmt.Sprintf("%d records affected", t.failed),
			})
		}
	}

	for _, rec := range records {
		if rec.Score() <= opts.CascadeMin {
			continue
		}
		affected := append([]string{}, rec.AffectedColumns...)
		for _, key := range rec.AffectedFormulas {
			affected = append(affected, string(key))
		}
		shown := affected
		if len(shown) > 3 {
			shown = shown[:3]
		}
		impact := "Affects: " + strings.Join(shown, ", ")
		if len(affected) > len(shown) {
			impact += " and others"
		}
		alerts = append(alerts, models.Alert{
			Severity:       "high",
			Kind:           "cascade_impact",
			Location:       rec.OriginColumn,
			Description:    fmt.Sprintf("Divergences in %s affect %d columns and formulas", rec.OriginColumn, rec.Score()),
			Recommendation: "Fix this column first because of its wide impact",
			Impact:         impact,
		})
	}
	return alerts
}
