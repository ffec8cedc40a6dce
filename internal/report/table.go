// Package report writes result, failure and dataset tables as CSV or XLSX files.
package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Column sets.
var (
	ResultColumns = []string{
		"key", "url", "testname", "scored_points", "possible_points", "source_name",
		"high_count", "medium_count", "low_count", "score_percent",
		"cc_command", "cc_spec_version", "cc_url",
	}
	FailureColumns = []string{"url", "testname", "cc_command", "error_msg"}
	DatasetColumns = []string{
		"id", "name", "dataset_url", "title", "organization", "harvest_object_url",
		"waf_location", "type", "num_resources", "num_tags", "formats", "bbox",
	}
)

// Table is a header and rows of cells. A cell is a string, int or float64.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

// ResultTable renders aggregated rows. Average rows only carry key and score_percent.
func ResultTable(rows []domain.ReportRow) Table {
	t := Table{Sheet: "results", Header: ResultColumns}
	for _, r := range rows {
		score := number(r.ScorePercent)
		if r.Average {
			t.Rows = append(t.Rows, []any{r.Key, "", "", "", "", "", "", "", "", score, "", "", ""})
			continue
		}
		res := r.Result
		t.Rows = append(t.Rows, []any{
			r.Key, res.URL, res.TestName, res.ScoredPoints, res.PossiblePoints, res.SourceName,
			res.HighCount, res.MediumCount, res.LowCount, score,
			res.Command, res.SpecVersion, res.SpecURL,
		})
	}
	return t
}

// FailureTable renders failed invocations.
func FailureTable(failures []domain.FailureRecord) Table {
	t := Table{Sheet: "errors", Header: FailureColumns}
	for _, f := range failures {
		t.Rows = append(t.Rows, []any{f.URL, f.TestName, f.Command, f.Message()})
	}
	return t
}

// DatasetTable renders dataset listing rows.
func DatasetTable(datasets []domain.DatasetSummary) Table {
	t := Table{Sheet: "datasets", Header: DatasetColumns}
	for _, d := range datasets {
		t.Rows = append(t.Rows, []any{
			d.ID, d.Name, d.DatasetURL, d.Title, d.Organization, d.HarvestObjectURL,
			d.WAFLocation, d.Type, d.NumResources, d.NumTags, d.Formats, d.BBox,
		})
	}
	return t
}

// number maps NaN to an empty cell.
func number(v float64) any {
	if math.IsNaN(v) {
		return ""
	}
	return v
}

// cellString formats a cell for text output.
func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(c)
	}
}
