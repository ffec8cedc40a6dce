// Package aggregate builds the result table of a compliance run: one row per
// check result followed by one "<testname>-average" row per test.
package aggregate

import (
	"math"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// ScorePercent returns scored/possible, or NaN when possible is zero.
func ScorePercent(scored, possible float64) float64 {
	if possible == 0 {
		return math.NaN()
	}
	return scored / possible
}

// Key identifies an individual result row by URL and test name.
func Key(r domain.CheckResult) string {
	return r.URL + r.TestName
}

// Aggregate returns the individual rows in input order followed by the average
// rows in first-seen test order. A test whose scores are all NaN averages to NaN.
func Aggregate(results []domain.CheckResult) []domain.ReportRow {
	rows := make([]domain.ReportRow, 0, len(results))

	type acc struct {
		sum float64
		n   int
	}
	var order []string
	groups := make(map[string]*acc)

	for _, r := range results {
		score := ScorePercent(r.ScoredPoints, r.PossiblePoints)
		rows = append(rows, domain.ReportRow{Key: Key(r), Result: r, ScorePercent: score})

		g, ok := groups[r.TestName]
		if !ok {
			g = &acc{}
			groups[r.TestName] = g
			order = append(order, r.TestName)
		}
		if !math.IsNaN(score) {
			g.sum += score
			g.n++
		}
	}

	for _, test := range order {
		g := groups[test]
		mean := math.NaN()
		if g.n > 0 {
			mean = g.sum / float64(g.n)
		}
		rows = append(rows, domain.ReportRow{
			Key:          test + domain.AverageSuffix,
			Average:      true,
			Result:       domain.CheckResult{TestName: test},
			ScorePercent: mean,
		})
	}
	return rows
}

// Averages returns only the average rows of an aggregated table.
func Averages(rows []domain.ReportRow) []domain.ReportRow {
	var out []domain.ReportRow
	for _, r := range rows {
		if r.Average {
			out = append(out, r)
		}
	}
	return out
}
