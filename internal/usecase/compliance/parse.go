package compliance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// report is the per-test object of the checker's JSON output.
// Pointer fields distinguish an absent field from a zero value.
type report struct {
	TestName       *string  `json:"testname"`
	ScoredPoints   *float64 `json:"scored_points"`
	PossiblePoints *float64 `json:"possible_points"`
	HighCount      *float64 `json:"high_count"`
	MediumCount    *float64 `json:"medium_count"`
	LowCount       *float64 `json:"low_count"`
	SourceName     string   `json:"source_name"`
	SpecVersion    string   `json:"cc_spec_version"`
	SpecURL        string   `json:"cc_url"`
}

// ParseOutput extracts the result for test from the checker's standard output.
// The document must be a JSON object keyed by the test name as passed to the checker.
// URL and Command are left for the caller to fill in.
func ParseOutput(stdout []byte, test string) (domain.CheckResult, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: %w", domain.ErrCheckOutputInvalid, err)
	}

	raw, ok := doc[test]
	if !ok {
		return domain.CheckResult{}, fmt.Errorf("%w: no entry for test %q", domain.ErrCheckOutputInvalid, test)
	}

	var r report
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.CheckResult{}, fmt.Errorf("%w: test %q: %w", domain.ErrCheckOutputInvalid, test, err)
	}
	if missing := r.missing(); len(missing) > 0 {
		return domain.CheckResult{}, fmt.Errorf("%w: test %q missing field(s): %s",
			domain.ErrCheckOutputInvalid, test, strings.Join(missing, ", "))
	}

	return domain.CheckResult{
		TestName:       *r.TestName,
		ScoredPoints:   *r.ScoredPoints,
		PossiblePoints: *r.PossiblePoints,
		HighCount:      int(*r.HighCount),
		MediumCount:    int(*r.MediumCount),
		LowCount:       int(*r.LowCount),
		SourceName:     r.SourceName,
		SpecVersion:    r.SpecVersion,
		SpecURL:        r.SpecURL,
	}, nil
}

func (r report) missing() []string {
	var out []string
	if r.TestName == nil {
		out = append(out, "testname")
	}
	if r.ScoredPoints == nil {
		out = append(out, "scored_points")
	}
	if r.PossiblePoints == nil {
		out = append(out, "possible_points")
	}
	if r.HighCount == nil {
		out = append(out, "high_count")
	}
	if r.MediumCount == nil {
		out = append(out, "medium_count")
	}
	if r.LowCount == nil {
		out = append(out, "low_count")
	}
	return out
}
