package compliance

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

const cfOutput = `{
  "cf": {
    "testname": "cf",
    "source_name": "http://example.org/dap",
    "scored_points": 30,
    "possible_points": 40,
    "high_count": 1,
    "medium_count": 2.0,
    "low_count": 3,
    "cc_spec_version": "1.6",
    "cc_url": "http://cfconventions.org/Data/cf-conventions/cf-conventions-1.6/build/cf-conventions.html",
    "all_priorities": []
  }
}`

func TestParseOutput(t *testing.T) {
	res, err := ParseOutput([]byte(cfOutput), "cf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TestName != "cf" || res.ScoredPoints != 30 || res.PossiblePoints != 40 {
		t.Errorf("points = %+v", res)
	}
	if res.HighCount != 1 || res.MediumCount != 2 || res.LowCount != 3 {
		t.Errorf("counts = %d/%d/%d", res.HighCount, res.MediumCount, res.LowCount)
	}
	if res.SourceName != "http://example.org/dap" || res.SpecVersion != "1.6" || res.SpecURL == "" {
		t.Errorf("metadata = %+v", res)
	}
	if res.ScorePercent() != 0.75 {
		t.Errorf("score = %v", res.ScorePercent())
	}
}

func TestParseOutput_OptionalFieldsAbsent(t *testing.T) {
	out := `{"acdd": {"testname": "acdd", "scored_points": 0, "possible_points": 0,
		"high_count": 0, "medium_count": 0, "low_count": 0}}`
	res, err := ParseOutput([]byte(out), "acdd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SourceName != "" || res.SpecVersion != "" {
		t.Errorf("optional fields = %+v", res)
	}
}

func TestParseOutput_Invalid(t *testing.T) {
	tests := []struct {
		name string
		out  string
		test string
	}{
		{"not json", "Traceback (most recent call last):", "cf"},
		{"empty", "", "cf"},
		{"array", `[1, 2]`, "cf"},
		{"wrong test key", cfOutput, "ioos"},
		{"entry not object", `{"cf": "error"}`, "cf"},
		{"missing scored_points", `{"cf": {"testname": "cf", "possible_points": 1,
			"high_count": 0, "medium_count": 0, "low_count": 0}}`, "cf"},
		{"missing counts", `{"cf": {"testname": "cf", "scored_points": 1, "possible_points": 1}}`, "cf"},
		{"string points", `{"cf": {"testname": "cf", "scored_points": "1", "possible_points": 1,
			"high_count": 0, "medium_count": 0, "low_count": 0}}`, "cf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput([]byte(tt.out), tt.test)
			if !errors.Is(err, domain.ErrCheckOutputInvalid) {
				t.Errorf("err = %v, want ErrCheckOutputInvalid", err)
			}
		})
	}
}
