package aggregate

import (
	"math"
	"testing"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

func result(url, test string, scored, possible float64) domain.CheckResult {
	return domain.CheckResult{URL: url, TestName: test, ScoredPoints: scored, PossiblePoints: possible}
}

func TestScorePercent(t *testing.T) {
	if got := ScorePercent(3, 4); got != 0.75 {
		t.Errorf("ScorePercent(3, 4) = %v", got)
	}
	if got := ScorePercent(3, 0); !math.IsNaN(got) {
		t.Errorf("ScorePercent(3, 0) = %v, want NaN", got)
	}
}

func TestAggregate_Mean(t *testing.T) {
	rows := Aggregate([]domain.CheckResult{
		result("u1", "cf", 1, 2),
		result("u2", "cf", 4, 4),
		result("u3", "cf", 3, 4),
	})
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	avg := rows[3]
	if avg.Key != "cf-average" || !avg.Average {
		t.Errorf("average row = %+v", avg)
	}
	if avg.ScorePercent != 0.75 {
		t.Errorf("cf-average = %v, want 0.75", avg.ScorePercent)
	}
	if rows[0].Key != "u1cf" || rows[0].ScorePercent != 0.5 {
		t.Errorf("row 0 = %+v", rows[0])
	}
}

func TestAggregate_Ordering(t *testing.T) {
	rows := Aggregate([]domain.CheckResult{
		result("u1", "cf", 1, 1),
		result("u1", "acdd", 1, 2),
		result("u2", "cf", 0, 1),
		result("u2", "acdd", 2, 2),
	})
	wantKeys := []string{"u1cf", "u1acdd", "u2cf", "u2acdd", "cf-average", "acdd-average"}
	if len(rows) != len(wantKeys) {
		t.Fatalf("rows = %d", len(rows))
	}
	for i, k := range wantKeys {
		if rows[i].Key != k {
			t.Errorf("row %d key = %q, want %q", i, rows[i].Key, k)
		}
	}
	if rows[4].ScorePercent != 0.5 || rows[5].ScorePercent != 0.75 {
		t.Errorf("averages = %v, %v", rows[4].ScorePercent, rows[5].ScorePercent)
	}
}

func TestAggregate_NaNIgnored(t *testing.T) {
	rows := Aggregate([]domain.CheckResult{
		result("u1", "ioos", 2, 0),
		result("u2", "ioos", 1, 2),
		result("u1", "acdd", 0, 0),
	})
	if !math.IsNaN(rows[0].ScorePercent) {
		t.Errorf("row 0 = %v, want NaN", rows[0].ScorePercent)
	}
	avgs := Averages(rows)
	if len(avgs) != 2 {
		t.Fatalf("averages = %d", len(avgs))
	}
	if avgs[0].ScorePercent != 0.5 {
		t.Errorf("ioos-average = %v, want 0.5", avgs[0].ScorePercent)
	}
	if !math.IsNaN(avgs[1].ScorePercent) {
		t.Errorf("acdd-average = %v, want NaN", avgs[1].ScorePercent)
	}
}

func TestAggregate_Empty(t *testing.T) {
	if rows := Aggregate(nil); len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	in := []domain.CheckResult{
		result("u1", "cf", 1, 3),
		result("u2", "cf", 2, 3),
		result("u3", "cf", 2, 7),
	}
	a, b := Aggregate(in), Aggregate(in)
	for i := range a {
		if a[i].Key != b[i].Key || a[i].ScorePercent != b[i].ScorePercent {
			t.Errorf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if len(in) != 3 || in[0].URL != "u1" {
		t.Error("input mutated")
	}
}
