package domain

import (
	"math"
	"time"
)

// CheckResult is the parsed outcome of one checker invocation for a (url, test) pair.
type CheckResult struct {
	URL            string
	TestName       string
	ScoredPoints   float64
	PossiblePoints float64
	HighCount      int
	MediumCount    int
	LowCount       int
	SourceName     string
	SpecVersion    string
	SpecURL        string
	Command        string
}

// ScorePercent returns scored/possible, or NaN when nothing was possible.
func (r CheckResult) ScorePercent() float64 {
	if r.PossiblePoints == 0 {
		return math.NaN()
	}
	return r.ScoredPoints / r.PossiblePoints
}

// CheckInvocation is the captured outcome of one checker process.
type CheckInvocation struct {
	Command  string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// FailureRecord is a checker invocation that produced no usable result.
type FailureRecord struct {
	URL      string
	TestName string
	Command  string
	Err      error
}

// Message returns the error description.
func (f FailureRecord) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// AverageSuffix is appended to a test name to key its average row.
const AverageSuffix = "-average"

// ReportRow is one line of the aggregate result table: either an individual
// check result or a synthetic "<testname>-average" row.
type ReportRow struct {
	Key          string
	Average      bool
	Result       CheckResult
	ScorePercent float64
}

// RunSummary describes one completed compliance run.
type RunSummary struct {
	RunID        string
	Action       string
	Organization string
	StartedAt    time.Time
	Checks       int
	Failures     int
	Averages     []ReportRow
}
