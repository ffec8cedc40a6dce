package compliance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/metrics"
)

// --- Mocks ---

type call struct{ test, url string }

type mockRunner struct {
	stdout   map[call]string
	errs     map[call]error
	exit     map[call]int
	calls    []call
	cancel   context.CancelFunc
	cancelAt int
}

func (m *mockRunner) Run(_ context.Context, test, url string) (domain.CheckInvocation, error) {
	c := call{test, url}
	m.calls = append(m.calls, c)
	if m.cancel != nil && len(m.calls) == m.cancelAt {
		m.cancel()
		return domain.CheckInvocation{Command: "cc"}, context.Canceled
	}

	inv := domain.CheckInvocation{
		Command:  fmt.Sprintf("compliance-checker -t %s -f json %s", test, url),
		ExitCode: m.exit[c],
	}
	if err := m.errs[c]; err != nil {
		return inv, err
	}
	out, ok := m.stdout[c]
	if !ok {
		out = validOutput(test, 3, 4)
	}
	inv.Stdout = []byte(out)
	return inv, nil
}

func validOutput(test string, scored, possible float64) string {
	return fmt.Sprintf(`{%q: {"testname": %q, "scored_points": %v, "possible_points": %v,
		"high_count": 0, "medium_count": 1, "low_count": 2}}`, test, test, scored, possible)
}

type sleepRecorder struct{ calls []time.Duration }

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestService(r Runner) (*Service, *sleepRecorder) {
	rec := &sleepRecorder{}
	svc := New(r, nil)
	svc.sleep = rec.sleep
	return svc, rec
}

// --- Tests ---

func TestDedupURLs(t *testing.T) {
	res := []domain.ResourceRecord{
		domain.NewResourceRecord(map[string]string{"url": "http://b"}),
		domain.NewResourceRecord(map[string]string{"url": "http://a"}),
		domain.NewResourceRecord(map[string]string{"url": "http://b"}),
		domain.NewResourceRecord(map[string]string{"url": ""}),
		domain.NewResourceRecord(map[string]string{"url": "http://c"}),
	}
	got := DedupURLs(res)
	want := []string{"http://b", "http://a", "http://c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("DedupURLs = %v, want %v", got, want)
	}
}

func TestRun_OrderAndPause(t *testing.T) {
	r := &mockRunner{}
	svc, sleeps := newTestService(r)

	out, err := svc.Run(context.Background(), []string{"u1", "u2"}, []string{"cf", "acdd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []call{{"cf", "u1"}, {"acdd", "u1"}, {"cf", "u2"}, {"acdd", "u2"}}
	if fmt.Sprint(r.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", r.calls, want)
	}
	if len(out.Results) != 4 || len(out.Failures) != 0 {
		t.Fatalf("results = %d, failures = %d", len(out.Results), len(out.Failures))
	}
	if out.Results[2].URL != "u2" || out.Results[2].TestName != "cf" {
		t.Errorf("result[2] = %+v", out.Results[2])
	}
	if out.Results[0].Command != "compliance-checker -t cf -f json u1" {
		t.Errorf("command = %q", out.Results[0].Command)
	}
	if len(sleeps.calls) != 1 || sleeps.calls[0] != DefaultPause {
		t.Errorf("sleeps = %v, want one pause between urls", sleeps.calls)
	}
}

func TestRun_DefaultTests(t *testing.T) {
	r := &mockRunner{}
	svc, _ := newTestService(r)

	if _, err := svc.Run(context.Background(), []string{"u1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.calls) != 3 || r.calls[0].test != "cf" || r.calls[1].test != "acdd" || r.calls[2].test != "ioos" {
		t.Errorf("calls = %v", r.calls)
	}
}

func TestRun_InvalidOutputIsolated(t *testing.T) {
	r := &mockRunner{
		stdout: map[call]string{{"cf", "u1"}: "not json"},
		exit:   map[call]int{{"cf", "u1"}: 1},
	}
	svc, _ := newTestService(r)

	out, err := svc.Run(context.Background(), []string{"u1", "u2"}, []string{"cf", "acdd"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(out.Failures))
	}
	f := out.Failures[0]
	if f.URL != "u1" || f.TestName != "cf" || f.Command != "compliance-checker -t cf -f json u1" {
		t.Errorf("failure = %+v", f)
	}
	if !errors.Is(f.Err, domain.ErrCheckOutputInvalid) || f.Message() == "" {
		t.Errorf("failure err = %v", f.Err)
	}
	if len(out.Results) != 3 || out.Results[0].TestName != "acdd" {
		t.Errorf("results = %+v", out.Results)
	}
}

func TestRun_RunnerErrorsBecomeFailures(t *testing.T) {
	r := &mockRunner{errs: map[call]error{
		{"cf", "u1"}:   fmt.Errorf("%w after 10m0s", domain.ErrCheckTimeout),
		{"acdd", "u1"}: fmt.Errorf("%w: exec: not found", domain.ErrCheckerStart),
	}}
	svc, _ := newTestService(r)

	m := metrics.NewRun()
	svc.WithMetrics(m)

	out, err := svc.Run(context.Background(), []string{"u1"}, []string{"cf", "acdd", "ioos"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Failures) != 2 || len(out.Results) != 1 {
		t.Fatalf("failures = %d, results = %d", len(out.Failures), len(out.Results))
	}
	if !errors.Is(out.Failures[0].Err, domain.ErrCheckTimeout) {
		t.Errorf("failure[0] = %v", out.Failures[0].Err)
	}
	if !errors.Is(out.Failures[1].Err, domain.ErrCheckerStart) {
		t.Errorf("failure[1] = %v", out.Failures[1].Err)
	}
}

func TestRun_NoPauseWhenDisabled(t *testing.T) {
	svc, sleeps := newTestService(&mockRunner{})
	svc.WithPause(0)

	if _, err := svc.Run(context.Background(), []string{"u1", "u2", "u3"}, []string{"cf"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sleeps.calls) != 0 {
		t.Errorf("sleeps = %v", sleeps.calls)
	}
}

func TestRun_CanceledStopsWithPartialOutcome(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &mockRunner{cancel: cancel, cancelAt: 3}
	svc, _ := newTestService(r)

	out, err := svc.Run(ctx, []string{"u1", "u2"}, []string{"cf", "acdd"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(out.Results) != 2 || len(out.Failures) != 0 {
		t.Errorf("results = %d, failures = %d", len(out.Results), len(out.Failures))
	}
	if len(r.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(r.calls))
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("err = %v", err)
	}
}
