// Package compliance runs the external checker over resource URLs and collects results and failures.
package compliance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/metrics"
)

// DefaultPause is the delay between two URLs.
const DefaultPause = 2 * time.Second

// DefaultTests returns the tests run when none are requested.
func DefaultTests() []string {
	return []string{"cf", "acdd", "ioos"}
}

// DedupURLs returns the distinct non-empty resource URLs in first-seen order.
func DedupURLs(resources []domain.ResourceRecord) []string {
	seen := make(map[string]struct{}, len(resources))
	var out []string
	for _, r := range resources {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r.URL)
	}
	return out
}

// Outcome holds the results and failures of a run in invocation order.
type Outcome struct {
	Results  []domain.CheckResult
	Failures []domain.FailureRecord
}

// Service checks every (url, test) pair sequentially, URL outer.
type Service struct {
	runner  Runner
	logger  *zap.Logger
	metrics *metrics.Run
	pause   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a compliance service with the default pause.
func New(runner Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger, pause: DefaultPause, sleep: sleepContext}
}

// WithPause sets the delay between URLs. Zero or negative disables it.
func (s *Service) WithPause(d time.Duration) *Service {
	s.pause = max(d, 0)
	return s
}

// WithMetrics records check counts and durations on m.
func (s *Service) WithMetrics(m *metrics.Run) *Service {
	s.metrics = m
	return s
}

// Run invokes the checker once per (url, test) pair. A failed invocation is
// recorded in Outcome.Failures and never stops the run. The only error is a
// canceled ctx, returned with the outcome gathered so far.
func (s *Service) Run(ctx context.Context, urls, tests []string) (Outcome, error) {
	if len(tests) == 0 {
		tests = DefaultTests()
	}

	var out Outcome
	for i, url := range urls {
		s.logger.Info("Checking url",
			zap.String("url", url),
			zap.Int("index", i+1),
			zap.Int("total", len(urls)),
		)

		for _, test := range tests {
			res, err := s.check(ctx, test, url)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return out, ctxErr
				}
				out.Failures = append(out.Failures, domain.FailureRecord{
					URL: url, TestName: test, Command: res.Command, Err: err,
				})
				continue
			}
			out.Results = append(out.Results, res)
		}

		if i < len(urls)-1 && s.pause > 0 {
			if err := s.sleep(ctx, s.pause); err != nil {
				return out, err
			}
		}
	}

	s.logger.Info("Compliance checks finished",
		zap.Int("urls", len(urls)),
		zap.Int("results", len(out.Results)),
		zap.Int("failures", len(out.Failures)),
	)
	return out, nil
}

// check runs and parses one invocation. The returned result carries the command even on error.
func (s *Service) check(ctx context.Context, test, url string) (domain.CheckResult, error) {
	inv, err := s.runner.Run(ctx, test, url)
	partial := domain.CheckResult{URL: url, TestName: test, Command: inv.Command}
	if err != nil {
		s.observe(test, "failure", inv.Duration)
		s.logger.Warn("Checker invocation failed",
			zap.String("command", inv.Command),
			zap.Error(err),
		)
		return partial, err
	}

	if inv.ExitCode != 0 {
		s.logger.Warn("Checker exited with non-zero status",
			zap.String("command", inv.Command),
			zap.Int("exit_code", inv.ExitCode),
			zap.ByteString("stderr", inv.Stderr),
		)
	}

	res, err := ParseOutput(inv.Stdout, test)
	if err != nil {
		s.observe(test, "failure", inv.Duration)
		s.logger.Warn("Checker output rejected",
			zap.String("command", inv.Command),
			zap.Error(err),
		)
		return partial, err
	}

	res.URL = url
	res.Command = inv.Command
	s.observe(test, "success", inv.Duration)
	s.logger.Debug("Checker result",
		zap.String("url", url),
		zap.String("test", res.TestName),
		zap.Float64("scored_points", res.ScoredPoints),
		zap.Float64("possible_points", res.PossiblePoints),
	)
	return res, nil
}

func (s *Service) observe(test, status string, d time.Duration) {
	s.metrics.ObserveCheck(test, status, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
