// Package pipeline runs one action end to end: resolve the organization, page
// through the catalog, select resources, check them and write the reports.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/usecase/aggregate"
	"github.com/kailas-cloud/catalog-query/internal/usecase/compliance"
	"github.com/kailas-cloud/catalog-query/internal/usecase/search"
)

// Result summarizes what a run produced.
type Result struct {
	Records   int
	Datasets  int
	Resources int
	URLs      int

	Rows     []domain.ReportRow
	Failures []domain.FailureRecord

	ResultsWritten  bool
	FailuresWritten bool
}

// Pipeline wires the stages of every action.
type Pipeline struct {
	search     Searcher
	checker    Checker
	writer     ReportWriter
	summarizer Summarizer
	history    HistoryRecorder
}

// New creates a pipeline. checker may be nil when no action runs checks;
// summarizer may be nil when no action lists datasets.
func New(s Searcher, c Checker, w ReportWriter, sum Summarizer) *Pipeline {
	return &Pipeline{search: s, checker: c, writer: w, summarizer: sum}
}

// WithHistory stores a summary of every compliance run.
func (p *Pipeline) WithHistory(h HistoryRecorder) *Pipeline {
	p.history = h
	return p
}

// Execute runs plan within run. Catalog failures abort before any file is written.
func (p *Pipeline) Execute(ctx context.Context, run *Run, plan Plan) (Result, error) {
	log := run.Logger.With(zap.String("action", plan.Action.String()))

	q := search.Query{Terms: plan.Spec.SearchTerms(), Operator: plan.Operator}
	if name := plan.Organization(); name != "" {
		org, err := p.search.ResolveOrganization(ctx, name)
		if err != nil {
			return Result{}, err
		}
		q.OrganizationID = org.ID
		log.Info("Organization resolved", zap.String("name", name), zap.String("id", org.ID))
	}
	log.Info("Querying catalog",
		zap.String("q", q.Expression()),
		zap.Stringer("resource_filter", plan.Predicates),
	)

	if plan.Action.RunsChecks() {
		return p.check(ctx, run, plan, q, log)
	}
	return p.listDatasets(ctx, run, plan, q, log)
}

func (p *Pipeline) listDatasets(
	ctx context.Context, run *Run, plan Plan, q search.Query, log *zap.Logger,
) (Result, error) {
	if p.summarizer == nil {
		return Result{}, fmt.Errorf("action %s: no dataset summarizer configured", plan.Action)
	}

	var res Result
	var datasets []domain.DatasetSummary
	for rec, err := range p.search.Records(ctx, q) {
		if err != nil {
			return Result{}, err
		}
		res.Records++
		// A resource filter keeps only datasets offering at least one matching resource.
		if !plan.Predicates.IsEmpty() && len(plan.Predicates.Select(rec.Resources)) == 0 {
			continue
		}
		datasets = append(datasets, p.summarizer.Summarize(rec))
	}
	res.Datasets = len(datasets)

	log.Info("Datasets found",
		zap.String("organization", plan.Organization()),
		zap.Int("packages", res.Records),
		zap.Int("datasets", res.Datasets),
	)

	written, err := p.writer.WriteDatasets(run.Paths.Results, datasets)
	if err != nil {
		return Result{}, fmt.Errorf("write datasets: %w", err)
	}
	res.ResultsWritten = written
	return res, nil
}

func (p *Pipeline) check(
	ctx context.Context, run *Run, plan Plan, q search.Query, log *zap.Logger,
) (Result, error) {
	if p.checker == nil {
		return Result{}, fmt.Errorf("action %s: no checker configured", plan.Action)
	}

	var res Result
	var matched []domain.ResourceRecord
	for rec, err := range p.search.Records(ctx, q) {
		if err != nil {
			return Result{}, err
		}
		res.Records++
		matched = append(matched, plan.Predicates.Select(rec.Resources)...)
	}
	res.Resources = len(matched)

	urls := compliance.DedupURLs(matched)
	res.URLs = len(urls)
	log.Info("Resources selected",
		zap.String("organization", plan.Organization()),
		zap.Int("packages", res.Records),
		zap.Int("resources", res.Resources),
		zap.Int("urls", res.URLs),
		zap.Stringer("criteria", plan.Predicates),
	)
	if len(urls) == 0 {
		return res, nil
	}

	outcome, err := p.checker.Run(ctx, urls, plan.Tests)
	if err != nil {
		return Result{}, fmt.Errorf("compliance checks: %w", err)
	}

	res.Rows = aggregate.Aggregate(outcome.Results)
	res.Failures = outcome.Failures
	for _, avg := range aggregate.Averages(res.Rows) {
		log.Info("Average score",
			zap.String("test", avg.Result.TestName),
			zap.Float64("score_percent", avg.ScorePercent),
		)
		if !math.IsNaN(avg.ScorePercent) {
			run.Metrics.SetScoreAverage(avg.Result.TestName, avg.ScorePercent)
		}
	}

	if res.ResultsWritten, err = p.writer.WriteResults(run.Paths.Results, res.Rows); err != nil {
		return Result{}, fmt.Errorf("write results: %w", err)
	}
	if res.FailuresWritten, err = p.writer.WriteFailures(run.Paths.Errors, res.Failures); err != nil {
		return Result{}, fmt.Errorf("write failures: %w", err)
	}

	p.recordHistory(ctx, run, outcome, res.Rows, log)
	return res, nil
}

// recordHistory is best effort: a history failure never fails the run.
func (p *Pipeline) recordHistory(
	ctx context.Context, run *Run, outcome compliance.Outcome, rows []domain.ReportRow, log *zap.Logger,
) {
	if p.history == nil {
		return
	}
	sum := domain.RunSummary{
		RunID:        run.ID,
		Action:       run.Action.String(),
		Organization: run.Organization,
		StartedAt:    run.StartedAt,
		Checks:       len(outcome.Results) + len(outcome.Failures),
		Failures:     len(outcome.Failures),
		Averages:     aggregate.Averages(rows),
	}
	if err := p.history.Record(ctx, sum); err != nil {
		log.Warn("Failed to record run history", zap.Error(err))
		return
	}
	log.Debug("Run history recorded", zap.String("run_id", run.ID))
}
