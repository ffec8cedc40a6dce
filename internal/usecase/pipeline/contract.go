package pipeline

import (
	"context"
	"iter"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/usecase/compliance"
	"github.com/kailas-cloud/catalog-query/internal/usecase/search"
)

// Searcher resolves organizations and pages through catalog records.
type Searcher interface {
	ResolveOrganization(ctx context.Context, name string) (domain.Organization, error)
	Records(ctx context.Context, q search.Query) iter.Seq2[domain.CatalogRecord, error]
}

// Checker runs compliance checks over resource URLs.
type Checker interface {
	Run(ctx context.Context, urls, tests []string) (compliance.Outcome, error)
}

// ReportWriter writes report files. Each method reports whether a file was written.
type ReportWriter interface {
	WriteResults(path string, rows []domain.ReportRow) (bool, error)
	WriteFailures(path string, failures []domain.FailureRecord) (bool, error)
	WriteDatasets(path string, datasets []domain.DatasetSummary) (bool, error)
}

// Summarizer flattens a catalog record into a dataset row.
type Summarizer interface {
	Summarize(rec domain.CatalogRecord) domain.DatasetSummary
}

// HistoryRecorder persists a run summary.
type HistoryRecorder interface {
	Record(ctx context.Context, sum domain.RunSummary) error
}
