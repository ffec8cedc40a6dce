package search

import (
	"context"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Catalog defines the remote catalog contract used by the search service.
type Catalog interface {
	ListOrganizations(ctx context.Context, q string) ([]domain.Organization, error)
	PackageSearch(ctx context.Context, req domain.PageRequest) (domain.Page, error)
}
