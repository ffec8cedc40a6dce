package search

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// organizationScope is the Solr field CKAN indexes the owning organization id under.
const organizationScope = "owner_org"

// Query describes one paginated catalog search.
type Query struct {
	OrganizationID string
	// Terms are "key:value" catalog terms, already stripped of locally consumed keys.
	Terms    []string
	Operator domain.Operator
	// PageSize overrides the service page size when positive.
	PageSize int
}

// Expression composes the package_search q parameter.
// The organization scope comes first and is always ANDed so OR never widens it.
func (q Query) Expression() string {
	op := q.Operator
	if op == "" {
		op = domain.OperatorAND
	}
	joined := strings.Join(q.Terms, " "+string(op)+" ")

	if q.OrganizationID == "" {
		return joined
	}
	scope := organizationScope + ":" + q.OrganizationID
	switch {
	case len(q.Terms) == 0:
		return scope
	case op == domain.OperatorOR && len(q.Terms) > 1:
		return scope + " AND (" + joined + ")"
	default:
		return scope + " AND " + joined
	}
}

// Service pages through catalog search results.
type Service struct {
	catalog  Catalog
	logger   *zap.Logger
	pageSize int
}

// New creates a search service with the default page size.
func New(catalog Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, logger: logger, pageSize: domain.DefaultPageSize}
}

// WithPageSize sets the number of records requested per page. Values below 1 are ignored.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// ResolveOrganization finds the organization whose display name equals name exactly.
// The first exact match wins.
func (s *Service) ResolveOrganization(ctx context.Context, name string) (domain.Organization, error) {
	orgs, err := s.catalog.ListOrganizations(ctx, name)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("resolve organization %q: %w", name, err)
	}
	for _, org := range orgs {
		if org.DisplayName == name {
			s.logger.Debug("Resolved organization",
				zap.String("name", name),
				zap.String("id", org.ID),
			)
			return org, nil
		}
	}
	return domain.Organization{}, fmt.Errorf("%w: %q (%d candidates)", domain.ErrOrganizationNotFound, name, len(orgs))
}

// Records returns a lazy sequence over every record matching q.
// Each iteration starts a fresh pagination from offset 0. Pages are requested
// with offset advanced by the size of the previous page until the declared
// count is reached. A page error is yielded once and ends the sequence.
func (s *Service) Records(ctx context.Context, q Query) iter.Seq2[domain.CatalogRecord, error] {
	rows := s.pageSize
	if q.PageSize > 0 {
		rows = q.PageSize
	}
	filter := q.Expression()

	return func(yield func(domain.CatalogRecord, error) bool) {
		offset := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(domain.CatalogRecord{}, err)
				return
			}

			page, err := s.catalog.PackageSearch(ctx, domain.PageRequest{
				OrganizationID: q.OrganizationID,
				Filter:         filter,
				Offset:         offset,
				Rows:           rows,
			})
			if err != nil {
				yield(domain.CatalogRecord{}, fmt.Errorf("search page at offset %d: %w", offset, err))
				return
			}

			s.logger.Debug("Fetched catalog page",
				zap.Int("offset", offset),
				zap.Int("records", len(page.Records)),
				zap.Int("count", page.Count),
			)

			for _, rec := range page.Records {
				if !yield(rec, nil) {
					return
				}
			}

			offset += len(page.Records)
			if offset >= page.Count {
				return
			}
			if len(page.Records) == 0 {
				yield(domain.CatalogRecord{}, fmt.Errorf(
					"%w: empty page at offset %d of %d", domain.ErrCatalogQueryFailed, offset, page.Count))
				return
			}
		}
	}
}

// Collect drains Records into a slice. On error no partial result is returned.
func (s *Service) Collect(ctx context.Context, q Query) ([]domain.CatalogRecord, error) {
	var out []domain.CatalogRecord
	for rec, err := range s.Records(ctx, q) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
