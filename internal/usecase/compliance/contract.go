package compliance

import (
	"context"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Runner invokes the external checker for one (test, url) pair.
type Runner interface {
	Run(ctx context.Context, test, url string) (domain.CheckInvocation, error)
}
