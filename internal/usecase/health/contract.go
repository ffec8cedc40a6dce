package health

import "context"

// Pinger checks history store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyChecker checks one external dependency of a run.
type DependencyChecker interface {
	HealthCheck(ctx context.Context) error
}
