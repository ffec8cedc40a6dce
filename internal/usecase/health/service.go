// Package health reports whether the dependencies of a run are reachable
// before any report is produced.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used in a Report.
const (
	ComponentCatalog = "catalog"
	ComponentChecker = "checker"
	ComponentHistory = "history"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]string
}

// Service coordinates health checks.
type Service struct {
	catalog DependencyChecker
	checker DependencyChecker
	history Pinger
}

// New creates a Service. checker can be nil when no action runs checks.
func New(catalog, checker DependencyChecker) *Service {
	return &Service{catalog: catalog, checker: checker}
}

// WithHistory adds the history store to the report.
func (s *Service) WithHistory(p Pinger) *Service {
	s.history = p
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Checks: map[string]CheckResult{}, Errors: map[string]string{}}

	r.record(ComponentCatalog, s.catalog.HealthCheck(ctx))
	if s.checker != nil {
		r.record(ComponentChecker, s.checker.HealthCheck(ctx))
	}
	if s.history != nil {
		r.record(ComponentHistory, s.history.Ping(ctx))
	}

	failed := len(r.Errors)
	switch {
	case failed == 0:
		r.Status = Healthy
	case failed == len(r.Checks):
		r.Status = Unhealthy
	default:
		r.Status = Degraded
	}
	return r
}

func (r *Report) record(name string, err error) {
	if err != nil {
		r.Checks[name] = CheckError
		r.Errors[name] = err.Error()
		return
	}
	r.Checks[name] = CheckOK
}
