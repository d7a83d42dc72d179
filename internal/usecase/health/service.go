package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every configured component failed.
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

// Component names used as report keys.
const (
	ComponentCache  = "cache"
	ComponentList   = "list"
	ComponentSearch = "search"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache  Pinger
	list   Pinger
	search Pinger
}

// New creates a Service. Any pinger can be nil; unconfigured components are left
// out of the report.
func New(cache, list, search Pinger) *Service {
	return &Service{cache: cache, list: list, search: search}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	probe(ctx, checks, ComponentCache, s.cache)
	probe(ctx, checks, ComponentList, s.list)
	probe(ctx, checks, ComponentSearch, s.search)

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed == 0:
	case failed == len(checks):
		status = Unhealthy
	default:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, checks map[string]CheckResult, name string, p Pinger) {
	if p == nil {
		return
	}
	if err := p.Ping(ctx); err != nil {
		checks[name] = CheckError
		return
	}
	checks[name] = CheckOK
}
