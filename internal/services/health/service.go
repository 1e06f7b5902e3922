package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Service runs named dependency checks for the health endpoint.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}, timeout: 2 * time.Second}
}

// Register adds a named check. A nil check is ignored.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// Status is the health payload.
type Status struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check and reports "ok" or the error text per dependency.
func (s *Service) Status(ctx context.Context) Status {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	out := Status{OK: true}
	if len(names) == 0 {
		return out
	}
	out.Checks = make(map[string]string, len(names))
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()

		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			out.OK = false
			out.Checks[name] = err.Error()
			continue
		}
		out.Checks[name] = "ok"
	}
	return out
}
