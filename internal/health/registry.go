package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Checker reports whether a dependency is reachable
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface
type CheckerFunc func(ctx context.Context) error

// Ping calls f(ctx)
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Status is the outcome of a single check
type Status struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Registry manages named readiness checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry creates a new health registry; timeout bounds every check
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns all registered checker names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every checker concurrently and reports whether all passed
func (r *Registry) CheckAll(ctx context.Context) ([]Status, bool) {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]Status, 0, len(checkers))
	)
	for name, c := range checkers {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			start := time.Now()
			err := c.Ping(ctx)
			st := Status{
				Name:     name,
				Healthy:  err == nil,
				Duration: time.Since(start).Round(time.Microsecond).String(),
			}
			if err != nil {
				st.Error = err.Error()
			}
			mu.Lock()
			results = append(results, st)
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	healthy := true
	for _, st := range results {
		if !st.Healthy {
			healthy = false
		}
	}
	return results, healthy
}
