// Package health aggregates component checks for the /health endpoint and the
// MCP server's status tool.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

type State string

const (
	StateHealthy   State = "healthy"
	StateWarning   State = "warning"
	StateUnhealthy State = "unhealthy"
)

type ComponentHealth struct {
	Name     string                 `json:"name"`
	Status   State                  `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Duration time.Duration          `json:"duration"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

type Status struct {
	Overall    State                      `json:"status"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// Check is a single named component check.
type Check interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// Checker runs all registered checks concurrently on demand.
type Checker struct {
	version string
	timeout time.Duration
	started time.Time
	logger  *logrus.Logger

	mu     sync.RWMutex
	checks map[string]Check
}

func NewChecker(version string, timeout time.Duration, logger *logrus.Logger) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		version: version,
		timeout: timeout,
		started: time.Now(),
		logger:  logger,
		checks:  make(map[string]Check),
	}
}

func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// Names lists registered checks in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check. Any unhealthy component makes the whole service
// unhealthy; warnings degrade it to warning.
func (c *Checker) Run(ctx context.Context) *Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	checks := make([]Check, 0, len(c.checks))
	for _, check := range c.checks {
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	results := make(chan ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch.Check(ctx)
			result.Name = ch.Name()
			result.Duration = time.Since(start)
			results <- result
		}(check)
	}
	wg.Wait()
	close(results)

	overall := StateHealthy
	components := make(map[string]ComponentHealth, len(checks))
	var unhealthy []string
	for result := range results {
		components[result.Name] = result
		switch result.Status {
		case StateUnhealthy:
			overall = StateUnhealthy
			unhealthy = append(unhealthy, result.Name)
		case StateWarning:
			if overall == StateHealthy {
				overall = StateWarning
			}
		}
	}

	if overall != StateHealthy {
		sort.Strings(unhealthy)
		c.logger.WithFields(logrus.Fields{
			"overall_status":       overall,
			"unhealthy_components": unhealthy,
		}).Warn("Health check completed with issues")
	}

	return &Status{
		Overall:    overall,
		Version:    c.version,
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Timestamp:  time.Now().UTC(),
		Components: components,
	}
}

// PingCheck adapts any ping function (database, Redis) to a Check.
type PingCheck struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingCheck(name string, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping}
}

func (p *PingCheck) Name() string { return p.name }

func (p *PingCheck) Check(ctx context.Context) ComponentHealth {
	if err := p.ping(ctx); err != nil {
		return ComponentHealth{Status: StateUnhealthy, Message: "ping failed", Error: err.Error()}
	}
	return ComponentHealth{Status: StateHealthy, Message: "reachable"}
}

// breakerReporter is implemented by predictors behind a circuit breaker.
type breakerReporter interface {
	BreakerState() gobreaker.State
}

// unwrapper is implemented by decorating predictors.
type unwrapper interface {
	Unwrap() domain.Predictor
}

// ModelCheck reports the loaded model and, for remote backends, the circuit
// breaker state.
type ModelCheck struct {
	predictor domain.Predictor
}

func NewModelCheck(p domain.Predictor) *ModelCheck {
	return &ModelCheck{predictor: p}
}

func (m *ModelCheck) Name() string { return "model" }

func (m *ModelCheck) Check(ctx context.Context) ComponentHealth {
	info := m.predictor.Info()
	result := ComponentHealth{
		Status:  StateHealthy,
		Message: "model loaded",
		Metadata: map[string]interface{}{
			"name":       info.Name,
			"version":    info.Version,
			"backend":    info.Backend,
			"vocabulary": info.VocabularyVersion,
		},
	}

	p := m.predictor
	for {
		if br, ok := p.(breakerReporter); ok {
			state := br.BreakerState()
			result.Metadata["breaker"] = state.String()
			switch state {
			case gobreaker.StateOpen:
				result.Status = StateUnhealthy
				result.Message = "model backend circuit open"
			case gobreaker.StateHalfOpen:
				result.Status = StateWarning
				result.Message = "model backend recovering"
			}
			break
		}
		u, ok := p.(unwrapper)
		if !ok {
			break
		}
		p = u.Unwrap()
	}
	return result
}
