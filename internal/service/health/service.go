package health

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/crm-ia/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

const checkTimeout = 5 * time.Second

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// ConnectionState is implemented by message queue adapters
type ConnectionState interface {
	IsConnected() bool
}

// Service handles health checks
type Service struct {
	db        *sql.DB
	cache     ports.Cache
	queue     ConnectionState
	breakers  *circuitbreaker.Manager
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. Nil dependencies are not checked.
type Config struct {
	Version  string
	DB       *sql.DB
	Cache    ports.Cache
	Queue    ConnectionState
	Breakers *circuitbreaker.Manager
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	s := &Service{
		db:        config.DB,
		cache:     config.Cache,
		queue:     config.Queue,
		breakers:  config.Breakers,
		startTime: time.Now(),
		version:   config.Version,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.DB != nil {
		s.RegisterChecker("database", s.checkDatabase)
	}
	if config.Cache != nil {
		s.RegisterChecker("cache", s.checkCache)
	}
	if config.Queue != nil {
		s.RegisterChecker("queue", s.checkQueue)
	}
	if config.Breakers != nil {
		s.RegisterChecker("providers", s.checkBreakers)
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every registered check concurrently. Degraded checks keep the
// service ready; a single unhealthy check does not.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()

	results := s.run(ctx, checkers)
	status := aggregate(results)

	return &ReadyResponse{
		Ready:     status != StatusUnhealthy,
		Status:    status,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

func (s *Service) run(ctx context.Context, checkers map[string]Checker) map[string]CheckResult {
	results := make(map[string]CheckResult, len(checkers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()
	return results
}

// aggregate returns the worst status of results.
func aggregate(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// ping times fn and reports failures with failStatus.
func (s *Service) ping(name string, failStatus Status, fn func() error) CheckResult {
	start := time.Now()
	err := fn()
	result := CheckResult{
		Name:      name,
		Status:    StatusHealthy,
		Message:   "connection ok",
		Duration:  time.Since(start),
		Timestamp: start,
	}
	if err != nil {
		result.Status = failStatus
		result.Message = fmt.Sprintf("ping failed: %v", err)
		s.log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
	}
	return result
}

func (s *Service) checkDatabase(ctx context.Context) CheckResult {
	return s.ping("database", StatusUnhealthy, func() error { return s.db.PingContext(ctx) })
}

// checkCache reports a failing cache as degraded: the workflow only loses
// duplicate protection without it.
func (s *Service) checkCache(ctx context.Context) CheckResult {
	return s.ping("cache", StatusDegraded, s.cache.Ping)
}

func (s *Service) checkQueue(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:      "queue",
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Message:   "connected",
	}
	if !s.queue.IsConnected() {
		result.Status = StatusDegraded
		result.Message = "disconnected, agenda updates are delivered locally only"
	}
	return result
}

func (s *Service) checkBreakers(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:      "providers",
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Message:   "all circuits closed",
	}

	var open []string
	for name, status := range s.breakers.Status() {
		if status.State != gobreaker.StateClosed.String() {
			open = append(open, name)
		}
	}
	if len(open) > 0 {
		sort.Strings(open)
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("circuits not closed: %v", open)
	}
	return result
}
