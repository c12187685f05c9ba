package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Dependency is one thing the server needs to reach. A nil Ping means the
// dependency is not configured. Critical dependencies being down make the
// service unhealthy; others only degrade it.
type Dependency struct {
	Name      string
	Critical  bool
	Timeout   time.Duration
	SlowAfter time.Duration
	Ping      func(ctx context.Context) error
}

// HealthChecker reports the health of the activity store, prediction store,
// Redis and the classifier.
type HealthChecker struct {
	deps      []Dependency
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(deps ...Dependency) *HealthChecker {
	return &HealthChecker{deps: deps, startTime: time.Now()}
}

const healthVersion = "1.0.0"

// HandleHealth returns the health status of all components.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	// Always 200; use /health/ready for probes that need 503 on failure.
	httputil.OK(w, HealthStatus{
		Status:  hc.overallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 200 only when no critical dependency is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := hc.overallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.JSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	type result struct {
		name  string
		check ComponentCheck
	}
	ch := make(chan result, len(hc.deps))

	for _, d := range hc.deps {
		go func(d Dependency) { ch <- result{d.Name, checkDependency(ctx, d)} }(d)
	}

	checks := make(map[string]ComponentCheck, len(hc.deps))
	for range hc.deps {
		r := <-ch
		checks[r.name] = r.check
	}
	return checks
}

func checkDependency(ctx context.Context, d Dependency) ComponentCheck {
	if d.Ping == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := d.Ping(pingCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	status := "up"
	msg := "connected"
	if d.SlowAfter > 0 && latency > d.SlowAfter {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}

	return ComponentCheck{
		Status:  status,
		Latency: latency.String(),
		Message: msg,
	}
}

// overallStatus derives the aggregate status from individual checks.
//
// Rules:
//   - "unhealthy" if a configured critical dependency is down
//   - "degraded"  if any check is degraded or a configured non-critical check is down
//   - "healthy"   otherwise
func (hc *HealthChecker) overallStatus(checks map[string]ComponentCheck) string {
	for _, d := range hc.deps {
		c := checks[d.Name]
		if d.Critical && c.Status == "down" && c.Message != "not configured" {
			return "unhealthy"
		}
	}

	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
		if c.Status == "down" && c.Message != "not configured" {
			return "degraded"
		}
	}

	return "healthy"
}

// formatUptime produces a human-readable uptime string like "3d 4h 12m 5s".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
