package obs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check is one named readiness dependency, e.g. mongo or redis.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandlers serves /livez and /readyz. Readiness fails when any check fails.
type HealthHandlers struct {
	Checks  []Check
	Timeout time.Duration
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	results, err := h.run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}

// Ready runs every check and joins the failures. It matches the probe signature the gRPC
// health server polls.
func (h HealthHandlers) Ready(ctx context.Context) error {
	_, err := h.run(ctx)
	return err
}

func (h HealthHandlers) run(ctx context.Context) (map[string]string, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(map[string]string, len(h.Checks))
	var errs []error
	for _, check := range h.Checks {
		if check.Probe == nil {
			continue
		}
		if err := check.Probe(ctx); err != nil {
			results[check.Name] = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", check.Name, err))
			continue
		}
		results[check.Name] = "ok"
	}
	return results, errors.Join(errs...)
}
