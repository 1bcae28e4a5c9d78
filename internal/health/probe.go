package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/domain"
	"github.com/MrSnakeDoc/beacon/internal/utils"
)

// maxProbeBody caps how much of a health response body is read.
// Health endpoints returning more than this are truncated, not failed.
const maxProbeBody = 64 << 10

// Prober performs HTTP health probes with a bounded per-probe timeout.
// A failed probe is a result (status unhealthy), never an error: probe
// failures are transient by definition and retried on the next poll cycle.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// NewProber creates a prober. timeout bounds each individual probe.
func NewProber(timeout time.Duration) *Prober {
	return &Prober{
		client: &http.Client{
			// The per-request context carries the deadline; the client
			// timeout is a backstop only.
			Timeout: timeout + time.Second,
		},
		timeout: timeout,
	}
}

// Probe issues one HTTP GET against the service's health endpoint.
func (p *Prober) Probe(ctx context.Context, svc domain.ServiceDescriptor) domain.HealthRecord {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, svc.ProbeURL(), nil)
	if err != nil {
		return unhealthyRecord(svc.Name, fmt.Sprintf("invalid probe url: %v", err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return unhealthyRecord(svc.Name, err.Error())
	}
	defer utils.Close(resp.Body)

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		record := unhealthyRecord(svc.Name, fmt.Sprintf("unexpected status %d", resp.StatusCode))
		record.LatencyMilli = &latency
		return record
	}

	record := domain.HealthRecord{
		ServiceName:  svc.Name,
		Status:       domain.StatusHealthy,
		Timestamp:    time.Now(),
		LatencyMilli: &latency,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err == nil && len(body) > 0 {
		var detail any
		if json.Unmarshal(body, &detail) == nil {
			record.Detail = detail
		}
	}

	return record
}

func unhealthyRecord(name, reason string) domain.HealthRecord {
	return domain.HealthRecord{
		ServiceName: name,
		Status:      domain.StatusUnhealthy,
		Timestamp:   time.Now(),
		Detail:      reason,
	}
}
