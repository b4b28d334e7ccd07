package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redline-rp/portal/internal/obs"
)

const (
	Online  = "online"
	Offline = "offline"
)

// ErrNotConfigured is returned when the backend URL or API key is missing.
var ErrNotConfigured = errors.New("status: backend not configured")

// Service is the state of one faction service.
type Service struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs *int64 `json:"latencyMs"`
}

// FallbackServices lists the services shown when the backend is unreachable.
var FallbackServices = []string{"Site API", "Game server", "Discord bot"}

// OfflineServices returns the all-offline list shown when the backend cannot be
// reached.
func OfflineServices() []Service {
	out := make([]Service, 0, len(FallbackServices))
	for _, name := range FallbackServices {
		out = append(out, Service{Name: name, Status: Offline})
	}
	return out
}

// Checker proxies the backend status endpoint.
type Checker struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	label      string
}

// NewChecker creates a Checker. label names the service whose latency is
// the measured round trip to the backend.
func NewChecker(baseURL, apiKey, label string, httpClient *http.Client) *Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		label:      label,
	}
}

// Services returns the backend's service list with the measured latency
// attached to the labelled service. It never fails: any error yields the
// offline list.
func (c *Checker) Services(ctx context.Context) []Service {
	services, err := c.fetch(ctx)
	if err != nil {
		slog.Warn("status: backend unavailable; reporting offline", "error", err)
		return OfflineServices()
	}
	return services
}

func (c *Checker) fetch(ctx context.Context) ([]Service, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/site/status", nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		obs.ObserveUpstream("backend_status", "network", elapsed)
		return nil, fmt.Errorf("calling status backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.ObserveUpstream("backend_status", "status", elapsed)
		return nil, fmt.Errorf("status backend returned %d", resp.StatusCode)
	}

	var services []Service
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		obs.ObserveUpstream("backend_status", "decode", elapsed)
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	obs.ObserveUpstream("backend_status", "ok", elapsed)

	latency := elapsed.Milliseconds()
	for i := range services {
		if services[i].Name == c.label {
			services[i].LatencyMs = &latency
			return services, nil
		}
	}
	return append([]Service{{Name: c.label, Status: Online, LatencyMs: &latency}}, services...), nil
}
