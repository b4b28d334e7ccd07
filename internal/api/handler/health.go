package handler

import (
	"context"
	"net/http"

	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/api/response"
)

// DBPinger checks database connectivity.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Features reports which optional integrations are configured.
type Features struct {
	OAuth       bool `json:"oauth"`
	Recruitment bool `json:"recruitment"`
	Changelog   bool `json:"changelog"`
	DiscordBot  bool `json:"discordBot"`
	LegacyStore bool `json:"legacyStore"`
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db       DBPinger
	version  string
	features Features
}

// NewHealthHandler creates a new HealthHandler. db may be nil when no
// legacy store is configured.
func NewHealthHandler(db DBPinger, version string, features Features) *HealthHandler {
	return &HealthHandler{
		db:       db,
		version:  version,
		features: features,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Database *databaseStatus `json:"database"`
	Features Features        `json:"features"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	var db *databaseStatus

	if h.db != nil {
		db = &databaseStatus{Connected: true}
		if err := h.db.PingContext(r.Context()); err != nil {
			middleware.Logger(r.Context()).Warn("legacy database ping failed", "error", err)
			db.Connected = false
			status = "degraded"
		}
	}

	data := healthData{
		Status:   status,
		Version:  h.version,
		Database: db,
		Features: h.features,
	}

	response.Success(w, http.StatusOK, data, requestID)
}
