package handler

import (
	"net/http"
	"time"

	"github.com/redline-rp/portal/internal/api/middleware"
	"github.com/redline-rp/portal/internal/api/response"
	"github.com/redline-rp/portal/internal/badges"
)

const dateLayout = "2006-01-02"

// BadgesHandler handles GET /api/badges.
type BadgesHandler struct {
	tiers []badges.Tier
	now   func() time.Time
}

// NewBadgesHandler creates a new BadgesHandler.
func NewBadgesHandler(tiers []badges.Tier) *BadgesHandler {
	return &BadgesHandler{tiers: tiers, now: time.Now}
}

type badgesResponse struct {
	Since   string       `json:"since"`
	Elapsed badges.Span  `json:"elapsed"`
	Text    string       `json:"text"`
	Earned  *badges.Tier `json:"earned"`
	Next    *badges.Tier `json:"next"`
}

// ServeHTTP computes tenure from ?since=YYYY-MM-DD.
func (h *BadgesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	raw := r.URL.Query().Get("since")
	since, err := time.Parse(dateLayout, raw)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_DATE", "Query parameter since must be a date in YYYY-MM-DD format", requestID)
		return
	}

	span := badges.Elapsed(since, h.now())
	response.Success(w, http.StatusOK, badgesResponse{
		Since:   since.Format(dateLayout),
		Elapsed: span,
		Text:    span.String(),
		Earned:  badges.Earned(span, h.tiers),
		Next:    badges.Next(span, h.tiers),
	}, requestID)
}
