package recruitment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redline-rp/portal/internal/obs"
)

// Status is the backend's recruitment workflow state for a user.
type Status string

const (
	StatusNone              Status = "NONE"
	StatusPending           Status = "PENDING"
	StatusApprovedPractical Status = "APPROVED_PRACTICAL"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
)

// Approved reports whether the state makes the user a member.
func (s Status) Approved() bool {
	return s == StatusApprovedPractical || s == StatusApproved
}

var (
	// ErrNotConfigured is returned when the backend URL or API key is missing.
	ErrNotConfigured = errors.New("recruitment: backend not configured")
	// ErrUpstream is returned on a non-2xx backend response.
	ErrUpstream = errors.New("recruitment: unexpected upstream status")
	// ErrMalformed is returned when the backend body cannot be decoded.
	ErrMalformed = errors.New("recruitment: malformed response")
)

// Membership is the decoded recruitment record. The zero value denies access.
type Membership struct {
	Status    Status `json:"status"`
	IsMember  bool   `json:"isMember"`
	IsSpecial bool   `json:"isSpecial"`
}

type statusResponse struct {
	UserStatus *struct {
		Status Status `json:"status"`
	} `json:"userStatus"`
	IsSpecial bool `json:"isSpecial"`
}

// Client reads recruitment status from the faction backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a recruitment client. An empty baseURL or apiKey yields
// a client that always fails closed.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Status fetches the recruitment record for a Discord user id. On any
// failure it returns the zero Membership together with the cause.
func (c *Client) Status(ctx context.Context, userID string) (Membership, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return Membership{}, ErrNotConfigured
	}

	endpoint := c.baseURL + "/api/site/recruitment/status?user_id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Membership{}, fmt.Errorf("building recruitment request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	// Always read the live record; the guard relies on this being fresh.
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		obs.ObserveUpstream("recruitment", "network", time.Since(start))
		return Membership{}, fmt.Errorf("calling recruitment backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.ObserveUpstream("recruitment", "status", time.Since(start))
		return Membership{}, fmt.Errorf("%w: %d", ErrUpstream, resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		obs.ObserveUpstream("recruitment", "decode", time.Since(start))
		return Membership{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	obs.ObserveUpstream("recruitment", "ok", time.Since(start))
	// No userStatus means the user never applied; isSpecial still applies.
	if body.UserStatus == nil {
		return Membership{Status: StatusNone, IsSpecial: body.IsSpecial}, nil
	}
	return Membership{
		Status:    body.UserStatus.Status,
		IsMember:  body.UserStatus.Status.Approved(),
		IsSpecial: body.IsSpecial,
	}, nil
}
