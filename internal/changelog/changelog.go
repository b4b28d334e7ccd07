package changelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/redline-rp/portal/internal/obs"
)

// fetchTimeout bounds a shared fetch, which outlives the caller that started it.
const fetchTimeout = 15 * time.Second

// UpstreamError carries the status code of a failed releases request.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("changelog: releases request returned %d", e.StatusCode)
}

// ErrNotConfigured is returned when no repository is configured.
var ErrNotConfigured = errors.New("changelog: repository not configured")

// Entry is one published release as shown on the changelog page.
type Entry struct {
	ID          int64     `json:"id"`
	Version     string    `json:"version"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
}

type release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	CreatedAt   time.Time `json:"created_at"`
	PublishedAt time.Time `json:"published_at"`
	Author      struct {
		Login string `json:"login"`
	} `json:"author"`
}

// Service fetches GitHub releases and caches the mapped entries.
type Service struct {
	httpClient *http.Client
	apiURL     string
	repo       string
	token      string
	ttl        time.Duration
	now        func() time.Time

	group     singleflight.Group
	mu        sync.Mutex
	cached    []Entry
	fetchedAt time.Time
}

// NewService creates a changelog service for repo ("owner/name").
func NewService(apiURL, repo, token string, ttl time.Duration, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
		repo:       strings.Trim(repo, "/"),
		token:      token,
		ttl:        ttl,
		now:        time.Now,
	}
}

// List returns the changelog, served from cache while it is fresh.
// Concurrent misses share one upstream request.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		entries := s.cached
		s.mu.Unlock()
		return entries, nil
	}
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh fetches the releases now and replaces the cache. On failure the
// previous entries stay cached. The fetch is shared by all concurrent
// callers and is not cancelled when one of them goes away.
func (s *Service) Refresh(ctx context.Context) ([]Entry, error) {
	ch := s.group.DoChan("releases", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.load(fetchCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) load(ctx context.Context) ([]Entry, error) {
	entries, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cached = entries
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return entries, nil
}

func (s *Service) fetch(ctx context.Context) ([]Entry, error) {
	if s.repo == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/repos/"+s.repo+"/releases?per_page=50", nil)
	if err != nil {
		return nil, fmt.Errorf("building releases request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		obs.ObserveUpstream("github_releases", "network", time.Since(start))
		return nil, fmt.Errorf("calling releases api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.ObserveUpstream("github_releases", "status", time.Since(start))
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var releases []release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		obs.ObserveUpstream("github_releases", "decode", time.Since(start))
		return nil, fmt.Errorf("decoding releases: %w", err)
	}
	obs.ObserveUpstream("github_releases", "ok", time.Since(start))

	entries := make([]Entry, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		entries = append(entries, toEntry(r))
	}
	return entries, nil
}

func toEntry(r release) Entry {
	title := r.Name
	if title == "" {
		title = r.TagName
	}
	date := r.PublishedAt
	if date.IsZero() {
		date = r.CreatedAt
	}
	updated := r.CreatedAt
	if r.PublishedAt.After(updated) {
		updated = r.PublishedAt
	}
	return Entry{
		ID:          r.ID,
		Version:     strings.TrimPrefix(r.TagName, "v"),
		Title:       title,
		Date:        date,
		UpdatedAt:   updated,
		Description: r.Body,
		URL:         r.HTMLURL,
		Author:      r.Author.Login,
	}
}

// StatusCode maps a List error to the HTTP status the proxy answers with.
func StatusCode(err error) int {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.StatusCode
	}
	return http.StatusInternalServerError
}
