package changelog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-rp/portal/internal/changelog"
)

const releasesBody = `[
  {"id":2,"tag_name":"v1.2.0","name":"Winter update","body":"Snow.","html_url":"https://github.com/redline/site/releases/v1.2.0",
   "draft":false,"created_at":"2024-12-01T10:00:00Z","published_at":"2024-12-02T10:00:00Z","author":{"login":"dev1"}},
  {"id":1,"tag_name":"v1.1.0","name":"","body":"Fixes.","html_url":"https://github.com/redline/site/releases/v1.1.0",
   "draft":false,"created_at":"2024-11-01T10:00:00Z","published_at":"2024-11-01T10:00:00Z","author":{"login":"dev2"}},
  {"id":3,"tag_name":"v1.3.0","name":"Draft","draft":true}
]`

func newGitHub(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/repos/redline/site/releases", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestList_MapsReleases(t *testing.T) {
	var hits atomic.Int32
	srv := newGitHub(t, http.StatusOK, releasesBody, &hits)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	entries, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, "1.2.0", entries[0].Version)
	assert.Equal(t, "Winter update", entries[0].Title)
	assert.Equal(t, "dev1", entries[0].Author)
	assert.Equal(t, time.Date(2024, 12, 2, 10, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, "v1.1.0", entries[1].Title)
	assert.Equal(t, "Fixes.", entries[1].Description)
}

func TestList_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := newGitHub(t, http.StatusOK, releasesBody, &hits)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	for i := 0; i < 3; i++ {
		_, err := svc.List(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestRefresh_ForcesRefetch(t *testing.T) {
	var hits atomic.Int32
	srv := newGitHub(t, http.StatusOK, releasesBody, &hits)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	entries, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Len(t, entries, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRefresh_FailureKeepsCache(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(releasesBody))
	}))
	t.Cleanup(srv.Close)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	status.Store(http.StatusBadGateway)
	_, err = svc.Refresh(context.Background())
	require.Error(t, err)

	entries, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestList_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
		}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(releasesBody))
	}))
	t.Cleanup(srv.Close)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx)
		firstErr <- err
	}()
	<-entered
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		entries []changelog.Entry
		err     error
	}
	second := make(chan result, 1)
	go func() {
		entries, err := svc.List(context.Background())
		second <- result{entries, err}
	}()
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Len(t, got.entries, 2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestList_UpstreamFailure(t *testing.T) {
	var hits atomic.Int32
	srv := newGitHub(t, http.StatusForbidden, `{"message":"rate limited"}`, &hits)
	svc := changelog.NewService(srv.URL, "redline/site", "", time.Minute, srv.Client())

	entries, err := svc.List(context.Background())

	assert.Nil(t, entries)
	var up *changelog.UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, http.StatusForbidden, changelog.StatusCode(err))

	// Failures are not cached.
	_, _ = svc.List(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestList_NotConfigured(t *testing.T) {
	svc := changelog.NewService("https://api.github.com", "", "", time.Minute, nil)

	_, err := svc.List(context.Background())

	assert.ErrorIs(t, err, changelog.ErrNotConfigured)
	assert.Equal(t, http.StatusInternalServerError, changelog.StatusCode(err))
}
