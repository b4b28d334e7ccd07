package recruitment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-rp/portal/internal/recruitment"
)

func newBackend(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/site/recruitment/status", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("user_id"))
		assert.Equal(t, "recruit-key", r.Header.Get("X-API-Key"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want recruitment.Membership
	}{
		{
			name: "approved practical",
			body: `{"userStatus":{"status":"APPROVED_PRACTICAL"},"isSpecial":false}`,
			want: recruitment.Membership{Status: recruitment.StatusApprovedPractical, IsMember: true},
		},
		{
			name: "approved",
			body: `{"userStatus":{"status":"APPROVED"},"isSpecial":false}`,
			want: recruitment.Membership{Status: recruitment.StatusApproved, IsMember: true},
		},
		{
			name: "pending but special",
			body: `{"userStatus":{"status":"PENDING"},"isSpecial":true}`,
			want: recruitment.Membership{Status: recruitment.StatusPending, IsSpecial: true},
		},
		{
			name: "rejected",
			body: `{"userStatus":{"status":"REJECTED"},"isSpecial":false}`,
			want: recruitment.Membership{Status: recruitment.StatusRejected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, tt.body)
			c := recruitment.NewClient(srv.URL, "recruit-key", srv.Client())

			got, err := c.Status(context.Background(), "42")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_ServerErrorFailsClosed(t *testing.T) {
	srv := newBackend(t, http.StatusInternalServerError, `{"error":"boom"}`)
	c := recruitment.NewClient(srv.URL, "recruit-key", srv.Client())

	got, err := c.Status(context.Background(), "42")

	assert.ErrorIs(t, err, recruitment.ErrUpstream)
	assert.Equal(t, recruitment.Membership{}, got)
	assert.False(t, got.IsMember)
	assert.False(t, got.IsSpecial)
}

func TestStatus_MalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":  `<html>`,
		"truncated": `{"userStatus":{"status":`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, body)
			c := recruitment.NewClient(srv.URL, "recruit-key", srv.Client())

			got, err := c.Status(context.Background(), "42")

			assert.ErrorIs(t, err, recruitment.ErrMalformed)
			assert.Equal(t, recruitment.Membership{}, got)
		})
	}
}

func TestStatus_SpecialWithoutApplication(t *testing.T) {
	for name, tt := range map[string]struct {
		body string
		want recruitment.Membership
	}{
		"null userStatus":    {`{"userStatus":null,"isSpecial":true}`, recruitment.Membership{Status: recruitment.StatusNone, IsSpecial: true}},
		"missing userStatus": {`{"isSpecial":true}`, recruitment.Membership{Status: recruitment.StatusNone, IsSpecial: true}},
		"nothing on record":  {`{"isSpecial":false}`, recruitment.Membership{Status: recruitment.StatusNone}},
	} {
		t.Run(name, func(t *testing.T) {
			srv := newBackend(t, http.StatusOK, tt.body)
			c := recruitment.NewClient(srv.URL, "recruit-key", srv.Client())

			got, err := c.Status(context.Background(), "42")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, got.IsMember)
		})
	}
}

func TestStatus_NotConfigured(t *testing.T) {
	c := recruitment.NewClient("", "", nil)

	got, err := c.Status(context.Background(), "42")

	assert.ErrorIs(t, err, recruitment.ErrNotConfigured)
	assert.Equal(t, recruitment.Membership{}, got)
}

func TestStatus_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := recruitment.NewClient(url, "recruit-key", nil)

	got, err := c.Status(context.Background(), "42")

	assert.Error(t, err)
	assert.Equal(t, recruitment.Membership{}, got)
}
