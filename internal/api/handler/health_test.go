package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redline-rp/portal/internal/api/handler"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         handler.DBPinger
		wantStatus string
		wantDB     interface{}
	}{
		{name: "no database", db: nil, wantStatus: "healthy", wantDB: nil},
		{name: "database up", db: &mockPinger{}, wantStatus: "healthy", wantDB: map[string]interface{}{"connected": true}},
		{name: "database down", db: &mockPinger{err: errors.New("refused")}, wantStatus: "degraded", wantDB: map[string]interface{}{"connected": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.db, "1.4.2", handler.Features{OAuth: true})
			w := httptest.NewRecorder()

			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			data := decodeEnvelope(t, w)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantStatus, data["status"])
			assert.Equal(t, "1.4.2", data["version"])
			assert.Equal(t, tt.wantDB, data["database"])
			assert.Equal(t, true, data["features"].(map[string]interface{})["oauth"])
		})
	}
}
