package health

import (
	"adminpanel/internal/storage/storagetest"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingDB struct{}

func (failingDB) Ping(context.Context) error {
	return errors.New("connection refused")
}

func serve(t *testing.T, db DatabaseInterface, path string) (int, Status) {
	t.Helper()
	s := NewServer(db, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC) }
	router := mux.NewRouter()
	s.Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthHandlers(t *testing.T) {
	db := storagetest.New(t)

	tests := []struct {
		name       string
		db         DatabaseInterface
		path       string
		wantCode   int
		wantStatus string
	}{
		{name: "healthy", db: db, path: "/health", wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "ready", db: db, path: "/ready", wantCode: http.StatusOK, wantStatus: "ready"},
		{name: "live", db: db, path: "/live", wantCode: http.StatusOK, wantStatus: "alive"},
		{name: "unhealthy", db: failingDB{}, path: "/health", wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
		{name: "not ready", db: failingDB{}, path: "/ready", wantCode: http.StatusServiceUnavailable, wantStatus: "not ready"},
		{name: "live without database", db: failingDB{}, path: "/live", wantCode: http.StatusOK, wantStatus: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, tt.db, tt.path)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "2024-05-17T12:00:00Z", body.Timestamp)
			if tt.wantCode != http.StatusOK {
				assert.Contains(t, body.Error, "connection refused")
			}
		})
	}
}

func TestHealth_NilDatabase(t *testing.T) {
	code, body := serve(t, nil, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "database is not initialized", body.Error)
}
