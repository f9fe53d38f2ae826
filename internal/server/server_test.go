package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", GetRealIP(req, false))
	assert.Equal(t, "203.0.113.7", GetRealIP(req, true))
}

func TestAdminAuthMiddleware(t *testing.T) {
	handler := AdminAuthMiddleware("secret", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/servers", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Authorization", "Bearer secret")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// newTestServer builds a Server with just enough state for handler tests;
// no workers run, so queued jobs stay observable in the channel.
func newTestServer() *Server {
	return &Server{
		maxBody:      512,
		softLimitDur: time.Minute,
		queue:        make(chan registerJob, 4),
		shutdown:     make(chan struct{}),
	}
}

func postRegister(s *Server, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/servers", strings.NewReader(body))
	req.RemoteAddr = "198.51.100.4:40000"
	s.handleRegister(rec, req)
	return rec
}

func TestHandleRegister_QueuesJob(t *testing.T) {
	s := newTestServer()

	rec := postRegister(s, `{"ip":"203.0.113.9","port":27016}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case job := <-s.queue:
		assert.Equal(t, "203.0.113.9", job.IP)
		assert.Equal(t, 27016, job.Port)
	default:
		t.Fatal("expected a queued job")
	}
}

// Without an explicit IP the client registers itself, and port 0 falls
// back to the default query port.
func TestHandleRegister_Defaults(t *testing.T) {
	s := newTestServer()

	rec := postRegister(s, `{"port":0}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	job := <-s.queue
	assert.Equal(t, "198.51.100.4", job.IP)
	assert.Equal(t, 27015, job.Port)
}

func TestHandleRegister_Invalid(t *testing.T) {
	s := newTestServer()

	assert.Equal(t, http.StatusBadRequest, postRegister(s, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postRegister(s, `{"port":70000}`).Code)
	assert.Equal(t, http.StatusBadRequest, postRegister(s, `{"ip":"not-an-ip","port":27015}`).Code)
	assert.Len(t, s.queue, 0)
}

// A repeat registration inside the soft-limit window is acknowledged but
// not queued again.
func TestHandleRegister_SoftLimit(t *testing.T) {
	s := newTestServer()

	first := postRegister(s, `{"ip":"203.0.113.9","port":27016}`)
	require.Equal(t, http.StatusAccepted, first.Code)

	second := postRegister(s, `{"ip":"203.0.113.9","port":27016}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, s.queue, 1)
}
