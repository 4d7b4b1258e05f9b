package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
)

func newTestHandler() (*Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Handler{
		Logger:   zap.New(core),
		ClientIP: func(r *http.Request) string { return "203.0.113.7" },
	}, logs
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", models.NewValidationError("Email is required"), http.StatusBadRequest, "Email is required"},
		{"not found", models.NewNotFoundError("User not found"), http.StatusNotFound, "User not found"},
		{"state conflict", models.NewStateConflictError("Email is already verified"), http.StatusBadRequest, "Email is already verified"},
		{"auth", models.NewAuthError("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{"delivery", models.NewDeliveryError("Failed to send email", errors.New("smtp down")), http.StatusInternalServerError, "Failed to send email"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHandler()
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodPost, "/x", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeBody(t, rec)
			assert.Equal(t, tc.msg, body["error"])
			assert.NotContains(t, body, "remainingAttempts")
			assert.NotContains(t, body, "remainingSeconds")
		})
	}
}

func TestWriteErrorRemainingFields(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodPost, "/api/auth/resend-otp", nil),
		models.NewRateLimitError("Please wait before requesting a new code").WithRemainingSeconds(42))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.EqualValues(t, 42, decodeBody(t, rec)["remainingSeconds"])

	rec = httptest.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", nil),
		models.NewValidationError("Invalid OTP").WithRemainingAttempts(0))
	body := decodeBody(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body, "remainingAttempts")
	assert.EqualValues(t, 0, body["remainingAttempts"])
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestWriteErrorLogsServerFailures(t *testing.T) {
	h, logs := newTestHandler()

	h.writeError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil), models.NewNotFoundError("nope"))
	assert.Zero(t, logs.Len())

	h.writeError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil),
		models.NewInternalError("Failed to fetch packages", errors.New("mongo timeout")))
	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "internal", entries[0].ContextMap()["kind"])
	assert.Equal(t, "internal: Failed to fetch packages (mongo timeout)", entries[0].ContextMap()["error"])
}

func TestDecode(t *testing.T) {
	h, _ := newTestHandler()

	var dst emailRequest
	rec := httptest.NewRecorder()
	ok := h.decode(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"email":"a@x.com"}`)), &dst)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", dst.Email)

	oversized := `{"email":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	cases := []struct {
		input string
		msg   string
	}{
		{"", "Request body is required"},
		{"{not json", "Invalid request body"},
		{oversized, "Request body too large"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		ok := h.decode(rec, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tc.input)), &dst)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, tc.msg, decodeBody(t, rec)["error"])
	}
}

func TestQueryInt64(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?page=3&limit=abc", nil)
	assert.Equal(t, int64(3), queryInt64(r, "page"))
	assert.Zero(t, queryInt64(r, "limit"))
	assert.Zero(t, queryInt64(r, "missing"))
}

func TestHealth(t *testing.T) {
	h, logs := newTestHandler()
	h.Checks = map[string]HealthCheck{
		"mongo": func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return nil },
	}

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{"mongo": "up", "redis": "up"}, body["dependencies"])

	h.Checks["postgres"] = func(ctx context.Context) error { return errors.New("connection refused") }
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "down", body["dependencies"].(map[string]interface{})["postgres"])
	assert.Equal(t, 1, logs.FilterMessage("health check failed").Len())
}

func TestMeWithoutClaims(t *testing.T) {
	h, _ := newTestHandler()
	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeUnblocker struct {
	blocked   map[string]bool
	unblocked []string
	err       error
}

func (f *fakeUnblocker) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	return f.blocked[ip], f.err
}

func (f *fakeUnblocker) UnblockIP(ctx context.Context, ip string) error {
	f.unblocked = append(f.unblocked, ip)
	delete(f.blocked, ip)
	return nil
}

func TestUnblockIP(t *testing.T) {
	h, logs := newTestHandler()
	unblocker := &fakeUnblocker{blocked: map[string]bool{"198.51.100.4": true}}
	h.Unblocker = unblocker

	call := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.UnblockIP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/unblock-ip"+query, nil))
		return rec
	}

	rec := call("")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "IP address is required", decodeBody(t, rec)["error"])

	rec = call("?ip=not-an-ip")
	assert.Equal(t, "Invalid IP address", decodeBody(t, rec)["error"])

	rec = call("?ip=192.0.2.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IP address is not currently blocked", decodeBody(t, rec)["message"])
	assert.Empty(t, unblocker.unblocked)

	rec = call("?ip=198.51.100.4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IP address unblocked", decodeBody(t, rec)["message"])
	assert.Equal(t, []string{"198.51.100.4"}, unblocker.unblocked)
	assert.Equal(t, 1, logs.FilterMessage("ip unblocked").Len())

	unblocker.err = errors.New("redis down")
	rec = call("?ip=198.51.100.4")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	h.Unblocker = nil
	rec = call("?ip=198.51.100.4")
	assert.Equal(t, "IP blocking is not enabled", decodeBody(t, rec)["error"])
}
