package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/infrastructure/scheduler/jobs"
	"github.com/chas-career/career-hub/internal/interface/http/handlers"
)

type stubTrigger struct {
	calls   int
	summary *jobs.ReminderRunSummary
	err     error
}

func (t *stubTrigger) Execute(context.Context) (*jobs.ReminderRunSummary, error) {
	t.calls++
	return t.summary, t.err
}

func newTestServer(t *testing.T, secret string, trigger handlers.ReminderTrigger, health handlers.HealthChecker) http.Handler {
	t.Helper()
	cfg := config.HTTPConfig{Port: 0}
	if secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
		require.NoError(t, err)
		cfg.CronSecretHash = string(hash)
	}
	return NewServer(cfg, Dependencies{Reminders: trigger, Health: health}).Handler()
}

func sampleSummary() *jobs.ReminderRunSummary {
	return &jobs.ReminderRunSummary{
		Due:  2,
		Sent: 2,
		Notifications: []jobs.SentReminder{
			{StudentName: "Alva", Phase: schedule.Phase1, DaysLeft: 7},
			{StudentName: "Bertil", Phase: schedule.Phase1, DaysLeft: 7},
		},
	}
}

func TestCronReminders_ResponseShape(t *testing.T) {
	trigger := &stubTrigger{summary: sampleSummary()}
	srv := newTestServer(t, "", trigger, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cron/reminders", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body handlers.ReminderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Sent)
	require.Len(t, body.Notifications, 2)
	assert.Equal(t, handlers.ReminderNotice{StudentName: "Alva", Phase: "Fas 1", DaysLeft: 7}, body.Notifications[0])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCronReminders_BearerSecret(t *testing.T) {
	trigger := &stubTrigger{summary: sampleSummary()}
	srv := newTestServer(t, "s3cret", trigger, nil)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"valid secret", "Bearer s3cret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cron/reminders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, 1, trigger.calls, "only the authorized call runs the job")
}

func TestCronReminders_JobFailure(t *testing.T) {
	srv := newTestServer(t, "", &stubTrigger{err: errors.New("db down")}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cron/reminders", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to process reminders")
}

func TestHealthAndReady(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("postgres", func(context.Context) error { return nil })
	srv := newTestServer(t, "", nil, checker)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: redis", status.Message)
	assert.True(t, status.Checks["postgres"].Healthy)
}

func TestCronRoute_AbsentWithoutTrigger(t *testing.T) {
	srv := newTestServer(t, "", nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cron/reminders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "", nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
