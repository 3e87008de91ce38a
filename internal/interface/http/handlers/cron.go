package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/chas-career/career-hub/internal/infrastructure/external/slack"
	"github.com/chas-career/career-hub/internal/infrastructure/scheduler/jobs"
	"github.com/chas-career/career-hub/pkg/logger"
)

// ReminderTrigger runs one reminder pass on demand.
type ReminderTrigger interface {
	Execute(ctx context.Context) (*jobs.ReminderRunSummary, error)
}

// ReminderNotice is one delivered reminder in the trigger response.
type ReminderNotice struct {
	StudentName string `json:"studentName"`
	Phase       string `json:"phase"`
	DaysLeft    int    `json:"daysLeft"`
}

// ReminderResponse is the body of a successful trigger call.
type ReminderResponse struct {
	Success       bool             `json:"success"`
	Sent          int              `json:"sent"`
	Notifications []ReminderNotice `json:"notifications"`
}

// CronHandler serves GET and POST /api/cron/reminders.
// Callers authenticate with "Authorization: Bearer <secret>" checked against
// a bcrypt hash. An empty hash disables the check.
type CronHandler struct {
	trigger    ReminderTrigger
	secretHash []byte
	log        *logger.Logger
}

// NewCronHandler creates a CronHandler.
func NewCronHandler(trigger ReminderTrigger, secretHash string, log *logger.Logger) *CronHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CronHandler{
		trigger:    trigger,
		secretHash: []byte(secretHash),
		log:        log.With(logger.Component("cron_handler")),
	}
}

// ServeHTTP implements http.Handler.
func (h *CronHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.trigger.Execute(r.Context())
	if err != nil {
		h.log.Error("manual reminder run failed", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to process reminders")
		return
	}

	resp := ReminderResponse{
		Success:       true,
		Sent:          summary.Sent,
		Notifications: make([]ReminderNotice, 0, len(summary.Notifications)),
	}
	for _, n := range summary.Notifications {
		resp.Notifications = append(resp.Notifications, ReminderNotice{
			StudentName: n.StudentName,
			Phase:       slack.PhaseLabel(n.Phase),
			DaysLeft:    n.DaysLeft,
		})
	}
	writeBody(w, http.StatusOK, resp)
}

func (h *CronHandler) authorized(r *http.Request) bool {
	if len(h.secretHash) == 0 {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(h.secretHash, []byte(token)) == nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeBody(w, status, map[string]string{"error": message})
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
