// Package jobs contains implementations of scheduled jobs for the career hub.
package jobs

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/metrics"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// DeadlineReminderJobName is the scheduler name of the reminder run.
const DeadlineReminderJobName = "deadline_reminders"

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReminderSource computes the reminders due at a moment.
type ReminderSource interface {
	Handle(ctx context.Context, now time.Time) ([]schedule.Reminder, error)
}

// DeadlineReminderJob delivers the 7-day and 1-day phase deadline reminders.
// It runs daily from the scheduler and on demand from the cron endpoint.
type DeadlineReminderJob struct {
	source   ReminderSource
	channel  notification.Channel
	features *config.FeatureFlags
	logger   *logger.Logger
	clock    timeutil.Clock

	lastRun atomic.Value // *ReminderRunSummary
}

// SentReminder describes one delivered reminder.
type SentReminder struct {
	StudentName string
	Phase       schedule.Phase
	DaysLeft    int
}

// ReminderRunSummary contains statistics from one run.
type ReminderRunSummary struct {
	StartedAt     time.Time
	Duration      time.Duration
	Due           int
	Sent          int
	Failed        int
	Skipped       int
	Notifications []SentReminder
}

// NewDeadlineReminderJob creates the job.
func NewDeadlineReminderJob(
	source ReminderSource,
	channel notification.Channel,
	features *config.FeatureFlags,
	log *logger.Logger,
	clock timeutil.Clock,
) *DeadlineReminderJob {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &DeadlineReminderJob{
		source:   source,
		channel:  channel,
		features: features,
		logger:   log.With(logger.String("job", DeadlineReminderJobName)),
		clock:    clock,
	}
}

// Name implements scheduler.Job.
func (j *DeadlineReminderJob) Name() string { return DeadlineReminderJobName }

// Description implements scheduler.Job.
func (j *DeadlineReminderJob) Description() string {
	return "Sends phase deadline reminders 7 days and 1 day ahead"
}

// Run implements scheduler.Job.
func (j *DeadlineReminderJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

// Execute computes due reminders and delivers them one by one.
// A failed delivery is counted and does not stop the run.
func (j *DeadlineReminderJob) Execute(ctx context.Context) (*ReminderRunSummary, error) {
	now := j.clock()
	summary := &ReminderRunSummary{StartedAt: now, Notifications: make([]SentReminder, 0)}
	started := time.Now()

	reminders, err := j.source.Handle(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DeadlineReminderJobName, err)
	}
	summary.Due = len(reminders)

	for _, r := range reminders {
		if err := ctx.Err(); err != nil {
			j.logger.Warn("reminder run interrupted", logger.Int("remaining", summary.Due-summary.Sent-summary.Failed-summary.Skipped))
			break
		}
		if !j.features.IsEnabled(config.FeatureNotifyDeadlines, &config.FeatureContext{CareerGroupID: r.CareerGroupID}) {
			summary.Skipped++
			continue
		}

		res := j.channel.Send(ctx, notification.NewDeadlineReminder(r, now))
		if !res.Success {
			summary.Failed++
			metrics.RecordReminder(strconv.Itoa(r.DaysLeft), "failed")
			j.logger.Warn("deadline reminder not delivered",
				logger.StudentID(r.StudentID),
				logger.Phase(r.Phase.String()),
				logger.Err(res.Error),
			)
			continue
		}

		summary.Sent++
		summary.Notifications = append(summary.Notifications, SentReminder{
			StudentName: r.StudentName,
			Phase:       r.Phase,
			DaysLeft:    r.DaysLeft,
		})
		metrics.RecordReminder(strconv.Itoa(r.DaysLeft), "sent")
	}

	summary.Duration = time.Since(started)
	j.lastRun.Store(summary)

	j.logger.Info("deadline reminders processed",
		logger.Int("due", summary.Due),
		logger.Int("sent", summary.Sent),
		logger.Int("failed", summary.Failed),
		logger.Int("skipped", summary.Skipped),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// LastRun returns the summary of the most recent run, or nil.
func (j *DeadlineReminderJob) LastRun() *ReminderRunSummary {
	if s, ok := j.lastRun.Load().(*ReminderRunSummary); ok {
		return s
	}
	return nil
}
