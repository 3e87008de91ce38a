package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/application/query"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/memory"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

type fakeChannel struct {
	mu     sync.Mutex
	sent   []*notification.Notification
	failOn string
}

func (c *fakeChannel) Name() string { return "fake" }

func (c *fakeChannel) Send(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n.StudentID == c.failOn {
		return notification.NewFailureResult("fake", errors.New("webhook down"), true)
	}
	c.sent = append(c.sent, n)
	return notification.NewSuccessResult("fake")
}

// seed creates two groups: group-1 with a Phase 1 deadline on 2025-02-28,
// group-2 with a Phase 2 deadline on 2025-02-25.
func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	dir := store.Directory()

	for _, g := range []string{"group-1", "group-2"} {
		require.NoError(t, dir.SaveGroup(ctx, &student.CareerGroup{ID: g, Name: g}))
	}
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "s-alva", Name: "Alva", CareerGroupID: "group-1"}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "s-bertil", Name: "Bertil", CareerGroupID: "group-1"}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "s-cecilia", Name: "Cecilia", CareerGroupID: "group-2"}))

	d1 := timeutil.Date(2025, 2, 28)
	ps1, err := schedule.NewPhaseSchedule("group-1", schedule.Phase1, timeutil.Date(2025, 1, 13), d1, &d1)
	require.NoError(t, err)
	require.NoError(t, store.Schedules().Upsert(ctx, ps1))

	d2 := timeutil.Date(2025, 2, 25)
	ps2, err := schedule.NewPhaseSchedule("group-2", schedule.Phase2, timeutil.Date(2025, 2, 1), d2, &d2)
	require.NoError(t, err)
	require.NoError(t, store.Schedules().Upsert(ctx, ps2))
	return store
}

func newJob(store *memory.Store, ch notification.Channel, features *config.FeatureFlags, now time.Time) *DeadlineReminderJob {
	source := query.NewDueRemindersHandler(store.Schedules(), store.Directory())
	return NewDeadlineReminderJob(source, ch, features, nil, timeutil.FixedClock(now))
}

func TestDeadlineReminderJob_SevenDaysAhead(t *testing.T) {
	store := seed(t)
	ch := &fakeChannel{}
	job := newJob(store, ch, config.LoadFeatureFlags(nil), timeutil.Date(2025, 2, 21))

	summary, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Due)
	assert.Equal(t, 2, summary.Sent)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, []SentReminder{
		{StudentName: "Alva", Phase: schedule.Phase1, DaysLeft: 7},
		{StudentName: "Bertil", Phase: schedule.Phase1, DaysLeft: 7},
	}, summary.Notifications)
	require.Len(t, ch.sent, 2)
	assert.Equal(t, notification.NotificationTypeDeadlineReminder, ch.sent[0].Type)
	assert.Same(t, summary, job.LastRun())
}

func TestDeadlineReminderJob_OneDayAhead(t *testing.T) {
	store := seed(t)
	ch := &fakeChannel{}
	job := newJob(store, ch, config.LoadFeatureFlags(nil), timeutil.Date(2025, 2, 24))

	summary, err := job.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Notifications, 1)
	assert.Equal(t, SentReminder{StudentName: "Cecilia", Phase: schedule.Phase2, DaysLeft: 1}, summary.Notifications[0])
}

func TestDeadlineReminderJob_NothingDue(t *testing.T) {
	store := seed(t)
	ch := &fakeChannel{}
	job := newJob(store, ch, config.LoadFeatureFlags(nil), timeutil.Date(2025, 2, 23))

	summary, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Due)
	assert.Empty(t, summary.Notifications)
	assert.Empty(t, ch.sent)
}

func TestDeadlineReminderJob_FailuresAreCounted(t *testing.T) {
	store := seed(t)
	ch := &fakeChannel{failOn: "s-alva"}
	job := newJob(store, ch, config.LoadFeatureFlags(nil), timeutil.Date(2025, 2, 21))

	summary, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "Bertil", summary.Notifications[0].StudentName)
}

func TestDeadlineReminderJob_FeatureDisabled(t *testing.T) {
	store := seed(t)
	ch := &fakeChannel{}
	features := config.LoadFeatureFlags(map[string]bool{config.FeatureNotifyDeadlines: false})
	job := newJob(store, ch, features, timeutil.Date(2025, 2, 21))

	summary, err := job.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, ch.sent)
}

type failingSource struct{}

func (failingSource) Handle(context.Context, time.Time) ([]schedule.Reminder, error) {
	return nil, errors.New("db down")
}

func TestDeadlineReminderJob_SourceError(t *testing.T) {
	job := NewDeadlineReminderJob(failingSource{}, &fakeChannel{}, nil, nil, nil)
	assert.Error(t, job.Run(context.Background()))
	assert.Nil(t, job.LastRun())
	assert.Equal(t, DeadlineReminderJobName, job.Name())
}
