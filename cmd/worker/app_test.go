package main

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/application/command"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/memory"
	"github.com/chas-career/career-hub/pkg/logger"
)

type capturingChannel struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func (c *capturingChannel) Name() string { return "capture" }

func (c *capturingChannel) Send(_ context.Context, n *notification.Notification) notification.DeliveryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return notification.NewSuccessResult("capture")
}

func (c *capturingChannel) types() []notification.NotificationType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notification.NotificationType, 0, len(c.sent))
	for _, n := range c.sent {
		out = append(out, n.Type)
	}
	return out
}

func memoryApp(t *testing.T, toggles map[string]bool) (*app, *capturingChannel) {
	t.Helper()
	mem := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, mem.Directory().SaveGroup(ctx, &student.CareerGroup{ID: "group-1", Name: "FSU24"}))
	require.NoError(t, mem.Directory().SaveStudent(ctx, &student.Student{ID: "student-1", Name: "Alva", CareerGroupID: "group-1"}))
	require.NoError(t, mem.Directory().SaveCompany(ctx, &student.Company{ID: "company-1", Name: "Spotify"}))

	st := &stores{}
	st.useMemory(mem)

	cfg := &config.Config{Features: config.LoadFeatureFlags(toggles)}
	sink := &capturingChannel{}
	a, err := buildApp(cfg, st, sink, logger.Nop(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, sink
}

func TestBuildApp_PlacementDecisionReachesChannel(t *testing.T) {
	a, sink := memoryApp(t, nil)
	ctx := context.Background()

	p, err := a.commands.CreatePlacement.Handle(ctx, command.CreatePlacementCommand{
		StudentID: "student-1",
		Details:   placement.Details{CompanyID: "company-1", Supervisor: "Anna"},
	})
	require.NoError(t, err)
	assert.Empty(t, sink.types(), "registration is not announced")

	approved := placement.StatusApproved
	_, err = a.commands.ReviewPlacement.Handle(ctx, command.ReviewPlacementCommand{
		PlacementID: p.ID,
		Actor:       shared.NewActor("teacher-1", shared.RoleTeacher),
		Patch:       placement.ReviewPatch{Status: &approved},
	})
	require.NoError(t, err)

	require.Equal(t, []notification.NotificationType{notification.NotificationTypePlacementDecision}, sink.types())
	assert.Equal(t, "Alva", sink.sent[0].StudentName)
	assert.True(t, sink.sent[0].Data.Approved)
}

func TestBuildApp_MilestoneCompletionFollowsFlag(t *testing.T) {
	ctx := context.Background()
	cmd := command.SetMilestoneCompletionCommand{StudentID: "student-1", MilestoneID: "ms-cw1", Completed: true}

	off, offSink := memoryApp(t, nil)
	_, err := off.commands.SetMilestoneCompletion.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Empty(t, offSink.types())

	on, onSink := memoryApp(t, map[string]bool{config.FeatureNotifyMilestones: true})
	_, err = on.commands.SetMilestoneCompletion.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, []notification.NotificationType{notification.NotificationTypeMilestoneCompleted}, onSink.types())
}
