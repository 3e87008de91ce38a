package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/memory"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var (
	student1 = shared.NewActor("student-1", shared.RoleStudent)
	teacher  = shared.NewActor("teacher-1", shared.RoleTeacher)
	admin    = shared.NewActor("admin-1", shared.RoleAdmin)
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newDeps(now string) (Deps, *recordingPublisher) {
	pub := &recordingPublisher{}
	return Deps{Publisher: pub, Clock: timeutil.FixedClock(day(now))}, pub
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION
// ══════════════════════════════════════════════════════════════════════════════

func TestEnsureProgression(t *testing.T) {
	store := memory.NewStore()
	deps, _ := newDeps("2025-01-10")
	h := NewEnsureProgressionHandler(store.Progressions(), deps)

	first, err := h.Handle(context.Background(), EnsureProgressionCommand{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, schedule.Phase1, first.CurrentPhase)

	second, err := h.Handle(context.Background(), EnsureProgressionCommand{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = h.Handle(context.Background(), EnsureProgressionCommand{})
	assert.True(t, shared.IsValidation(err))
}

func TestSetMilestoneCompletion_StampIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, pub := newDeps("2025-01-10")
	h := NewSetMilestoneCompletionHandler(store.Progressions(), store.Catalog(), deps)

	cmd := SetMilestoneCompletionCommand{StudentID: "student-1", MilestoneID: "ms-cw1", Completed: true}
	res, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.NotNil(t, res.Progress.CompletedAt)
	stamp := *res.Progress.CompletedAt

	later, _ := newDeps("2025-01-15")
	h2 := NewSetMilestoneCompletionHandler(store.Progressions(), store.Catalog(), Deps{Publisher: pub, Clock: later.Clock})
	res, err = h2.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, stamp, *res.Progress.CompletedAt)

	assert.Equal(t, []shared.EventType{shared.EventMilestoneCompleted}, pub.types())

	cmd.Completed = false
	res, err = h2.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Nil(t, res.Progress.CompletedAt)
}

func TestSetMilestoneCompletion_ConcurrentCompletesPublishOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, pub := newDeps("2025-01-10")
	h := NewSetMilestoneCompletionHandler(store.Progressions(), store.Catalog(), deps)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	changed := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.Handle(ctx, SetMilestoneCompletionCommand{StudentID: "student-1", MilestoneID: "ms-cw1", Completed: true})
			if !assert.NoError(t, err) {
				return
			}
			if res.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changed)
	assert.Equal(t, []shared.EventType{shared.EventMilestoneCompleted}, pub.types())
}

func TestSetMilestoneCompletion_UnknownMilestone(t *testing.T) {
	store := memory.NewStore()
	deps, pub := newDeps("2025-01-10")
	h := NewSetMilestoneCompletionHandler(store.Progressions(), store.Catalog(), deps)

	_, err := h.Handle(context.Background(), SetMilestoneCompletionCommand{StudentID: "student-1", MilestoneID: "ms-unknown", Completed: true})
	assert.True(t, shared.IsValidation(err))
	assert.Empty(t, pub.types())

	// Nothing was created for the student.
	_, err = store.Progressions().GetByStudent(context.Background(), "student-1")
	assert.True(t, shared.IsNotFound(err))
}

// seedGroup stores a student in group-1 with the 2025 phase windows.
func seedGroup(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	dir := store.Directory()
	require.NoError(t, dir.SaveGroup(ctx, &student.CareerGroup{ID: "group-1", Name: "FE24"}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "student-1", Name: "Alva", CareerGroupID: "group-1"}))

	windows := []struct {
		phase      schedule.Phase
		start, end [3]int
	}{
		{schedule.Phase1, [3]int{2025, 1, 13}, [3]int{2025, 2, 28}},
		{schedule.Phase2, [3]int{2025, 3, 1}, [3]int{2025, 4, 30}},
		{schedule.Phase3, [3]int{2025, 5, 1}, [3]int{2025, 6, 30}},
	}
	for _, w := range windows {
		ps, err := schedule.NewPhaseSchedule("group-1", w.phase,
			timeutil.Date(w.start[0], w.start[1], w.start[2]),
			timeutil.Date(w.end[0], w.end[1], w.end[2]), nil)
		require.NoError(t, err)
		require.NoError(t, store.Schedules().Upsert(ctx, ps))
	}
}

func newAdvanceHandler(store *memory.Store, features *config.FeatureFlags, deps Deps) *AdvancePhaseHandler {
	return NewAdvancePhaseHandler(store.Progressions(), store.Schedules(), store.Directory(), features, nil, deps)
}

func TestAdvancePhase_Allowed(t *testing.T) {
	store := memory.NewStore()
	seedGroup(t, store)
	deps, pub := newDeps("2025-03-05")
	h := newAdvanceHandler(store, nil, deps)

	res, err := h.Handle(context.Background(), AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase2})
	require.NoError(t, err)
	assert.Equal(t, schedule.Phase1, res.From)
	assert.Equal(t, schedule.Phase2, res.Progression.CurrentPhase)
	assert.Equal(t, progression.DecisionAllow, res.Verdict.Decision)
	assert.Equal(t, []shared.EventType{shared.EventPhaseAdvanced}, pub.types())
}

func TestAdvancePhase_RejectsNotStartedAndMissing(t *testing.T) {
	store := memory.NewStore()
	seedGroup(t, store)
	deps, pub := newDeps("2025-03-05")
	h := newAdvanceHandler(store, nil, deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase3})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase4})
	assert.True(t, shared.IsValidation(err))

	p, err := store.Progressions().GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, schedule.Phase1, p.CurrentPhase)
	assert.Empty(t, pub.types())
}

func TestAdvancePhase_AdminOverrideIsFlagged(t *testing.T) {
	store := memory.NewStore()
	seedGroup(t, store)
	deps, pub := newDeps("2025-03-05")
	h := newAdvanceHandler(store, nil, deps)
	ctx := context.Background()

	_, err := h.Handle(ctx, AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase3, Override: true})
	assert.True(t, shared.IsForbidden(err))

	res, err := h.Handle(ctx, AdvancePhaseCommand{Actor: admin, StudentID: "student-1", Target: schedule.Phase3, Override: true})
	require.NoError(t, err)
	assert.Equal(t, progression.DecisionFlag, res.Verdict.Decision)
	assert.Equal(t, schedule.Phase3, res.Progression.CurrentPhase)
	assert.Equal(t, []shared.EventType{shared.EventPhaseFlagged}, pub.types())
}

func TestAdvancePhase_BackwardDependsOnStrictFlag(t *testing.T) {
	ctx := context.Background()

	run := func(features *config.FeatureFlags) (*AdvancePhaseResult, error) {
		store := memory.NewStore()
		seedGroup(t, store)
		deps, _ := newDeps("2025-03-05")
		h := newAdvanceHandler(store, features, deps)
		_, err := h.Handle(ctx, AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase2})
		require.NoError(t, err)
		return h.Handle(ctx, AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase1})
	}

	res, err := run(config.LoadFeatureFlags(nil))
	require.NoError(t, err)
	assert.Equal(t, progression.DecisionFlag, res.Verdict.Decision)

	strict := config.LoadFeatureFlags(map[string]bool{config.FeatureStrictPhaseOrder: true})
	_, err = run(strict)
	assert.True(t, shared.IsValidation(err))
}

func TestAdvancePhase_StaffOnly(t *testing.T) {
	store := memory.NewStore()
	seedGroup(t, store)
	deps, _ := newDeps("2025-03-05")
	h := newAdvanceHandler(store, nil, deps)

	_, err := h.Handle(context.Background(), AdvancePhaseCommand{Actor: student1, StudentID: "student-1", Target: schedule.Phase2})
	assert.True(t, shared.IsForbidden(err))

	_, err = h.Handle(context.Background(), AdvancePhaseCommand{Actor: teacher, StudentID: "student-1", Target: schedule.Phase("PHASE_9")})
	assert.True(t, shared.IsValidation(err))
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADS
// ══════════════════════════════════════════════════════════════════════════════

func TestCreateLead_ConcurrentDuplicates(t *testing.T) {
	store := memory.NewStore()
	deps, _ := newDeps("2025-02-01")
	h := NewCreateLeadHandler(store.Leads(), deps)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), CreateLeadCommand{StudentID: "student-1", CompanyID: "company-1"})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if shared.IsConflict(err) {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestCreateLead_Validation(t *testing.T) {
	store := memory.NewStore()
	deps, _ := newDeps("2025-02-01")
	h := NewCreateLeadHandler(store.Leads(), deps)

	_, err := h.Handle(context.Background(), CreateLeadCommand{StudentID: "student-1"})
	assert.True(t, shared.IsValidation(err))

	l, err := h.Handle(context.Background(), CreateLeadCommand{StudentID: "student-1", CompanyID: "company-1"})
	require.NoError(t, err)
	assert.Equal(t, lead.StatusNew, l.Status)
	assert.Zero(t, l.ContactAttempts)
}

func TestUpdateLead_OwnershipAndAttempts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, pub := newDeps("2025-02-01")
	create := NewCreateLeadHandler(store.Leads(), deps)
	update := NewUpdateLeadHandler(store.Leads(), deps)
	del := NewDeleteLeadHandler(store.Leads(), deps)

	l, err := create.Handle(ctx, CreateLeadCommand{StudentID: "student-1", CompanyID: "company-1"})
	require.NoError(t, err)

	inDialog := lead.StatusInDialog
	_, err = update.Handle(ctx, UpdateLeadCommand{LeadID: l.ID, StudentID: "student-2", Patch: lead.Patch{Status: &inDialog}})
	assert.True(t, shared.IsNotFound(err))

	// A blank or unknown lead ID looks the same as someone else's lead.
	_, otherErr := update.Handle(ctx, UpdateLeadCommand{LeadID: "", StudentID: "student-2", Patch: lead.Patch{Status: &inDialog}})
	assert.True(t, shared.IsNotFound(otherErr))
	assert.ErrorIs(t, otherErr, shared.ErrLeadNotFound)
	_, err = update.Handle(ctx, UpdateLeadCommand{LeadID: "lead-missing", StudentID: "student-2", Patch: lead.Patch{Status: &inDialog}})
	assert.ErrorIs(t, err, shared.ErrLeadNotFound)
	assert.True(t, shared.IsNotFound(del.Handle(ctx, DeleteLeadCommand{LeadID: "", StudentID: "student-2"})))

	updated, err := update.Handle(ctx, UpdateLeadCommand{LeadID: l.ID, StudentID: "student-1", Patch: lead.Patch{Status: &inDialog}})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ContactAttempts)
	require.NotNil(t, updated.LastContactAt)

	notes := "sent CV"
	updated, err = update.Handle(ctx, UpdateLeadCommand{LeadID: l.ID, StudentID: "student-1", Patch: lead.Patch{Notes: &notes}})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ContactAttempts)

	bogus := lead.Status("WARM")
	_, err = update.Handle(ctx, UpdateLeadCommand{LeadID: l.ID, StudentID: "student-1", Patch: lead.Patch{Status: &bogus}})
	assert.True(t, shared.IsValidation(err))

	assert.True(t, shared.IsNotFound(del.Handle(ctx, DeleteLeadCommand{LeadID: l.ID, StudentID: "student-2"})))
	require.NoError(t, del.Handle(ctx, DeleteLeadCommand{LeadID: l.ID, StudentID: "student-1"}))

	assert.Equal(t, []shared.EventType{
		shared.EventLeadCreated,
		shared.EventLeadStatusChanged,
		shared.EventLeadDeleted,
	}, pub.types())
}

// ══════════════════════════════════════════════════════════════════════════════
// PLACEMENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestCreatePlacement_DuplicateKeepsFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, _ := newDeps("2025-04-01")
	h := NewCreatePlacementHandler(store.Placements(), deps)

	first, err := h.Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-1", Supervisor: "Anna"}})
	require.NoError(t, err)
	assert.Equal(t, placement.StatusPending, first.Status)

	_, err = h.Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-2", Supervisor: "Bo"}})
	assert.True(t, shared.IsConflict(err))

	stored, err := store.Placements().GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "company-1", stored.CompanyID)

	_, err = h.Handle(ctx, CreatePlacementCommand{StudentID: "student-2",
		Details: placement.Details{CompanyID: "company-1"}})
	assert.True(t, shared.IsValidation(err))
}

func TestReviewPlacement_Roles(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, pub := newDeps("2025-04-01")
	create := NewCreatePlacementHandler(store.Placements(), deps)
	review := NewReviewPlacementHandler(store.Placements(), deps)
	del := NewDeletePlacementHandler(store.Placements(), deps)

	p, err := create.Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-1", Supervisor: "Anna"}})
	require.NoError(t, err)

	approved := placement.StatusApproved
	_, err = review.Handle(ctx, ReviewPlacementCommand{PlacementID: p.ID, Actor: student1, Patch: placement.ReviewPatch{Status: &approved}})
	assert.True(t, shared.IsForbidden(err))

	reviewed, err := review.Handle(ctx, ReviewPlacementCommand{PlacementID: p.ID, Actor: teacher, Patch: placement.ReviewPatch{Status: &approved}})
	require.NoError(t, err)
	assert.Equal(t, placement.StatusApproved, reviewed.Status)

	_, err = review.Handle(ctx, ReviewPlacementCommand{PlacementID: "missing", Actor: teacher, Patch: placement.ReviewPatch{Status: &approved}})
	assert.True(t, shared.IsNotFound(err))

	assert.True(t, shared.IsForbidden(del.Handle(ctx, DeletePlacementCommand{PlacementID: p.ID, Actor: teacher})))
	require.NoError(t, del.Handle(ctx, DeletePlacementCommand{PlacementID: p.ID, Actor: admin}))

	assert.Equal(t, []shared.EventType{
		shared.EventPlacementRegistered,
		shared.EventPlacementStatusChanged,
		shared.EventPlacementDeleted,
	}, pub.types())
}

func TestUpdateOwnPlacement_NeverTouchesStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, _ := newDeps("2025-04-01")
	create := NewCreatePlacementHandler(store.Placements(), deps)
	review := NewReviewPlacementHandler(store.Placements(), deps)
	own := NewUpdateOwnPlacementHandler(store.Placements(), deps)

	p, err := create.Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-1", Supervisor: "Anna"}})
	require.NoError(t, err)

	active := placement.StatusActive
	_, err = review.Handle(ctx, ReviewPlacementCommand{PlacementID: p.ID, Actor: admin, Patch: placement.ReviewPatch{Status: &active}})
	require.NoError(t, err)

	supervisor := "Bo Ek"
	email := "bo@example.se"
	updated, err := own.Handle(ctx, UpdateOwnPlacementCommand{StudentID: "student-1",
		Patch: placement.DetailsPatch{Supervisor: &supervisor, SupervisorEmail: &email}})
	require.NoError(t, err)
	assert.Equal(t, "Bo Ek", updated.Supervisor)
	assert.Equal(t, placement.StatusActive, updated.Status)

	_, err = own.Handle(ctx, UpdateOwnPlacementCommand{StudentID: "student-9", Patch: placement.DetailsPatch{Supervisor: &supervisor}})
	assert.True(t, shared.IsNotFound(err))
}

// reviewFirstRepo commits a staff decision right before the student's edit
// reaches storage.
type reviewFirstRepo struct {
	placement.Repository
	before func()
}

func (r *reviewFirstRepo) UpdateDetails(ctx context.Context, studentID string, patch placement.DetailsPatch, now time.Time) (*placement.Placement, error) {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return r.Repository.UpdateDetails(ctx, studentID, patch, now)
}

func TestUpdateOwnPlacement_KeepsConcurrentStaffDecision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, pub := newDeps("2025-04-01")

	p, err := NewCreatePlacementHandler(store.Placements(), deps).Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-1", Supervisor: "Anna"}})
	require.NoError(t, err)

	review := NewReviewPlacementHandler(store.Placements(), deps)
	repo := &reviewFirstRepo{Repository: store.Placements()}
	repo.before = func() {
		rejected := placement.StatusRejected
		_, err := review.Handle(ctx, ReviewPlacementCommand{PlacementID: p.ID, Actor: admin, Patch: placement.ReviewPatch{Status: &rejected}})
		require.NoError(t, err)
	}

	supervisor := "Bo Ek"
	updated, err := NewUpdateOwnPlacementHandler(repo, deps).Handle(ctx, UpdateOwnPlacementCommand{StudentID: "student-1",
		Patch: placement.DetailsPatch{Supervisor: &supervisor}})
	require.NoError(t, err)
	assert.Equal(t, "Bo Ek", updated.Supervisor)
	assert.Equal(t, placement.StatusRejected, updated.Status)

	stored, err := store.Placements().GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, placement.StatusRejected, stored.Status)
	assert.Equal(t, "Bo Ek", stored.Supervisor)

	assert.Equal(t, []shared.EventType{
		shared.EventPlacementRegistered,
		shared.EventPlacementStatusChanged,
	}, pub.types())
}

func TestUpdateOwnPlacement_RejectsEndBeforeStoredStart(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	deps, _ := newDeps("2025-04-01")

	start := day("2025-06-01")
	_, err := NewCreatePlacementHandler(store.Placements(), deps).Handle(ctx, CreatePlacementCommand{StudentID: "student-1",
		Details: placement.Details{CompanyID: "company-1", Supervisor: "Anna", StartDate: &start}})
	require.NoError(t, err)

	end := day("2025-05-01")
	_, err = NewUpdateOwnPlacementHandler(store.Placements(), deps).Handle(ctx, UpdateOwnPlacementCommand{StudentID: "student-1",
		Patch: placement.DetailsPatch{EndDate: &end}})
	assert.True(t, shared.IsValidation(err))

	stored, err := store.Placements().GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Nil(t, stored.EndDate)
}
