package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

func TestProgressionRepo_GetOrCreateConverges(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Progressions()
	now := timeutil.Date(2025, 1, 10)

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := repo.GetOrCreate(ctx, "student-1", now)
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	p, err := repo.GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, schedule.Phase1, p.CurrentPhase)

	_, err = repo.GetByStudent(ctx, "student-2")
	assert.True(t, shared.IsNotFound(err))
}

func TestProgressionRepo_SetMilestoneCompletion(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Progressions()
	now := timeutil.Date(2025, 1, 10)
	later := timeutil.Date(2025, 1, 12)

	p, err := repo.GetOrCreate(ctx, "student-1", now)
	require.NoError(t, err)

	mp, changed, err := repo.SetMilestoneCompletion(ctx, p.ID, "ms-cw1", true, now)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, mp.CompletedAt)

	mp, changed, err = repo.SetMilestoneCompletion(ctx, p.ID, "ms-cw1", true, later)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, now, *mp.CompletedAt)

	mp, changed, err = repo.SetMilestoneCompletion(ctx, p.ID, "ms-cw1", false, later)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, mp.CompletedAt)

	_, _, err = repo.SetMilestoneCompletion(ctx, p.ID, "ms-nope", true, now)
	assert.True(t, shared.IsValidation(err))

	rows, err := repo.ListMilestoneProgress(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestProgressionRepo_SetCurrentPhase(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Progressions()
	now := timeutil.Date(2025, 1, 10)

	p, err := repo.GetOrCreate(ctx, "student-1", now)
	require.NoError(t, err)

	updated, err := repo.SetCurrentPhase(ctx, p.ID, schedule.Phase3, now)
	require.NoError(t, err)
	assert.Equal(t, schedule.Phase3, updated.CurrentPhase)

	_, err = repo.SetCurrentPhase(ctx, "missing", schedule.Phase2, now)
	assert.True(t, shared.IsNotFound(err))
}

func TestCatalogRepo_Ordered(t *testing.T) {
	catalog, err := NewStore().Catalog().ListMilestones(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, catalog)

	for i := 1; i < len(catalog); i++ {
		prev, cur := catalog[i-1], catalog[i]
		assert.LessOrEqual(t, prev.Phase.Order(), cur.Phase.Order())
		if prev.Phase == cur.Phase {
			assert.Less(t, prev.Position, cur.Position)
		}
	}
}

func TestScheduleRepo_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Schedules()

	deadline := timeutil.Date(2025, 3, 1)
	first, err := schedule.NewPhaseSchedule("group-1", schedule.Phase2, timeutil.Date(2025, 2, 1), timeutil.Date(2025, 3, 1), &deadline)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, first))

	second, err := schedule.NewPhaseSchedule("group-1", schedule.Phase2, timeutil.Date(2025, 2, 3), timeutil.Date(2025, 3, 5), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, "group-1", schedule.Phase2)
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2025, 2, 3), got.StartDate)
	assert.Nil(t, got.Deadline)

	_, err = repo.Get(ctx, "group-1", schedule.Phase4)
	assert.True(t, shared.IsNotFound(err))
}

func TestScheduleRepo_ListWithDeadlineBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Schedules()

	mk := func(group string, phase schedule.Phase, deadline *time.Time) {
		ps, err := schedule.NewPhaseSchedule(group, phase, timeutil.Date(2025, 1, 1), timeutil.Date(2025, 6, 1), deadline)
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, ps))
	}
	inside := timeutil.Date(2025, 3, 5)
	outside := timeutil.Date(2025, 3, 20)
	mk("group-1", schedule.Phase1, &inside)
	mk("group-2", schedule.Phase1, &outside)
	mk("group-3", schedule.Phase1, nil)

	got, err := repo.ListWithDeadlineBetween(ctx, timeutil.Date(2025, 3, 1), timeutil.Date(2025, 3, 8))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "group-1", got[0].CareerGroupID)

	all, err := repo.ListByGroup(ctx, "group-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLeadRepo_ConcurrentCreateOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Leads()
	now := timeutil.Date(2025, 2, 1)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, _ := lead.New("student-1", "company-1", nil, "", now)
			errs[i] = repo.Create(ctx, l)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case shared.IsConflict(err):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	exists, err := repo.ExistsForCompany(ctx, "student-1", "company-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLeadRepo_UpdateOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Leads()
	now := timeutil.Date(2025, 2, 1)

	l, err := lead.New("student-1", "company-1", nil, "", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, l))

	contacted := lead.StatusContacted
	patch := lead.Patch{Status: &contacted}

	_, _, err = repo.Update(ctx, l.ID, "student-2", patch, now)
	assert.True(t, shared.IsNotFound(err))

	updated, prev, err := repo.Update(ctx, l.ID, "student-1", patch, now)
	require.NoError(t, err)
	assert.Equal(t, lead.StatusNew, prev)
	assert.Equal(t, 1, updated.ContactAttempts)

	assert.True(t, shared.IsNotFound(repo.Delete(ctx, l.ID, "student-2")))
	require.NoError(t, repo.Delete(ctx, l.ID, "student-1"))

	// The pair is free again after delete.
	again, err := lead.New("student-1", "company-1", nil, "", now)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, again))
}

func TestPlacementRepo_OnePerStudent(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Placements()
	now := timeutil.Date(2025, 4, 1)
	details := placement.Details{CompanyID: "company-1", Supervisor: "Anna"}

	p, err := placement.New("student-1", details, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	dup, err := placement.New("student-1", details, now)
	require.NoError(t, err)
	assert.True(t, shared.IsConflict(repo.Create(ctx, dup)))

	got, err := repo.GetByStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	approved := placement.StatusApproved
	reviewed, prev, err := repo.Review(ctx, p.ID, placement.ReviewPatch{Status: &approved}, now)
	require.NoError(t, err)
	assert.Equal(t, placement.StatusPending, prev)
	assert.Equal(t, placement.StatusApproved, reviewed.Status)

	supervisor := "Bo Ek"
	edited, err := repo.UpdateDetails(ctx, "student-1", placement.DetailsPatch{Supervisor: &supervisor}, now)
	require.NoError(t, err)
	assert.Equal(t, "Bo Ek", edited.Supervisor)
	assert.Equal(t, placement.StatusApproved, edited.Status)

	reloaded, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, placement.StatusApproved, reloaded.Status)
	assert.Equal(t, "student-1", reloaded.StudentID)

	_, err = repo.UpdateDetails(ctx, "student-9", placement.DetailsPatch{Supervisor: &supervisor}, now)
	assert.True(t, shared.IsNotFound(err))
	_, _, err = repo.Review(ctx, "missing", placement.ReviewPatch{Status: &approved}, now)
	assert.True(t, shared.IsNotFound(err))

	listed, err := repo.ListByStudents(ctx, []string{"student-1", "student-9"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByStudent(ctx, "student-1")
	assert.True(t, shared.IsNotFound(err))
}

func TestPlacementRepo_ConcurrentReviewAndStudentEdits(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Placements()
	now := timeutil.Date(2025, 4, 1)

	p, err := placement.New("student-1", placement.Details{CompanyID: "company-1", Supervisor: "Anna"}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	const edits = 32
	rejected := placement.StatusRejected
	var wg sync.WaitGroup
	wg.Add(edits + 1)
	go func() {
		defer wg.Done()
		_, _, err := repo.Review(ctx, p.ID, placement.ReviewPatch{Status: &rejected}, now)
		assert.NoError(t, err)
	}()
	for i := 0; i < edits; i++ {
		go func() {
			defer wg.Done()
			email := "anna@acme.se"
			_, err := repo.UpdateDetails(ctx, "student-1", placement.DetailsPatch{SupervisorEmail: &email}, now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, placement.StatusRejected, final.Status)
	assert.Equal(t, "anna@acme.se", final.SupervisorEmail)
}

func TestDirectoryRepo_ListByGroupOnlyStudents(t *testing.T) {
	ctx := context.Background()
	dir := NewStore().Directory()

	require.NoError(t, dir.SaveGroup(ctx, &student.CareerGroup{ID: "group-1", Name: "FE24"}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "u2", Name: "Bertil", CareerGroupID: "group-1"}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "u1", Name: "Alva", CareerGroupID: "group-1", Role: shared.RoleStudent}))
	require.NoError(t, dir.SaveStudent(ctx, &student.Student{ID: "t1", Name: "Teacher", CareerGroupID: "group-1", Role: shared.RoleTeacher}))

	members, err := dir.ListByGroup(ctx, "group-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Alva", members[0].Name)
	assert.Equal(t, "Bertil", members[1].Name)

	_, err = dir.GetGroup(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
	_, err = dir.GetByID(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
}
