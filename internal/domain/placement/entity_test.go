package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

func TestNew(t *testing.T) {
	now := timeutil.Date(2025, 4, 1)

	p, err := New("s1", Details{CompanyID: "c1", Supervisor: "Anna Berg", SupervisorEmail: "anna@acme.se"}, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)

	_, err = New("s1", Details{CompanyID: "c1"}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = New("s1", Details{Supervisor: "Anna"}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = New("s1", Details{CompanyID: "c1", Supervisor: "Anna", SupervisorEmail: "not-an-email"}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	start, end := timeutil.Date(2025, 6, 1), timeutil.Date(2025, 5, 1)
	_, err = New("s1", Details{CompanyID: "c1", Supervisor: "Anna", StartDate: &start, EndDate: &end}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestDetailsPatch_NeverTouchesStatus(t *testing.T) {
	now := timeutil.Date(2025, 4, 2)
	supervisor := "Erik Lund"
	pl := Placement{ID: "p1", CompanyID: "c1", Status: StatusApproved, Supervisor: "Anna"}

	next, err := DetailsPatch{Supervisor: &supervisor}.Apply(pl, now)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, next.Status)
	assert.Equal(t, "Erik Lund", next.Supervisor)
}

func TestDetailsPatch_ChecksMergedDates(t *testing.T) {
	now := timeutil.Date(2025, 4, 2)
	start := timeutil.Date(2025, 6, 1)
	pl := Placement{ID: "p1", CompanyID: "c1", Supervisor: "Anna", StartDate: &start, Status: StatusPending}

	end := timeutil.Date(2025, 5, 1)
	patch := DetailsPatch{EndDate: &end}
	require.NoError(t, patch.Validate(), "a lone end date is fine on its own")

	_, err := patch.Apply(pl, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = ReviewPatch{Details: patch}.Apply(pl, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	later := timeutil.Date(2025, 8, 29)
	next, err := DetailsPatch{EndDate: &later}.Apply(pl, now)
	require.NoError(t, err)
	assert.Equal(t, later, *next.EndDate)
}

func TestReviewPatch(t *testing.T) {
	rejected := StatusRejected
	next, err := ReviewPatch{Status: &rejected}.Apply(Placement{CompanyID: "c1", Supervisor: "Anna", Status: StatusPending}, timeutil.Date(2025, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, next.Status)

	bogus := Status("ON_HOLD")
	assert.ErrorIs(t, ReviewPatch{Status: &bogus}.Validate(), shared.ErrValidation)
}

func TestAuthorize(t *testing.T) {
	student := shared.NewActor("u1", shared.RoleStudent)
	teacher := shared.NewActor("u2", shared.RoleTeacher)
	admin := shared.NewActor("u3", shared.RoleAdmin)

	assert.ErrorIs(t, AuthorizeReview(student), shared.ErrForbidden)
	assert.NoError(t, AuthorizeReview(teacher))
	assert.NoError(t, AuthorizeReview(admin))

	assert.ErrorIs(t, AuthorizeDelete(teacher), shared.ErrForbidden)
	assert.NoError(t, AuthorizeDelete(admin))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.True(t, StatusApproved.IsDecision())
}
