package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

func statusPtr(s Status) *Status { return &s }
func strPtr(s string) *string { return &s }

func TestNew(t *testing.T) {
	now := timeutil.Date(2025, 2, 1)

	l, err := New("s1", "c1", nil, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, l.Status)
	assert.Equal(t, 0, l.ContactAttempts)
	assert.Nil(t, l.LastContactAt)

	_, err = New("s1", " ", nil, "", now)
	assert.True(t, shared.IsValidation(err))
}

func TestPatchApply_StatusChangeCountsAttempt(t *testing.T) {
	now := timeutil.Date(2025, 2, 1)
	l := Lead{ID: "l1", Status: StatusNew, ContactAttempts: 2}

	next, changed := Patch{Status: statusPtr(StatusContacted)}.Apply(l, now)

	assert.True(t, changed)
	assert.Equal(t, StatusContacted, next.Status)
	assert.Equal(t, 3, next.ContactAttempts)
	require.NotNil(t, next.LastContactAt)
	assert.Equal(t, now, *next.LastContactAt)
}

func TestPatchApply_SameStatusOrNotesOnly(t *testing.T) {
	now := timeutil.Date(2025, 2, 1)
	last := now.Add(-48 * time.Hour)
	l := Lead{ID: "l1", Status: StatusContacted, ContactAttempts: 1, LastContactAt: &last}

	next, changed := Patch{Notes: strPtr("called back")}.Apply(l, now)
	assert.False(t, changed)
	assert.Equal(t, 1, next.ContactAttempts)
	assert.Equal(t, last, *next.LastContactAt)
	assert.Equal(t, "called back", next.Notes)

	next, changed = Patch{Status: statusPtr(StatusContacted)}.Apply(l, now)
	assert.False(t, changed)
	assert.Equal(t, 1, next.ContactAttempts)
}

func TestPatch_Validate(t *testing.T) {
	assert.NoError(t, Patch{Status: statusPtr(StatusClosedLost)}.Validate())
	assert.True(t, shared.IsValidation(Patch{Status: statusPtr("WARM")}.Validate()))
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusClosedWon.IsClosed())
	assert.True(t, StatusClosedLost.IsClosed())
	assert.False(t, StatusLIAOffered.IsClosed())

	s, err := ParseStatus("meeting_booked")
	require.NoError(t, err)
	assert.Equal(t, StatusMeetingBooked, s)
}
