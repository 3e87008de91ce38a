package progression

import (
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Progression - указатель текущей фазы студента. Ровно одна запись на студента.
// Отметки о вехах хранятся отдельно (MilestoneProgress) и ссылаются на ID.
type Progression struct {
	ID           string
	StudentID    string
	CurrentPhase schedule.Phase
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProgression создаёт прогресс в начальной фазе без отметок.
func NewProgression(studentID string, now time.Time) (*Progression, error) {
	if !shared.IsValidID(studentID) {
		return nil, shared.Validation("progression", "Create", "studentId is required")
	}
	return &Progression{
		ID:           shared.NewID(),
		StudentID:    studentID,
		CurrentPhase: schedule.DefaultPhase,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneProgress - отметка о выполнении одной вехи одним студентом.
// Уникальна по паре (ProgressionID, MilestoneID) и создаётся лениво.
type MilestoneProgress struct {
	ProgressionID string
	MilestoneID   string
	Completed     bool
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

// ApplyCompletion вычисляет новое состояние отметки.
// prev == nil означает, что записи ещё нет (эквивалент completed = false).
//
//   - false → true: CompletedAt = now
//   - true → false: CompletedAt = nil
//   - значение не меняется: CompletedAt сохраняется как есть
//
// changed сообщает, был ли реальный переход.
func ApplyCompletion(prev *MilestoneProgress, progressionID, milestoneID string, completed bool, now time.Time) (next MilestoneProgress, changed bool) {
	next = MilestoneProgress{
		ProgressionID: progressionID,
		MilestoneID:   milestoneID,
		Completed:     completed,
		UpdatedAt:     now,
	}

	wasCompleted := prev != nil && prev.Completed
	if wasCompleted == completed {
		if prev != nil {
			next.CompletedAt = prev.CompletedAt
		}
		return next, false
	}
	if completed {
		stamp := now
		next.CompletedAt = &stamp
	}
	return next, true
}

// IndexByMilestone строит индекс отметок по ID вехи для Aggregator.
func IndexByMilestone(rows []MilestoneProgress) map[string]MilestoneProgress {
	out := make(map[string]MilestoneProgress, len(rows))
	for _, r := range rows {
		out[r.MilestoneID] = r
	}
	return out
}
