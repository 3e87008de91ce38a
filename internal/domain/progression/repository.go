package progression

import (
	"context"
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции с прогрессом студентов.
// Все изменяющие операции выполняются одной атомарной записью.
type Repository interface {
	// GetOrCreate возвращает прогресс студента или создаёт его в PHASE_1.
	// Конкурентные вызовы сходятся к одной записи; проигравший получает
	// запись победителя, а не ошибку.
	GetOrCreate(ctx context.Context, studentID string, now time.Time) (*Progression, error)

	// GetByStudent возвращает прогресс студента без создания.
	// Возвращает shared.ErrNotFound, если записи нет.
	GetByStudent(ctx context.Context, studentID string) (*Progression, error)

	// SetMilestoneCompletion атомарно создаёт или обновляет отметку о вехе
	// по правилам ApplyCompletion. changed сообщает о реальном переходе.
	SetMilestoneCompletion(ctx context.Context, progressionID, milestoneID string, completed bool, now time.Time) (mp *MilestoneProgress, changed bool, err error)

	// ListMilestoneProgress возвращает все отметки прогресса.
	ListMilestoneProgress(ctx context.Context, progressionID string) ([]MilestoneProgress, error)

	// SetCurrentPhase записывает текущую фазу. Любое из четырёх значений допустимо.
	SetCurrentPhase(ctx context.Context, progressionID string, phase schedule.Phase, now time.Time) (*Progression, error)
}

// CatalogReader читает глобальный каталог вех.
type CatalogReader interface {
	// ListMilestones возвращает каталог, упорядоченный по фазе и позиции.
	ListMilestones(ctx context.Context) ([]Milestone, error)
}
