package schedule

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции с расписаниями фаз.
type Repository interface {
	// ListByGroup возвращает все расписания группы, упорядоченные по фазе.
	// Пустой список - не ошибка.
	ListByGroup(ctx context.Context, careerGroupID string) ([]*PhaseSchedule, error)

	// Get возвращает расписание фазы группы.
	// Возвращает ErrScheduleNotFound, если записи нет.
	Get(ctx context.Context, careerGroupID string, phase Phase) (*PhaseSchedule, error)

	// ListWithDeadlineBetween возвращает расписания с дедлайном в [from, to].
	ListWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*PhaseSchedule, error)

	// Upsert создаёт или обновляет расписание по ключу (CareerGroupID, Phase).
	Upsert(ctx context.Context, s *PhaseSchedule) error
}
