package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PHASE SCHEDULE
// ══════════════════════════════════════════════════════════════════════════════

// PhaseSchedule - окно дат одной фазы для одной карьерной группы.
// На пару (CareerGroupID, Phase) существует не более одной записи.
// Фазы задаются независимо: пересечение окон разных фаз не запрещено.
type PhaseSchedule struct {
	ID            string
	CareerGroupID string
	Phase         Phase
	StartDate     time.Time
	EndDate       time.Time
	Deadline      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPhaseSchedule создаёт и валидирует расписание фазы.
func NewPhaseSchedule(groupID string, phase Phase, start, end time.Time, deadline *time.Time) (*PhaseSchedule, error) {
	s := &PhaseSchedule{
		ID:            shared.NewID(),
		CareerGroupID: groupID,
		Phase:         phase,
		StartDate:     start,
		EndDate:       end,
		Deadline:      deadline,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate проверяет инварианты расписания.
func (s *PhaseSchedule) Validate() error {
	if strings.TrimSpace(s.CareerGroupID) == "" {
		return shared.Validation("schedule", "Validate", "careerGroupId is required")
	}
	if !s.Phase.IsValid() {
		return shared.ErrInvalidPhase
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return shared.Validation("schedule", "Validate", "startDate and endDate are required")
	}
	if s.StartDate.After(s.EndDate) {
		return shared.ErrInvalidWindow
	}
	return nil
}

// Status возвращает статус фазы на момент now.
func (s *PhaseSchedule) Status(now time.Time) Status {
	return ResolveStatus(now, s.StartDate, s.EndDate, s.Deadline)
}

// Contains проверяет, что now лежит в закрытом окне [StartDate, EndDate].
func (s *PhaseSchedule) Contains(now time.Time) bool {
	return timeutil.Between(now, s.StartDate, s.EndDate)
}

// HasStarted возвращает true, если окно фазы уже открылось.
func (s *PhaseSchedule) HasStarted(now time.Time) bool {
	return !now.Before(s.StartDate)
}

// DaysUntilDeadline возвращает число дней до дедлайна (с округлением вверх).
// ok == false, если дедлайн не задан.
func (s *PhaseSchedule) DaysUntilDeadline(now time.Time) (days int, ok bool) {
	if s.Deadline == nil {
		return 0, false
	}
	return timeutil.DaysUntil(now, *s.Deadline), true
}

// ══════════════════════════════════════════════════════════════════════════════
// CURRENT PHASE SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// CurrentFor выбирает расписание, окно которого содержит now.
// Если подходит несколько (так быть не должно, но данные не запрещают),
// побеждает самый поздний StartDate; при равенстве - более поздняя фаза,
// затем меньший ID. Выбор детерминирован и не зависит от порядка входа.
// Отсутствие подходящего окна - нормальное состояние, а не ошибка.
func CurrentFor(schedules []*PhaseSchedule, now time.Time) (*PhaseSchedule, bool) {
	var best *PhaseSchedule
	for _, s := range schedules {
		if s == nil || !s.Contains(now) {
			continue
		}
		if best == nil || preferred(s, best) {
			best = s
		}
	}
	return best, best != nil
}

func preferred(a, b *PhaseSchedule) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	if a.Phase.Order() != b.Phase.Order() {
		return a.Phase.Order() > b.Phase.Order()
	}
	return a.ID < b.ID
}

// FindPhase возвращает расписание для конкретной фазы.
func FindPhase(schedules []*PhaseSchedule, phase Phase) (*PhaseSchedule, bool) {
	for _, s := range schedules {
		if s != nil && s.Phase == phase {
			return s, true
		}
	}
	return nil, false
}

// SortByPhase упорядочивает расписания по номеру фазы.
func SortByPhase(schedules []*PhaseSchedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		return schedules[i].Phase.Order() < schedules[j].Phase.Order()
	})
}
