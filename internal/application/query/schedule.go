// Package query contains read operations (CQRS - Queries).
// Запросы никогда не создают записей: отсутствие данных отдаётся
// как состояние по умолчанию, а не как ошибка.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CURRENT SCHEDULE FOR GROUP
// Какая фаза группы идёт прямо сейчас и в каком она статусе.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleDTO - расписание фазы с вычисленным статусом.
type ScheduleDTO struct {
	ID            string          `json:"id"`
	CareerGroupID string          `json:"career_group_id"`
	Phase         schedule.Phase  `json:"phase"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Status        schedule.Status `json:"status"`

	// DaysUntilDeadline - nil, если дедлайн не задан.
	DaysUntilDeadline *int `json:"days_until_deadline,omitempty"`
}

// NewScheduleDTO строит DTO на момент now.
func NewScheduleDTO(s *schedule.PhaseSchedule, now time.Time) *ScheduleDTO {
	dto := &ScheduleDTO{
		ID:            s.ID,
		CareerGroupID: s.CareerGroupID,
		Phase:         s.Phase,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		Deadline:      s.Deadline,
		Status:        s.Status(now),
	}
	if days, ok := s.DaysUntilDeadline(now); ok {
		dto.DaysUntilDeadline = &days
	}
	return dto
}

// CurrentScheduleHandler отвечает на вопрос "какая фаза сейчас у группы".
type CurrentScheduleHandler struct {
	schedules schedule.Repository
}

// NewCurrentScheduleHandler создаёт обработчик.
func NewCurrentScheduleHandler(schedules schedule.Repository) *CurrentScheduleHandler {
	return &CurrentScheduleHandler{schedules: schedules}
}

// Handle возвращает nil без ошибки, если ни одно окно не содержит now.
func (h *CurrentScheduleHandler) Handle(ctx context.Context, careerGroupID string, now time.Time) (*ScheduleDTO, error) {
	if !shared.IsValidID(careerGroupID) {
		return nil, shared.Validation("schedule", "Current", "careerGroupId is required")
	}
	rows, err := h.schedules.ListByGroup(ctx, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("current_schedule: %w", err)
	}
	current, ok := schedule.CurrentFor(rows, now)
	if !ok {
		return nil, nil
	}
	return NewScheduleDTO(current, now), nil
}

// GroupSchedules возвращает все расписания группы по порядку фаз.
func (h *CurrentScheduleHandler) GroupSchedules(ctx context.Context, careerGroupID string, now time.Time) ([]*ScheduleDTO, error) {
	rows, err := h.schedules.ListByGroup(ctx, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("group_schedules: %w", err)
	}
	out := make([]*ScheduleDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewScheduleDTO(r, now))
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PHASE ELIGIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// PhaseEligibilityHandler проверяет, может ли студент группы быть в фазе.
type PhaseEligibilityHandler struct {
	schedules schedule.Repository
}

// NewPhaseEligibilityHandler создаёт обработчик.
func NewPhaseEligibilityHandler(schedules schedule.Repository) *PhaseEligibilityHandler {
	return &PhaseEligibilityHandler{schedules: schedules}
}

// Handle возвращает Allowed=false с причиной, если расписания нет
// или окно фазы ещё не открылось.
func (h *PhaseEligibilityHandler) Handle(ctx context.Context, careerGroupID string, phase schedule.Phase, now time.Time) (progression.Eligibility, error) {
	if !phase.IsValid() {
		return progression.Eligibility{}, shared.ErrInvalidPhase
	}
	target, err := h.schedules.Get(ctx, careerGroupID, phase)
	if err != nil {
		if !shared.IsNotFound(err) {
			return progression.Eligibility{}, fmt.Errorf("phase_eligibility: %w", err)
		}
		target = nil
	}
	return progression.CheckEligibility(target, now), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// CalendarEventKind - тип события календаря.
type CalendarEventKind string

const (
	CalendarPhaseStart CalendarEventKind = "phase_start"
	CalendarPhaseEnd   CalendarEventKind = "phase_end"
	CalendarDeadline   CalendarEventKind = "deadline"
)

// CalendarEvent - одна дата в календаре группы.
type CalendarEvent struct {
	Date  time.Time         `json:"date"`
	Kind  CalendarEventKind `json:"kind"`
	Phase schedule.Phase    `json:"phase"`
}

// CalendarHandler собирает календарь группы из расписаний фаз.
type CalendarHandler struct {
	schedules schedule.Repository
}

// NewCalendarHandler создаёт обработчик.
func NewCalendarHandler(schedules schedule.Repository) *CalendarHandler {
	return &CalendarHandler{schedules: schedules}
}

// Handle возвращает события, упорядоченные по дате, затем по фазе.
func (h *CalendarHandler) Handle(ctx context.Context, careerGroupID string) ([]CalendarEvent, error) {
	rows, err := h.schedules.ListByGroup(ctx, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	events := make([]CalendarEvent, 0, len(rows)*3)
	for _, r := range rows {
		events = append(events,
			CalendarEvent{Date: r.StartDate, Kind: CalendarPhaseStart, Phase: r.Phase},
			CalendarEvent{Date: r.EndDate, Kind: CalendarPhaseEnd, Phase: r.Phase},
		)
		if r.Deadline != nil {
			events = append(events, CalendarEvent{Date: *r.Deadline, Kind: CalendarDeadline, Phase: r.Phase})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Phase.Order() < events[j].Phase.Order()
	})
	return events, nil
}

// FormatDay форматирует дату события для отображения.
func (e CalendarEvent) FormatDay() string {
	return timeutil.FormatDate(e.Date)
}
