package query

import (
	"context"
	"fmt"
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// DUE DEADLINE REMINDERS
// Чистый запрос: какие напоминания положены на момент now.
// Доставкой занимается задача планировщика.
// ══════════════════════════════════════════════════════════════════════════════

// DueRemindersHandler вычисляет напоминания о дедлайнах фаз.
type DueRemindersHandler struct {
	schedules schedule.Repository
	directory student.Directory
}

// NewDueRemindersHandler создаёт обработчик.
func NewDueRemindersHandler(schedules schedule.Repository, directory student.Directory) *DueRemindersHandler {
	return &DueRemindersHandler{schedules: schedules, directory: directory}
}

// Handle возвращает по одному напоминанию на каждого студента группы,
// у которой дедлайн фазы ровно через 7 или 1 день (с округлением вверх).
// Порядок: по дедлайну, затем по имени студента.
func (h *DueRemindersHandler) Handle(ctx context.Context, now time.Time) ([]schedule.Reminder, error) {
	rows, err := h.schedules.ListWithDeadlineBetween(ctx, now, now.Add(schedule.ReminderWindow))
	if err != nil {
		return nil, fmt.Errorf("due_reminders: %w", err)
	}

	var reminders []schedule.Reminder
	for _, ps := range rows {
		if ps.Deadline == nil {
			continue
		}
		daysLeft, due := schedule.ReminderDue(now, *ps.Deadline)
		if !due {
			continue
		}

		members, err := h.directory.ListByGroup(ctx, ps.CareerGroupID)
		if err != nil {
			return nil, fmt.Errorf("due_reminders: list group %s: %w", ps.CareerGroupID, err)
		}
		for _, m := range members {
			reminders = append(reminders, schedule.Reminder{
				StudentID:     m.ID,
				StudentName:   m.DisplayName(),
				CareerGroupID: ps.CareerGroupID,
				Phase:         ps.Phase,
				Deadline:      *ps.Deadline,
				DaysLeft:      daysLeft,
			})
		}
	}
	return reminders, nil
}
