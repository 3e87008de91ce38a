package schedule

import (
	"time"

	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PHASE STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - статус фазы или дедлайна относительно текущего момента.
type Status string

const (
	// StatusNotStarted - окно фазы ещё не открылось.
	StatusNotStarted Status = "NOT_STARTED"
	// StatusActive - фаза идёт, дедлайн далеко или не задан.
	StatusActive Status = "ACTIVE"
	// StatusDeadlineSoon - до дедлайна DeadlineSoonDays дней или меньше.
	StatusDeadlineSoon Status = "DEADLINE_SOON"
	// StatusPastDeadline - дедлайн прошёл, но окно фазы ещё открыто.
	StatusPastDeadline Status = "PAST_DEADLINE"
	// StatusCompleted - окно фазы закрылось.
	StatusCompleted Status = "COMPLETED"
)

// DeadlineSoonDays - порог "дедлайн скоро" в целых днях.
const DeadlineSoonDays = 14

// IsDeadlineBased возвращает true для статусов, вычисленных из дедлайна.
func (s Status) IsDeadlineBased() bool {
	return s == StatusDeadlineSoon || s == StatusPastDeadline
}

// IsOpen возвращает true, если окно фазы открыто (now внутри [start, end]).
func (s Status) IsOpen() bool {
	return s == StatusActive || s.IsDeadlineBased()
}

// ResolveStatus вычисляет статус фазы. Правила проверяются строго по порядку:
//  1. now < start            → NOT_STARTED
//  2. now > end              → COMPLETED
//  3. deadline < now         → PAST_DEADLINE
//  4. дней до дедлайна <= 14 → DEADLINE_SOON
//  5. иначе                  → ACTIVE
//
// Дни считаются с округлением вверх, поэтому дедлайн через 0.1 дня - это "1 день".
// Функция тотальна: для любых входных данных возвращается ровно один статус.
func ResolveStatus(now, start, end time.Time, deadline *time.Time) Status {
	if now.Before(start) {
		return StatusNotStarted
	}
	if now.After(end) {
		return StatusCompleted
	}
	if deadline != nil {
		if deadline.Before(now) {
			return StatusPastDeadline
		}
		if timeutil.DaysUntil(now, *deadline) <= DeadlineSoonDays {
			return StatusDeadlineSoon
		}
	}
	return StatusActive
}
