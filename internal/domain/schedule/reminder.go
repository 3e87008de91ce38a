package schedule

import (
	"time"

	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEADLINE REMINDERS
// Диспетчер напоминаний опрашивает эти функции. Ядро не рассылает ничего само.
// ══════════════════════════════════════════════════════════════════════════════

// ReminderWindow - горизонт, в котором дедлайны рассматриваются для напоминаний.
const ReminderWindow = 7 * timeutil.Day

// ReminderMarks - отметки (в днях до дедлайна), в которые отправляется напоминание.
var ReminderMarks = []int{7, 1}

// ReminderDue проверяет, нужно ли сегодня напоминание о дедлайне.
// Дедлайн должен лежать в [now, now+7d], а число оставшихся дней
// должно совпасть с одной из отметок ReminderMarks.
func ReminderDue(now time.Time, deadline time.Time) (daysLeft int, due bool) {
	if !timeutil.Between(deadline, now, now.Add(ReminderWindow)) {
		return 0, false
	}
	daysLeft = timeutil.DaysUntil(now, deadline)
	for _, mark := range ReminderMarks {
		if daysLeft == mark {
			return daysLeft, true
		}
	}
	return daysLeft, false
}

// Reminder - напоминание о приближающемся дедлайне фазы для одного студента.
type Reminder struct {
	StudentID     string
	StudentName   string
	CareerGroupID string
	Phase         Phase
	Deadline      time.Time
	DaysLeft      int
}
