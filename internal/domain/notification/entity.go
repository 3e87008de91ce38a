// Package notification содержит доменную модель уведомлений программы.
// Уведомления формируются из событий ядра и отдаются каналу доставки;
// само ядро ничего не рассылает.
package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType определяет тип уведомления.
type NotificationType string

const (
	// NotificationTypeDeadlineReminder - до дедлайна фазы 7 дней или 1 день.
	// "⚠️ Anna har deadline för Fas 2 om 7 dagar"
	NotificationTypeDeadlineReminder NotificationType = "deadline_reminder"

	// NotificationTypePlacementDecision - персонал одобрил или отклонил LIA.
	// "✅ Anna LIA-ansökan hos Acme har blivit godkänd"
	NotificationTypePlacementDecision NotificationType = "placement_decision"

	// NotificationTypeMilestoneCompleted - студент выполнил веху.
	// "🎉 Anna har avklarat Big Bang Day"
	NotificationTypeMilestoneCompleted NotificationType = "milestone_completed"

	// NotificationTypeTest - проверка интеграции канала.
	NotificationTypeTest NotificationType = "test"
)

// IsValid проверяет корректность типа.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeDeadlineReminder, NotificationTypePlacementDecision,
		NotificationTypeMilestoneCompleted, NotificationTypeTest:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление типа.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification - уведомление, готовое к доставке. Поля данных заполняются
// в зависимости от типа; форматирование текста - забота канала.
type Notification struct {
	ID          string
	Type        NotificationType
	StudentID   string
	StudentName string
	Data        NotificationData
	CreatedAt   time.Time
}

// NotificationData - данные для форматирования.
type NotificationData struct {
	// Deadline reminder
	Phase    schedule.Phase
	Deadline time.Time
	DaysLeft int

	// Placement decision
	CompanyName string
	Approved    bool

	// Milestone completed
	MilestoneName   string
	ProgressPercent int
}

// ErrInvalidNotification - уведомление не прошло проверку.
var ErrInvalidNotification = errors.New("invalid notification")

// Validate проверяет, что уведомление можно отформатировать.
func (n *Notification) Validate() error {
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, n.Type)
	}
	if n.Type != NotificationTypeTest && n.StudentName == "" {
		return fmt.Errorf("%w: student name is required", ErrInvalidNotification)
	}
	switch n.Type {
	case NotificationTypeDeadlineReminder:
		if !n.Data.Phase.IsValid() || n.Data.Deadline.IsZero() {
			return fmt.Errorf("%w: phase and deadline are required", ErrInvalidNotification)
		}
	case NotificationTypeMilestoneCompleted:
		if n.Data.MilestoneName == "" {
			return fmt.Errorf("%w: milestone name is required", ErrInvalidNotification)
		}
	}
	return nil
}

// String возвращает краткое описание для логов.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{type=%s, student=%s}", n.Type, n.StudentID)
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORIES
// ══════════════════════════════════════════════════════════════════════════════

// NewDeadlineReminder создаёт напоминание о дедлайне для одного студента.
func NewDeadlineReminder(r schedule.Reminder, now time.Time) *Notification {
	return &Notification{
		ID:          shared.NewID(),
		Type:        NotificationTypeDeadlineReminder,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Data: NotificationData{
			Phase:    r.Phase,
			Deadline: r.Deadline,
			DaysLeft: r.DaysLeft,
		},
		CreatedAt: now,
	}
}

// NewPlacementDecision создаёт уведомление о решении по LIA.
func NewPlacementDecision(studentID, studentName, companyName string, approved bool, now time.Time) *Notification {
	return &Notification{
		ID:          shared.NewID(),
		Type:        NotificationTypePlacementDecision,
		StudentID:   studentID,
		StudentName: studentName,
		Data:        NotificationData{CompanyName: companyName, Approved: approved},
		CreatedAt:   now,
	}
}

// NewMilestoneCompleted создаёт уведомление о выполненной вехе.
func NewMilestoneCompleted(studentID, studentName, milestoneName string, percent int, now time.Time) *Notification {
	return &Notification{
		ID:          shared.NewID(),
		Type:        NotificationTypeMilestoneCompleted,
		StudentID:   studentID,
		StudentName: studentName,
		Data:        NotificationData{MilestoneName: milestoneName, ProgressPercent: percent},
		CreatedAt:   now,
	}
}
