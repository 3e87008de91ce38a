// Package lead содержит доменную модель воронки лидов: отношение
// студент-компания, его статус и счётчик попыток контакта.
package lead

import (
	"strings"
	"time"

	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - этап воронки лида.
// Канонический путь: NEW → CONTACTED → IN_DIALOG → MEETING_BOOKED → VISITED →
// LIA_OFFERED → {CLOSED_WON, CLOSED_LOST}. Хранилище допускает запись любого
// известного статуса; строгий порядок не проверяется.
type Status string

const (
	StatusNew           Status = "NEW"
	StatusContacted     Status = "CONTACTED"
	StatusInDialog      Status = "IN_DIALOG"
	StatusMeetingBooked Status = "MEETING_BOOKED"
	StatusVisited       Status = "VISITED"
	StatusLIAOffered    Status = "LIA_OFFERED"
	StatusClosedWon     Status = "CLOSED_WON"
	StatusClosedLost    Status = "CLOSED_LOST"
)

// AllStatuses возвращает статусы в каноническом порядке.
func AllStatuses() []Status {
	return []Status{
		StatusNew, StatusContacted, StatusInDialog, StatusMeetingBooked,
		StatusVisited, StatusLIAOffered, StatusClosedWon, StatusClosedLost,
	}
}

// IsValid проверяет, что статус входит в закрытый набор.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsClosed возвращает true для терминальных статусов.
func (s Status) IsClosed() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// ParseStatus разбирает статус (регистр не важен).
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.ErrInvalidLeadStatus
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEAD ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Lead - отслеживаемое отношение студента с компанией.
// Уникален по паре (StudentID, CompanyID).
type Lead struct {
	ID              string
	StudentID       string
	CompanyID       string
	ContactID       *string
	Status          Status
	ContactAttempts int
	LastContactAt   *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New создаёт лид в статусе NEW с нулевым счётчиком попыток.
func New(studentID, companyID string, contactID *string, notes string, now time.Time) (*Lead, error) {
	if !shared.IsValidID(studentID) {
		return nil, shared.Validation("lead", "Create", "studentId is required")
	}
	if !shared.IsValidID(companyID) {
		return nil, shared.ErrLeadCompanyNeeded
	}
	if contactID != nil && !shared.IsValidID(*contactID) {
		contactID = nil
	}
	return &Lead{
		ID:        shared.NewID(),
		StudentID: studentID,
		CompanyID: companyID,
		ContactID: contactID,
		Status:    StatusNew,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive возвращает true, пока лид не закрыт.
func (l *Lead) IsActive() bool {
	return !l.Status.IsClosed()
}

// ══════════════════════════════════════════════════════════════════════════════
// PATCH
// ══════════════════════════════════════════════════════════════════════════════

// Patch - частичное обновление лида. nil означает "не менять".
type Patch struct {
	Status    *Status
	ContactID *string
	Notes     *string
}

// Validate проверяет значения патча.
func (p Patch) Validate() error {
	if p.Status != nil && !p.Status.IsValid() {
		return shared.ErrInvalidLeadStatus
	}
	return nil
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.ContactID == nil && p.Notes == nil
}

// Apply применяет патч к копии лида и возвращает её.
// Побочный эффект смены статуса: если статус задан и отличается от текущего,
// ContactAttempts увеличивается на 1, а LastContactAt = now.
// Обновление одних заметок счётчик не трогает.
func (p Patch) Apply(l Lead, now time.Time) (next Lead, statusChanged bool) {
	next = l
	if p.Status != nil && *p.Status != l.Status {
		next.Status = *p.Status
		next.ContactAttempts = l.ContactAttempts + 1
		stamp := now
		next.LastContactAt = &stamp
		statusChanged = true
	}
	if p.ContactID != nil {
		if *p.ContactID == "" {
			next.ContactID = nil
		} else {
			id := *p.ContactID
			next.ContactID = &id
		}
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	next.UpdatedAt = now
	return next, statusChanged
}
