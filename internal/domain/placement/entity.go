// Package placement содержит доменную модель LIA-практики студента
// и её процесс согласования персоналом.
package placement

import (
	"net/mail"
	"strings"
	"time"

	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status - этап согласования практики.
// Канонический путь: PENDING → {APPROVED, REJECTED}; APPROVED → ACTIVE → COMPLETED.
// Персонал может записать любой известный статус напрямую; проверяется роль,
// а не переход.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
)

// IsValid проверяет, что статус входит в закрытый набор.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusActive, StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для REJECTED и COMPLETED.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// IsDecision возвращает true для статусов, о которых уведомляется студент.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus разбирает статус (регистр не важен).
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.ErrInvalidPlacementStatus
	}
	return st, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PLACEMENT ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Placement - практика студента. Не более одной на студента.
type Placement struct {
	ID              string
	StudentID       string
	CompanyID       string
	Supervisor      string
	SupervisorEmail string
	StartDate       *time.Time
	EndDate         *time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New создаёт практику в статусе PENDING.
func New(studentID string, details Details, now time.Time) (*Placement, error) {
	if !shared.IsValidID(studentID) {
		return nil, shared.Validation("placement", "Create", "studentId is required")
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	return &Placement{
		ID:              shared.NewID(),
		StudentID:       studentID,
		CompanyID:       details.CompanyID,
		Supervisor:      strings.TrimSpace(details.Supervisor),
		SupervisorEmail: strings.TrimSpace(details.SupervisorEmail),
		StartDate:       details.StartDate,
		EndDate:         details.EndDate,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Validate проверяет согласованность сохраняемого состояния.
func (p Placement) Validate() error {
	return Details{
		CompanyID:       p.CompanyID,
		Supervisor:      p.Supervisor,
		SupervisorEmail: p.SupervisorEmail,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
	}.Validate()
}

// Details - поля практики, которые студент заполняет сам.
type Details struct {
	CompanyID       string
	Supervisor      string
	SupervisorEmail string
	StartDate       *time.Time
	EndDate         *time.Time
}

// Validate проверяет обязательные поля при создании.
func (d Details) Validate() error {
	if !shared.IsValidID(d.CompanyID) || strings.TrimSpace(d.Supervisor) == "" {
		return shared.ErrPlacementFieldsNeeded
	}
	return validateOptional(d.SupervisorEmail, d.StartDate, d.EndDate)
}

func validateOptional(email string, start, end *time.Time) error {
	if email = strings.TrimSpace(email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.WrapError("placement", "Validate", shared.ErrValidation, "invalid supervisor email", err)
		}
	}
	if start != nil && end != nil && start.After(*end) {
		return shared.Validation("placement", "Validate", "startDate must not be after endDate")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PATCHES
// ══════════════════════════════════════════════════════════════════════════════

// DetailsPatch - частичное обновление полей студента. Статус сюда не входит.
type DetailsPatch struct {
	CompanyID       *string
	Supervisor      *string
	SupervisorEmail *string
	StartDate       *time.Time
	EndDate         *time.Time
}

// Validate проверяет значения патча.
func (p DetailsPatch) Validate() error {
	if p.CompanyID != nil && !shared.IsValidID(*p.CompanyID) {
		return shared.ErrPlacementFieldsNeeded
	}
	if p.Supervisor != nil && strings.TrimSpace(*p.Supervisor) == "" {
		return shared.ErrPlacementFieldsNeeded
	}
	email := ""
	if p.SupervisorEmail != nil {
		email = *p.SupervisorEmail
	}
	return validateOptional(email, p.StartDate, p.EndDate)
}

// Apply применяет патч к копии практики и проверяет результат целиком:
// патч с одной датой сверяется с сохранённой второй датой.
func (p DetailsPatch) Apply(pl Placement, now time.Time) (Placement, error) {
	if p.CompanyID != nil {
		pl.CompanyID = *p.CompanyID
	}
	if p.Supervisor != nil {
		pl.Supervisor = strings.TrimSpace(*p.Supervisor)
	}
	if p.SupervisorEmail != nil {
		pl.SupervisorEmail = strings.TrimSpace(*p.SupervisorEmail)
	}
	if p.StartDate != nil {
		pl.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		pl.EndDate = p.EndDate
	}
	pl.UpdatedAt = now
	if err := pl.Validate(); err != nil {
		return Placement{}, err
	}
	return pl, nil
}

// ReviewPatch - обновление персоналом: статус плюс любые поля студента.
type ReviewPatch struct {
	Status  *Status
	Details DetailsPatch
}

// Validate проверяет значения патча.
func (p ReviewPatch) Validate() error {
	if p.Status != nil && !p.Status.IsValid() {
		return shared.ErrInvalidPlacementStatus
	}
	return p.Details.Validate()
}

// Apply применяет патч к копии практики.
func (p ReviewPatch) Apply(pl Placement, now time.Time) (Placement, error) {
	pl, err := p.Details.Apply(pl, now)
	if err != nil {
		return Placement{}, err
	}
	if p.Status != nil {
		pl.Status = *p.Status
	}
	return pl, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHORIZATION
// ══════════════════════════════════════════════════════════════════════════════

// AuthorizeReview разрешает менять статус только ADMIN и TEACHER.
func AuthorizeReview(actor shared.Actor) error {
	if !actor.IsStaff() {
		return shared.ErrPlacementStaffOnly
	}
	return nil
}

// AuthorizeDelete разрешает удаление только ADMIN.
func AuthorizeDelete(actor shared.Actor) error {
	if !actor.IsAdmin() {
		return shared.ErrPlacementAdminOnly
	}
	return nil
}
