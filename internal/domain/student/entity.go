package student

import (
	"strings"
	"time"

	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDUCATION & CAREER GROUP
// ══════════════════════════════════════════════════════════════════════════════

// Education - образовательный трек. Владеет карьерными группами.
type Education struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// CareerGroup - когорта студентов одного трека в одном регионе.
// Владеет расписаниями фаз (по одному на фазу).
type CareerGroup struct {
	ID          string
	Name        string
	EducationID string
	Region      string
	CreatedAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPANY
// ══════════════════════════════════════════════════════════════════════════════

// CompanyStatus - статус проверки компании персоналом.
type CompanyStatus string

const (
	CompanyPending  CompanyStatus = "PENDING"
	CompanyApproved CompanyStatus = "APPROVED"
)

// Company - работодатель, на которого ссылаются лиды и практики.
type Company struct {
	ID        string
	Name      string
	Status    CompanyStatus
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - участник программы.
type Student struct {
	// ID - внутренний идентификатор пользователя.
	ID string

	// Name - отображаемое имя.
	Name string

	// Email - адрес для уведомлений.
	Email string

	// Role - роль пользователя; в группах состоят только STUDENT.
	Role shared.Role

	// CareerGroupID - группа студента; пусто, если ещё не распределён.
	CareerGroupID string

	// SlackUserID - ID в Slack для персональных уведомлений (опционально).
	SlackUserID string

	CreatedAt time.Time
}

// DisplayName возвращает имя или email, если имя не задано.
func (s *Student) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return s.Email
}

// HasGroup возвращает true, если студент распределён в группу.
func (s *Student) HasGroup() bool {
	return s.CareerGroupID != ""
}

// ErrStudentNotFound - студент не найден.
var ErrStudentNotFound = shared.NewDomainError("student", "Find", shared.ErrNotFound, "student not found")

// ErrGroupNotFound - группа не найдена.
var ErrGroupNotFound = shared.NewDomainError("student", "FindGroup", shared.ErrNotFound, "career group not found")

// ErrCompanyNotFound - компания не найдена.
var ErrCompanyNotFound = shared.NewDomainError("student", "FindCompany", shared.ErrNotFound, "company not found")
