package student

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Directory - справочник студентов и групп (только чтение).
type Directory interface {
	// GetByID возвращает студента по ID.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// ListByGroup возвращает студентов группы, упорядоченных по имени.
	ListByGroup(ctx context.Context, careerGroupID string) ([]*Student, error)

	// GetGroup возвращает группу по ID.
	// Возвращает ErrGroupNotFound, если группа не найдена.
	GetGroup(ctx context.Context, id string) (*CareerGroup, error)

	// GetCompany возвращает компанию по ID.
	// Возвращает ErrCompanyNotFound, если компания не найдена.
	GetCompany(ctx context.Context, id string) (*Company, error)
}

// Writer - запись в справочник. Используется сидингом и администрированием.
type Writer interface {
	// SaveEducation создаёт или обновляет трек.
	SaveEducation(ctx context.Context, e *Education) error

	// SaveGroup создаёт или обновляет группу.
	SaveGroup(ctx context.Context, g *CareerGroup) error

	// SaveStudent создаёт или обновляет студента.
	SaveStudent(ctx context.Context, s *Student) error

	// SaveCompany создаёт или обновляет компанию.
	SaveCompany(ctx context.Context, c *Company) error
}
