package lead

import (
	"context"
	"time"
)

// Repository определяет операции с лидами.
// Каждый метод проверяет владельца: чужой лид неотличим от несуществующего
// и даёт shared.ErrLeadNotFound.
type Repository interface {
	// Create сохраняет новый лид. Нарушение уникальности (StudentID, CompanyID)
	// возвращает shared.ErrLeadExists.
	Create(ctx context.Context, l *Lead) error

	// Update атомарно применяет патч (включая побочный эффект смены статуса)
	// и возвращает новое состояние вместе с прежним статусом.
	Update(ctx context.Context, leadID, studentID string, patch Patch, now time.Time) (updated *Lead, prevStatus Status, err error)

	// Delete удаляет лид владельца.
	Delete(ctx context.Context, leadID, studentID string) error

	// Get возвращает лид владельца.
	Get(ctx context.Context, leadID, studentID string) (*Lead, error)

	// ExistsForCompany проверяет наличие лида студента у компании.
	ExistsForCompany(ctx context.Context, studentID, companyID string) (bool, error)

	// ListByStudent возвращает лиды студента, новые первыми.
	ListByStudent(ctx context.Context, studentID string) ([]*Lead, error)
}
