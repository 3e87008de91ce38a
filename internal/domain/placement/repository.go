package placement

import (
	"context"
	"time"
)

// Repository определяет операции с практиками.
type Repository interface {
	// Create сохраняет практику. Вторая практика того же студента
	// возвращает shared.ErrPlacementExists.
	Create(ctx context.Context, p *Placement) error

	// GetByID возвращает практику или shared.ErrPlacementNotFound.
	GetByID(ctx context.Context, id string) (*Placement, error)

	// GetByStudent возвращает практику студента или shared.ErrPlacementNotFound.
	GetByStudent(ctx context.Context, studentID string) (*Placement, error)

	// UpdateDetails атомарно применяет патч студента к его практике.
	// Колонка статуса в записи не участвует, поэтому параллельное решение
	// персонала не теряется.
	UpdateDetails(ctx context.Context, studentID string, patch DetailsPatch, now time.Time) (*Placement, error)

	// Review атомарно применяет патч персонала и возвращает новое состояние
	// вместе с прежним статусом.
	Review(ctx context.Context, id string, patch ReviewPatch, now time.Time) (updated *Placement, prevStatus Status, err error)

	// Delete удаляет практику.
	Delete(ctx context.Context, id string) error

	// ListByStudents возвращает практики указанных студентов.
	ListByStudents(ctx context.Context, studentIDs []string) ([]*Placement, error)
}
