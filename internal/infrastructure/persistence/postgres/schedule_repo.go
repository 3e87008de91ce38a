package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ScheduleRepository implements schedule.Repository for PostgreSQL.
type ScheduleRepository struct {
	conn *Connection
}

var _ schedule.Repository = (*ScheduleRepository)(nil)

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(conn *Connection) *ScheduleRepository {
	return &ScheduleRepository{conn: conn}
}

const scheduleColumns = `id, career_group_id, phase, start_date, end_date, deadline, created_at, updated_at`

// ListByGroup implements schedule.Repository.
// PHASE_1..PHASE_4 sort lexically in phase order.
func (r *ScheduleRepository) ListByGroup(ctx context.Context, careerGroupID string) ([]*schedule.PhaseSchedule, error) {
	defer observe("list", "phase_schedules", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM phase_schedules
		WHERE career_group_id = $1
		ORDER BY phase
	`, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return collectSchedules(rows)
}

// Get implements schedule.Repository.
func (r *ScheduleRepository) Get(ctx context.Context, careerGroupID string, phase schedule.Phase) (*schedule.PhaseSchedule, error) {
	defer observe("get", "phase_schedules", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	ps, err := scanSchedule(r.conn.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM phase_schedules
		WHERE career_group_id = $1 AND phase = $2
	`, careerGroupID, string(phase)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return ps, nil
}

// ListWithDeadlineBetween implements schedule.Repository.
func (r *ScheduleRepository) ListWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]*schedule.PhaseSchedule, error) {
	defer observe("list_deadlines", "phase_schedules", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM phase_schedules
		WHERE deadline IS NOT NULL AND deadline BETWEEN $1 AND $2
		ORDER BY deadline, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list schedules by deadline: %w", err)
	}
	return collectSchedules(rows)
}

// Upsert implements schedule.Repository.
// An existing row keeps its id and created_at; ps is updated to match.
func (r *ScheduleRepository) Upsert(ctx context.Context, ps *schedule.PhaseSchedule) error {
	if err := ps.Validate(); err != nil {
		return err
	}
	defer observe("upsert", "phase_schedules", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	if ps.ID == "" {
		ps.ID = shared.NewID()
	}
	if ps.UpdatedAt.IsZero() {
		ps.UpdatedAt = time.Now().UTC()
	}
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = ps.UpdatedAt
	}

	err := r.conn.QueryRow(ctx, `
		INSERT INTO phase_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (career_group_id, phase) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			deadline = EXCLUDED.deadline,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`, ps.ID, ps.CareerGroupID, string(ps.Phase), ps.StartDate, ps.EndDate, ps.Deadline, ps.CreatedAt, ps.UpdatedAt,
	).Scan(&ps.ID, &ps.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.Validation("schedule", "Upsert", "unknown career group")
		}
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func scanSchedule(row pgx.Row) (*schedule.PhaseSchedule, error) {
	var ps schedule.PhaseSchedule
	var phase string
	err := row.Scan(&ps.ID, &ps.CareerGroupID, &phase, &ps.StartDate, &ps.EndDate, &ps.Deadline, &ps.CreatedAt, &ps.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ps.Phase = schedule.Phase(phase)
	return &ps, nil
}

func collectSchedules(rows pgx.Rows) ([]*schedule.PhaseSchedule, error) {
	defer rows.Close()

	out := make([]*schedule.PhaseSchedule, 0, 4)
	for rows.Next() {
		ps, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
