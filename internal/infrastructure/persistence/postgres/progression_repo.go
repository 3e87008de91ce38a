package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionRepository implements progression.Repository for PostgreSQL.
type ProgressionRepository struct {
	conn *Connection
}

var _ progression.Repository = (*ProgressionRepository)(nil)

// NewProgressionRepository creates a new ProgressionRepository.
func NewProgressionRepository(conn *Connection) *ProgressionRepository {
	return &ProgressionRepository{conn: conn}
}

var errProgressionNotFound = shared.NewDomainError("progression", "Find", shared.ErrNotFound, "progression not found")

// GetOrCreate inserts the default progression or returns the existing row.
// The no-op DO UPDATE makes RETURNING yield the winner's row under a race.
func (r *ProgressionRepository) GetOrCreate(ctx context.Context, studentID string, now time.Time) (*progression.Progression, error) {
	defer observe("get_or_create", "student_progressions", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	p, err := progression.NewProgression(studentID, now)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO student_progressions (id, student_id, current_phase, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (student_id) DO UPDATE SET student_id = EXCLUDED.student_id
		RETURNING id, student_id, current_phase, created_at, updated_at
	`
	out, err := scanProgression(r.conn.QueryRow(ctx, query, p.ID, p.StudentID, string(p.CurrentPhase), now))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, shared.Validation("progression", "GetOrCreate", "unknown student")
		}
		return nil, fmt.Errorf("get or create progression: %w", err)
	}
	return out, nil
}

// GetByStudent implements progression.Repository.
func (r *ProgressionRepository) GetByStudent(ctx context.Context, studentID string) (*progression.Progression, error) {
	defer observe("get", "student_progressions", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, student_id, current_phase, created_at, updated_at
		FROM student_progressions
		WHERE student_id = $1
	`
	p, err := scanProgression(r.conn.QueryRow(ctx, query, studentID))
	if err != nil {
		if IsNoRows(err) {
			return nil, errProgressionNotFound
		}
		return nil, fmt.Errorf("get progression: %w", err)
	}
	return p, nil
}

// SetMilestoneCompletion stamps a milestone inside one transaction.
// The row is materialized first (ON CONFLICT DO NOTHING waits for a
// concurrent inserter) and then locked, so the previous flag read under the
// lock is the committed one and only a single caller observes a transition.
func (r *ProgressionRepository) SetMilestoneCompletion(ctx context.Context, progressionID, milestoneID string, completed bool, now time.Time) (*progression.MilestoneProgress, bool, error) {
	defer observe("upsert", "milestone_progress", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		out     progression.MilestoneProgress
		changed bool
	)
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO milestone_progress (progression_id, milestone_id, completed, completed_at, updated_at)
			VALUES ($1, $2, FALSE, NULL, $3)
			ON CONFLICT (progression_id, milestone_id) DO NOTHING
		`, progressionID, milestoneID, now); err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrUnknownMilestone
			}
			return fmt.Errorf("materialize milestone progress: %w", err)
		}

		var prev progression.MilestoneProgress
		if err := tx.QueryRow(ctx, `
			SELECT progression_id, milestone_id, completed, completed_at, updated_at
			FROM milestone_progress
			WHERE progression_id = $1 AND milestone_id = $2
			FOR UPDATE
		`, progressionID, milestoneID).Scan(&prev.ProgressionID, &prev.MilestoneID, &prev.Completed, &prev.CompletedAt, &prev.UpdatedAt); err != nil {
			return fmt.Errorf("lock milestone progress: %w", err)
		}

		out, changed = progression.ApplyCompletion(&prev, progressionID, milestoneID, completed, now)
		if _, err := tx.Exec(ctx, `
			UPDATE milestone_progress SET completed = $3, completed_at = $4, updated_at = $5
			WHERE progression_id = $1 AND milestone_id = $2
		`, progressionID, milestoneID, out.Completed, out.CompletedAt, out.UpdatedAt); err != nil {
			return fmt.Errorf("set milestone completion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, changed, nil
}

// ListMilestoneProgress implements progression.Repository.
func (r *ProgressionRepository) ListMilestoneProgress(ctx context.Context, progressionID string) ([]progression.MilestoneProgress, error) {
	defer observe("list", "milestone_progress", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT progression_id, milestone_id, completed, completed_at, updated_at
		FROM milestone_progress
		WHERE progression_id = $1
		ORDER BY milestone_id
	`
	rows, err := r.conn.Query(ctx, query, progressionID)
	if err != nil {
		return nil, fmt.Errorf("list milestone progress: %w", err)
	}
	defer rows.Close()

	out := make([]progression.MilestoneProgress, 0)
	for rows.Next() {
		var mp progression.MilestoneProgress
		if err := rows.Scan(&mp.ProgressionID, &mp.MilestoneID, &mp.Completed, &mp.CompletedAt, &mp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan milestone progress: %w", err)
		}
		out = append(out, mp)
	}
	return out, rows.Err()
}

// SetCurrentPhase implements progression.Repository.
func (r *ProgressionRepository) SetCurrentPhase(ctx context.Context, progressionID string, phase schedule.Phase, now time.Time) (*progression.Progression, error) {
	defer observe("update", "student_progressions", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE student_progressions SET current_phase = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, student_id, current_phase, created_at, updated_at
	`
	p, err := scanProgression(r.conn.QueryRow(ctx, query, progressionID, string(phase), now))
	if err != nil {
		if IsNoRows(err) {
			return nil, errProgressionNotFound
		}
		return nil, fmt.Errorf("set current phase: %w", err)
	}
	return p, nil
}

func scanProgression(row pgx.Row) (*progression.Progression, error) {
	var p progression.Progression
	var phase string
	if err := row.Scan(&p.ID, &p.StudentID, &phase, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CurrentPhase = schedule.Phase(phase)
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements progression.CatalogReader for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

var _ progression.CatalogReader = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// ListMilestones returns the catalog ordered by phase, then position.
func (r *CatalogRepository) ListMilestones(ctx context.Context) ([]progression.Milestone, error) {
	defer observe("list", "milestones", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `SELECT id, name, phase, position FROM milestones ORDER BY phase, position`)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	out := make([]progression.Milestone, 0, 16)
	for rows.Next() {
		var m progression.Milestone
		var phase string
		if err := rows.Scan(&m.ID, &m.Name, &phase, &m.Position); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		m.Phase = schedule.Phase(phase)
		out = append(out, m)
	}
	return out, rows.Err()
}
