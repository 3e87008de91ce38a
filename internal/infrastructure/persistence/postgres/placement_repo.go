package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// PlacementRepository implements placement.Repository for PostgreSQL.
type PlacementRepository struct {
	conn *Connection
}

var _ placement.Repository = (*PlacementRepository)(nil)

// NewPlacementRepository creates a new PlacementRepository.
func NewPlacementRepository(conn *Connection) *PlacementRepository {
	return &PlacementRepository{conn: conn}
}

const placementColumns = `id, student_id, company_id, supervisor, supervisor_email, start_date, end_date, status, created_at, updated_at`

// Create implements placement.Repository.
func (r *PlacementRepository) Create(ctx context.Context, p *placement.Placement) error {
	defer observe("insert", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO lia_placements (`+placementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.StudentID, p.CompanyID, p.Supervisor, p.SupervisorEmail, p.StartDate, p.EndDate, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrPlacementExists
		case IsForeignKeyViolation(err):
			return shared.Validation("placement", "Create", "unknown student or company")
		}
		return fmt.Errorf("insert placement: %w", err)
	}
	return nil
}

// GetByID implements placement.Repository.
func (r *PlacementRepository) GetByID(ctx context.Context, id string) (*placement.Placement, error) {
	return r.getOne(ctx, "id", id)
}

// GetByStudent implements placement.Repository.
func (r *PlacementRepository) GetByStudent(ctx context.Context, studentID string) (*placement.Placement, error) {
	return r.getOne(ctx, "student_id", studentID)
}

// getOne is only called with a fixed column name.
func (r *PlacementRepository) getOne(ctx context.Context, column, value string) (*placement.Placement, error) {
	defer observe("get", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	p, err := scanPlacement(r.conn.QueryRow(ctx,
		`SELECT `+placementColumns+` FROM lia_placements WHERE `+column+` = $1`, value))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlacementNotFound
		}
		return nil, fmt.Errorf("get placement: %w", err)
	}
	return p, nil
}

// UpdateDetails implements placement.Repository. The row is locked for the
// merge and the UPDATE never names status, so a concurrent review survives.
func (r *PlacementRepository) UpdateDetails(ctx context.Context, studentID string, patch placement.DetailsPatch, now time.Time) (*placement.Placement, error) {
	defer observe("update_details", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var updated *placement.Placement
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := scanPlacement(tx.QueryRow(ctx, `
			SELECT `+placementColumns+`
			FROM lia_placements
			WHERE student_id = $1
			FOR UPDATE
		`, studentID))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrPlacementNotFound
			}
			return fmt.Errorf("lock placement: %w", err)
		}

		next, err := patch.Apply(*current, now)
		if err != nil {
			return err
		}

		updated, err = scanPlacement(tx.QueryRow(ctx, `
			UPDATE lia_placements SET
				company_id = $2,
				supervisor = $3,
				supervisor_email = $4,
				start_date = $5,
				end_date = $6,
				updated_at = $7
			WHERE student_id = $1
			RETURNING `+placementColumns,
			studentID, next.CompanyID, next.Supervisor, next.SupervisorEmail, next.StartDate, next.EndDate, next.UpdatedAt))
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.Validation("placement", "UpdateDetails", "unknown company")
			}
			return fmt.Errorf("update placement details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Review implements placement.Repository.
func (r *PlacementRepository) Review(ctx context.Context, id string, patch placement.ReviewPatch, now time.Time) (*placement.Placement, placement.Status, error) {
	defer observe("review", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		updated *placement.Placement
		prev    placement.Status
	)
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := scanPlacement(tx.QueryRow(ctx, `
			SELECT `+placementColumns+`
			FROM lia_placements
			WHERE id = $1
			FOR UPDATE
		`, id))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrPlacementNotFound
			}
			return fmt.Errorf("lock placement: %w", err)
		}

		prev = current.Status
		next, err := patch.Apply(*current, now)
		if err != nil {
			return err
		}

		updated, err = scanPlacement(tx.QueryRow(ctx, `
			UPDATE lia_placements SET
				company_id = $2,
				supervisor = $3,
				supervisor_email = $4,
				start_date = $5,
				end_date = $6,
				status = $7,
				updated_at = $8
			WHERE id = $1
			RETURNING `+placementColumns,
			id, next.CompanyID, next.Supervisor, next.SupervisorEmail, next.StartDate, next.EndDate, string(next.Status), next.UpdatedAt))
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.Validation("placement", "Review", "unknown company")
			}
			return fmt.Errorf("review placement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, prev, nil
}

// Delete implements placement.Repository.
func (r *PlacementRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	tag, err := r.conn.Exec(ctx, `DELETE FROM lia_placements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete placement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPlacementNotFound
	}
	return nil
}

// ListByStudents implements placement.Repository.
func (r *PlacementRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]*placement.Placement, error) {
	if len(studentIDs) == 0 {
		return []*placement.Placement{}, nil
	}
	defer observe("list", "lia_placements", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT `+placementColumns+`
		FROM lia_placements
		WHERE student_id = ANY($1)
		ORDER BY student_id
	`, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()

	out := make([]*placement.Placement, 0, len(studentIDs))
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlacement(row pgx.Row) (*placement.Placement, error) {
	var p placement.Placement
	var status string
	err := row.Scan(
		&p.ID, &p.StudentID, &p.CompanyID, &p.Supervisor, &p.SupervisorEmail,
		&p.StartDate, &p.EndDate, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = placement.Status(status)
	return &p, nil
}
