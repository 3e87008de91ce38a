package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// LeadRepository implements lead.Repository for PostgreSQL.
// Every statement filters on student_id so a foreign lead reads as missing.
type LeadRepository struct {
	conn *Connection
}

var _ lead.Repository = (*LeadRepository)(nil)

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(conn *Connection) *LeadRepository {
	return &LeadRepository{conn: conn}
}

const leadColumns = `id, student_id, company_id, contact_id, status, contact_attempts, last_contact_at, notes, created_at, updated_at`

// Create implements lead.Repository.
func (r *LeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	defer observe("insert", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, l.ID, l.StudentID, l.CompanyID, l.ContactID, string(l.Status), l.ContactAttempts, l.LastContactAt, l.Notes, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrLeadExists
		case IsForeignKeyViolation(err):
			return shared.Validation("lead", "Create", "unknown student or company")
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// Update locks the row, applies the patch in Go and writes it back, so the
// attempt counter and the returned previous status come from the same snapshot.
func (r *LeadRepository) Update(ctx context.Context, leadID, studentID string, patch lead.Patch, now time.Time) (*lead.Lead, lead.Status, error) {
	defer observe("update", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		updated *lead.Lead
		prev    lead.Status
	)
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := scanLead(tx.QueryRow(ctx, `
			SELECT `+leadColumns+`
			FROM leads
			WHERE id = $1 AND student_id = $2
			FOR UPDATE
		`, leadID, studentID))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrLeadNotFound
			}
			return fmt.Errorf("lock lead: %w", err)
		}

		prev = current.Status
		next, _ := patch.Apply(*current, now)

		_, err = tx.Exec(ctx, `
			UPDATE leads SET
				status = $3,
				contact_id = $4,
				contact_attempts = $5,
				last_contact_at = $6,
				notes = $7,
				updated_at = $8
			WHERE id = $1 AND student_id = $2
		`, leadID, studentID, string(next.Status), next.ContactID, next.ContactAttempts, next.LastContactAt, next.Notes, next.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update lead: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, prev, nil
}

// Delete implements lead.Repository.
func (r *LeadRepository) Delete(ctx context.Context, leadID, studentID string) error {
	defer observe("delete", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	tag, err := r.conn.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND student_id = $2`, leadID, studentID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLeadNotFound
	}
	return nil
}

// Get implements lead.Repository.
func (r *LeadRepository) Get(ctx context.Context, leadID, studentID string) (*lead.Lead, error) {
	defer observe("get", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	l, err := scanLead(r.conn.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND student_id = $2
	`, leadID, studentID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeadNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// ExistsForCompany implements lead.Repository.
func (r *LeadRepository) ExistsForCompany(ctx context.Context, studentID, companyID string) (bool, error) {
	defer observe("exists", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.conn.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM leads WHERE student_id = $1 AND company_id = $2)
	`, studentID, companyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead exists: %w", err)
	}
	return exists, nil
}

// ListByStudent implements lead.Repository.
func (r *LeadRepository) ListByStudent(ctx context.Context, studentID string) ([]*lead.Lead, error) {
	defer observe("list", "leads", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE student_id = $1
		ORDER BY updated_at DESC, id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*lead.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*lead.Lead, error) {
	var l lead.Lead
	var status string
	err := row.Scan(
		&l.ID, &l.StudentID, &l.CompanyID, &l.ContactID, &status,
		&l.ContactAttempts, &l.LastContactAt, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = lead.Status(status)
	return &l, nil
}
