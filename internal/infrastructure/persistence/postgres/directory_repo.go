package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// DirectoryRepository implements student.Directory and student.Writer.
// Empty optional references are stored as NULL.
type DirectoryRepository struct {
	conn *Connection
}

var (
	_ student.Directory = (*DirectoryRepository)(nil)
	_ student.Writer    = (*DirectoryRepository)(nil)
)

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(conn *Connection) *DirectoryRepository {
	return &DirectoryRepository{conn: conn}
}

const userColumns = `id, name, COALESCE(email, ''), role, COALESCE(career_group_id, ''), slack_user_id, created_at`

// GetByID implements student.Directory.
func (r *DirectoryRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	defer observe("get", "users", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	st, err := scanStudent(r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

// ListByGroup implements student.Directory.
// Ordering mirrors DisplayName with byte-wise collation.
func (r *DirectoryRepository) ListByGroup(ctx context.Context, careerGroupID string) ([]*student.Student, error) {
	defer observe("list", "users", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE career_group_id = $1 AND role = 'STUDENT'
		ORDER BY COALESCE(NULLIF(TRIM(name), ''), email, '') COLLATE "C", id
	`, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	defer rows.Close()

	var out []*student.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetGroup implements student.Directory.
func (r *DirectoryRepository) GetGroup(ctx context.Context, id string) (*student.CareerGroup, error) {
	defer observe("get", "career_groups", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var g student.CareerGroup
	err := r.conn.QueryRow(ctx, `
		SELECT id, name, COALESCE(education_id, ''), region, created_at
		FROM career_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.EducationID, &g.Region, &g.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

// GetCompany implements student.Directory.
func (r *DirectoryRepository) GetCompany(ctx context.Context, id string) (*student.Company, error) {
	defer observe("get", "companies", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var c student.Company
	var status string
	err := r.conn.QueryRow(ctx, `SELECT id, name, status, created_at FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &status, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, student.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.Status = student.CompanyStatus(status)
	return &c, nil
}

// SaveEducation implements student.Writer.
func (r *DirectoryRepository) SaveEducation(ctx context.Context, e *student.Education) error {
	defer observe("upsert", "educations", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO educations (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
	`, e.ID, e.Name, e.Description, createdAt(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("save education: %w", err)
	}
	return nil
}

// SaveGroup implements student.Writer.
func (r *DirectoryRepository) SaveGroup(ctx context.Context, g *student.CareerGroup) error {
	defer observe("upsert", "career_groups", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO career_groups (id, name, education_id, region, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			education_id = EXCLUDED.education_id,
			region = EXCLUDED.region
	`, g.ID, g.Name, g.EducationID, g.Region, createdAt(g.CreatedAt))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.Validation("student", "SaveGroup", "unknown education")
		}
		return fmt.Errorf("save group: %w", err)
	}
	return nil
}

// SaveStudent implements student.Writer.
func (r *DirectoryRepository) SaveStudent(ctx context.Context, st *student.Student) error {
	defer observe("upsert", "users", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	role := st.Role
	if role == "" {
		role = shared.RoleStudent
	}
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, name, email, role, career_group_id, slack_user_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			career_group_id = EXCLUDED.career_group_id,
			slack_user_id = EXCLUDED.slack_user_id
	`, st.ID, st.Name, st.Email, string(role), st.CareerGroupID, st.SlackUserID, createdAt(st.CreatedAt))
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.NewDomainError("student", "SaveStudent", shared.ErrConflict, "email already in use")
		case IsForeignKeyViolation(err):
			return shared.Validation("student", "SaveStudent", "unknown career group")
		}
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

// SaveCompany implements student.Writer.
func (r *DirectoryRepository) SaveCompany(ctx context.Context, c *student.Company) error {
	defer observe("upsert", "companies", time.Now())
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	status := c.Status
	if status == "" {
		status = student.CompanyPending
	}
	_, err := r.conn.Exec(ctx, `
		INSERT INTO companies (id, name, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, status = EXCLUDED.status
	`, c.ID, c.Name, string(status), createdAt(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("save company: %w", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (*student.Student, error) {
	var st student.Student
	var role string
	if err := row.Scan(&st.ID, &st.Name, &st.Email, &role, &st.CareerGroupID, &st.SlackUserID, &st.CreatedAt); err != nil {
		return nil, err
	}
	st.Role = shared.Role(role)
	return &st, nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
