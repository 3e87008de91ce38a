package memory

import (
	"context"
	"sort"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// DirectoryRepo implements student.Directory and student.Writer.
type DirectoryRepo struct{ s *Store }

// GetByID implements student.Directory.
func (r *DirectoryRepo) GetByID(_ context.Context, id string) (*student.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	cp := *st
	return &cp, nil
}

// ListByGroup implements student.Directory. Only STUDENT members are returned.
func (r *DirectoryRepo) ListByGroup(_ context.Context, careerGroupID string) ([]*student.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*student.Student
	for _, st := range r.s.students {
		if st.CareerGroupID == careerGroupID && st.Role == shared.RoleStudent {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName() != out[j].DisplayName() {
			return out[i].DisplayName() < out[j].DisplayName()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetGroup implements student.Directory.
func (r *DirectoryRepo) GetGroup(_ context.Context, id string) (*student.CareerGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, student.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

// SaveEducation implements student.Writer.
func (r *DirectoryRepo) SaveEducation(_ context.Context, e *student.Education) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	r.s.educations[e.ID] = &cp
	return nil
}

// SaveGroup implements student.Writer.
func (r *DirectoryRepo) SaveGroup(_ context.Context, g *student.CareerGroup) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *g
	r.s.groups[g.ID] = &cp
	return nil
}

// SaveStudent implements student.Writer.
func (r *DirectoryRepo) SaveStudent(_ context.Context, st *student.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *st
	if cp.Role == "" {
		cp.Role = shared.RoleStudent
	}
	r.s.students[st.ID] = &cp
	return nil
}

// GetCompany implements student.Directory.
func (r *DirectoryRepo) GetCompany(_ context.Context, id string) (*student.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.companies[id]
	if !ok {
		return nil, student.ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

// SaveCompany implements student.Writer.
func (r *DirectoryRepo) SaveCompany(_ context.Context, c *student.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	if cp.Status == "" {
		cp.Status = student.CompanyPending
	}
	r.s.companies[c.ID] = &cp
	return nil
}
