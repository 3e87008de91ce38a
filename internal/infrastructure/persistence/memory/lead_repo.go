package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// LeadRepo implements lead.Repository.
type LeadRepo struct{ s *Store }

// Create implements lead.Repository.
func (r *LeadRepo) Create(_ context.Context, l *lead.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := [2]string{l.StudentID, l.CompanyID}
	if _, exists := r.s.leadKeys[key]; exists {
		return shared.ErrLeadExists
	}
	cp := *l
	r.s.leads[l.ID] = &cp
	r.s.leadKeys[key] = l.ID
	return nil
}

// owned must be called with mu held.
func (r *LeadRepo) owned(leadID, studentID string) (*lead.Lead, bool) {
	l, ok := r.s.leads[leadID]
	if !ok || l.StudentID != studentID {
		return nil, false
	}
	return l, true
}

// Update implements lead.Repository.
func (r *LeadRepo) Update(_ context.Context, leadID, studentID string, patch lead.Patch, now time.Time) (*lead.Lead, lead.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.owned(leadID, studentID)
	if !ok {
		return nil, "", shared.ErrLeadNotFound
	}
	prev := current.Status
	next, _ := patch.Apply(*current, now)
	*current = next

	cp := next
	return &cp, prev, nil
}

// Delete implements lead.Repository.
func (r *LeadRepo) Delete(_ context.Context, leadID, studentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.owned(leadID, studentID)
	if !ok {
		return shared.ErrLeadNotFound
	}
	delete(r.s.leadKeys, [2]string{l.StudentID, l.CompanyID})
	delete(r.s.leads, leadID)
	return nil
}

// Get implements lead.Repository.
func (r *LeadRepo) Get(_ context.Context, leadID, studentID string) (*lead.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.owned(leadID, studentID)
	if !ok {
		return nil, shared.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

// ExistsForCompany implements lead.Repository.
func (r *LeadRepo) ExistsForCompany(_ context.Context, studentID, companyID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.leadKeys[[2]string{studentID, companyID}]
	return ok, nil
}

// ListByStudent implements lead.Repository.
func (r *LeadRepo) ListByStudent(_ context.Context, studentID string) ([]*lead.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*lead.Lead
	for _, l := range r.s.leads {
		if l.StudentID == studentID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
