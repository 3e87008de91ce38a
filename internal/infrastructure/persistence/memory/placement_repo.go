package memory

import (
	"context"
	"time"

	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// PlacementRepo implements placement.Repository.
type PlacementRepo struct{ s *Store }

// Create implements placement.Repository.
func (r *PlacementRepo) Create(_ context.Context, p *placement.Placement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.placementByStudent[p.StudentID]; exists {
		return shared.ErrPlacementExists
	}
	cp := *p
	r.s.placements[p.ID] = &cp
	r.s.placementByStudent[p.StudentID] = p.ID
	return nil
}

// GetByID implements placement.Repository.
func (r *PlacementRepo) GetByID(_ context.Context, id string) (*placement.Placement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.placements[id]
	if !ok {
		return nil, shared.ErrPlacementNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByStudent implements placement.Repository.
func (r *PlacementRepo) GetByStudent(_ context.Context, studentID string) (*placement.Placement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.placementByStudent[studentID]
	if !ok {
		return nil, shared.ErrPlacementNotFound
	}
	cp := *r.s.placements[id]
	return &cp, nil
}

// UpdateDetails implements placement.Repository. Status is carried over from
// the stored row.
func (r *PlacementRepo) UpdateDetails(_ context.Context, studentID string, patch placement.DetailsPatch, now time.Time) (*placement.Placement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.placementByStudent[studentID]
	if !ok {
		return nil, shared.ErrPlacementNotFound
	}
	current := r.s.placements[id]
	next, err := patch.Apply(*current, now)
	if err != nil {
		return nil, err
	}
	next.Status = current.Status
	*current = next

	cp := next
	return &cp, nil
}

// Review implements placement.Repository.
func (r *PlacementRepo) Review(_ context.Context, id string, patch placement.ReviewPatch, now time.Time) (*placement.Placement, placement.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.placements[id]
	if !ok {
		return nil, "", shared.ErrPlacementNotFound
	}
	prev := current.Status
	next, err := patch.Apply(*current, now)
	if err != nil {
		return nil, "", err
	}
	*current = next

	cp := next
	return &cp, prev, nil
}

// Delete implements placement.Repository.
func (r *PlacementRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.placements[id]
	if !ok {
		return shared.ErrPlacementNotFound
	}
	delete(r.s.placementByStudent, p.StudentID)
	delete(r.s.placements, id)
	return nil
}

// ListByStudents implements placement.Repository.
func (r *PlacementRepo) ListByStudents(_ context.Context, studentIDs []string) ([]*placement.Placement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*placement.Placement, 0, len(studentIDs))
	for _, sid := range studentIDs {
		if id, ok := r.s.placementByStudent[sid]; ok {
			cp := *r.s.placements[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}
