package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ProgressionRepo implements progression.Repository.
type ProgressionRepo struct{ s *Store }

// GetOrCreate implements progression.Repository.
func (r *ProgressionRepo) GetOrCreate(_ context.Context, studentID string, now time.Time) (*progression.Progression, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.progressions[studentID]; ok {
		cp := *p
		return &cp, nil
	}
	p, err := progression.NewProgression(studentID, now)
	if err != nil {
		return nil, err
	}
	r.s.progressions[studentID] = p
	cp := *p
	return &cp, nil
}

// GetByStudent implements progression.Repository.
func (r *ProgressionRepo) GetByStudent(_ context.Context, studentID string) (*progression.Progression, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.progressions[studentID]
	if !ok {
		return nil, shared.NewDomainError("progression", "GetByStudent", shared.ErrNotFound, "progression not found")
	}
	cp := *p
	return &cp, nil
}

// SetMilestoneCompletion implements progression.Repository.
func (r *ProgressionRepo) SetMilestoneCompletion(_ context.Context, progressionID, milestoneID string, completed bool, now time.Time) (*progression.MilestoneProgress, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := progression.FindMilestone(r.s.milestones, milestoneID); !ok {
		return nil, false, shared.ErrUnknownMilestone
	}

	rows, ok := r.s.milestoneProgress[progressionID]
	if !ok {
		rows = make(map[string]*progression.MilestoneProgress)
		r.s.milestoneProgress[progressionID] = rows
	}

	next, changed := progression.ApplyCompletion(rows[milestoneID], progressionID, milestoneID, completed, now)
	rows[milestoneID] = &next

	cp := next
	return &cp, changed, nil
}

// ListMilestoneProgress implements progression.Repository.
func (r *ProgressionRepo) ListMilestoneProgress(_ context.Context, progressionID string) ([]progression.MilestoneProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := r.s.milestoneProgress[progressionID]
	out := make([]progression.MilestoneProgress, 0, len(rows))
	for _, mp := range rows {
		out = append(out, *mp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MilestoneID < out[j].MilestoneID })
	return out, nil
}

// SetCurrentPhase implements progression.Repository.
func (r *ProgressionRepo) SetCurrentPhase(_ context.Context, progressionID string, phase schedule.Phase, now time.Time) (*progression.Progression, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.progressions {
		if p.ID == progressionID {
			p.CurrentPhase = phase
			p.UpdatedAt = now
			cp := *p
			return &cp, nil
		}
	}
	return nil, shared.NewDomainError("progression", "SetCurrentPhase", shared.ErrNotFound, "progression not found")
}

// CatalogRepo implements progression.CatalogReader.
type CatalogRepo struct{ s *Store }

// ListMilestones implements progression.CatalogReader.
func (r *CatalogRepo) ListMilestones(_ context.Context) ([]progression.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := append([]progression.Milestone(nil), r.s.milestones...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Phase != out[j].Phase {
			return out[i].Phase.Order() < out[j].Phase.Order()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}
