package memory

import (
	"context"
	"sort"
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ScheduleRepo implements schedule.Repository.
type ScheduleRepo struct{ s *Store }

// ListByGroup implements schedule.Repository.
func (r *ScheduleRepo) ListByGroup(_ context.Context, careerGroupID string) ([]*schedule.PhaseSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*schedule.PhaseSchedule, 0, 4)
	for _, ps := range r.s.schedules[careerGroupID] {
		cp := *ps
		out = append(out, &cp)
	}
	schedule.SortByPhase(out)
	return out, nil
}

// Get implements schedule.Repository.
func (r *ScheduleRepo) Get(_ context.Context, careerGroupID string, phase schedule.Phase) (*schedule.PhaseSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ps, ok := r.s.schedules[careerGroupID][phase]
	if !ok {
		return nil, shared.ErrScheduleNotFound
	}
	cp := *ps
	return &cp, nil
}

// ListWithDeadlineBetween implements schedule.Repository.
func (r *ScheduleRepo) ListWithDeadlineBetween(_ context.Context, from, to time.Time) ([]*schedule.PhaseSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*schedule.PhaseSchedule
	for _, byPhase := range r.s.schedules {
		for _, ps := range byPhase {
			if ps.Deadline != nil && timeutil.Between(*ps.Deadline, from, to) {
				cp := *ps
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(*out[j].Deadline) {
			return out[i].Deadline.Before(*out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Upsert implements schedule.Repository.
func (r *ScheduleRepo) Upsert(_ context.Context, ps *schedule.PhaseSchedule) error {
	if err := ps.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byPhase, ok := r.s.schedules[ps.CareerGroupID]
	if !ok {
		byPhase = make(map[schedule.Phase]*schedule.PhaseSchedule)
		r.s.schedules[ps.CareerGroupID] = byPhase
	}
	if existing, ok := byPhase[ps.Phase]; ok {
		ps.ID = existing.ID
		ps.CreatedAt = existing.CreatedAt
	} else if ps.ID == "" {
		ps.ID = shared.NewID()
	}
	cp := *ps
	byPhase[ps.Phase] = &cp
	return nil
}
