// Package memory implements every repository on in-process maps.
// It backs the worker in development (no DATABASE_URL) and the application
// tests. A single mutex serializes all writes, so the uniqueness rules hold
// under concurrency exactly as the Postgres constraints do.
package memory

import (
	"sync"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// Store holds all tables.
type Store struct {
	mu sync.RWMutex

	milestones []progression.Milestone

	// progressions keyed by student ID (unique on student).
	progressions map[string]*progression.Progression
	// milestoneProgress keyed by progression ID, then milestone ID.
	milestoneProgress map[string]map[string]*progression.MilestoneProgress

	// schedules keyed by group ID, then phase.
	schedules map[string]map[schedule.Phase]*schedule.PhaseSchedule

	leads map[string]*lead.Lead
	// leadKeys enforces unique (student, company).
	leadKeys map[[2]string]string

	placements map[string]*placement.Placement
	// placementByStudent enforces unique student.
	placementByStudent map[string]string

	educations map[string]*student.Education
	groups     map[string]*student.CareerGroup
	students   map[string]*student.Student
	companies  map[string]*student.Company
}

// NewStore creates an empty store seeded with the default milestone catalog.
func NewStore() *Store {
	return &Store{
		milestones:         progression.DefaultCatalog(),
		progressions:       make(map[string]*progression.Progression),
		milestoneProgress:  make(map[string]map[string]*progression.MilestoneProgress),
		schedules:          make(map[string]map[schedule.Phase]*schedule.PhaseSchedule),
		leads:              make(map[string]*lead.Lead),
		leadKeys:           make(map[[2]string]string),
		placements:         make(map[string]*placement.Placement),
		placementByStudent: make(map[string]string),
		educations:         make(map[string]*student.Education),
		groups:             make(map[string]*student.CareerGroup),
		students:           make(map[string]*student.Student),
		companies:          make(map[string]*student.Company),
	}
}

// SetCatalog replaces the milestone catalog.
func (s *Store) SetCatalog(catalog []progression.Milestone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = append([]progression.Milestone(nil), catalog...)
}

// Progressions returns the progression repository view.
func (s *Store) Progressions() *ProgressionRepo { return &ProgressionRepo{s: s} }

// Catalog returns the milestone catalog view.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// Schedules returns the schedule repository view.
func (s *Store) Schedules() *ScheduleRepo { return &ScheduleRepo{s: s} }

// Leads returns the lead repository view.
func (s *Store) Leads() *LeadRepo { return &LeadRepo{s: s} }

// Placements returns the placement repository view.
func (s *Store) Placements() *PlacementRepo { return &PlacementRepo{s: s} }

// Directory returns the student directory view.
func (s *Store) Directory() *DirectoryRepo { return &DirectoryRepo{s: s} }

var (
	_ progression.Repository    = (*ProgressionRepo)(nil)
	_ progression.CatalogReader = (*CatalogRepo)(nil)
	_ schedule.Repository       = (*ScheduleRepo)(nil)
	_ lead.Repository           = (*LeadRepo)(nil)
	_ placement.Repository      = (*PlacementRepo)(nil)
	_ student.Directory         = (*DirectoryRepo)(nil)
	_ student.Writer            = (*DirectoryRepo)(nil)
)
