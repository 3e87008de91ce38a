package command

import (
	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// Repositories are the storage ports the write side needs.
type Repositories struct {
	Progressions progression.Repository
	Catalog      progression.CatalogReader
	Schedules    schedule.Repository
	Directory    student.Directory
	Leads        lead.Repository
	Placements   placement.Repository
}

// Commands bundles every write handler over one set of Deps, so the
// publisher the notification handlers subscribe to is the one every
// state change goes through.
type Commands struct {
	EnsureProgression      *EnsureProgressionHandler
	SetMilestoneCompletion *SetMilestoneCompletionHandler
	AdvancePhase           *AdvancePhaseHandler

	CreateLead *CreateLeadHandler
	UpdateLead *UpdateLeadHandler
	DeleteLead *DeleteLeadHandler

	CreatePlacement    *CreatePlacementHandler
	ReviewPlacement    *ReviewPlacementHandler
	UpdateOwnPlacement *UpdateOwnPlacementHandler
	DeletePlacement    *DeletePlacementHandler
}

// NewCommands creates all handlers. The phase guard follows the feature flags.
func NewCommands(repos Repositories, features *config.FeatureFlags, deps Deps) *Commands {
	return &Commands{
		EnsureProgression:      NewEnsureProgressionHandler(repos.Progressions, deps),
		SetMilestoneCompletion: NewSetMilestoneCompletionHandler(repos.Progressions, repos.Catalog, deps),
		AdvancePhase:           NewAdvancePhaseHandler(repos.Progressions, repos.Schedules, repos.Directory, features, nil, deps),

		CreateLead: NewCreateLeadHandler(repos.Leads, deps),
		UpdateLead: NewUpdateLeadHandler(repos.Leads, deps),
		DeleteLead: NewDeleteLeadHandler(repos.Leads, deps),

		CreatePlacement:    NewCreatePlacementHandler(repos.Placements, deps),
		ReviewPlacement:    NewReviewPlacementHandler(repos.Placements, deps),
		UpdateOwnPlacement: NewUpdateOwnPlacementHandler(repos.Placements, deps),
		DeletePlacement:    NewDeletePlacementHandler(repos.Placements, deps),
	}
}
