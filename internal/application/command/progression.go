package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENSURE PROGRESSION
// ══════════════════════════════════════════════════════════════════════════════

// EnsureProgressionCommand creates the student's progression if it is missing.
type EnsureProgressionCommand struct {
	StudentID string
}

// Validate validates the command.
func (c EnsureProgressionCommand) Validate() error {
	if !shared.IsValidID(c.StudentID) {
		return shared.Validation("progression", "Ensure", "studentId is required")
	}
	return nil
}

// EnsureProgressionHandler handles EnsureProgressionCommand.
type EnsureProgressionHandler struct {
	repo progression.Repository
	deps Deps
}

// NewEnsureProgressionHandler creates a new EnsureProgressionHandler.
func NewEnsureProgressionHandler(repo progression.Repository, deps Deps) *EnsureProgressionHandler {
	return &EnsureProgressionHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle returns the existing progression or the freshly created one.
// Concurrent calls for the same student converge on one row.
func (h *EnsureProgressionHandler) Handle(ctx context.Context, cmd EnsureProgressionCommand) (p *progression.Progression, err error) {
	defer func() { record("ensure_progression", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	p, err = h.repo.GetOrCreate(ctx, cmd.StudentID, h.deps.Clock())
	if err != nil {
		return nil, fmt.Errorf("ensure_progression: %w", err)
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SET MILESTONE COMPLETION
// ══════════════════════════════════════════════════════════════════════════════

// SetMilestoneCompletionCommand marks one milestone completed or not completed.
type SetMilestoneCompletionCommand struct {
	StudentID   string
	MilestoneID string
	Completed   bool
}

// Validate validates the command.
func (c SetMilestoneCompletionCommand) Validate() error {
	if !shared.IsValidID(c.StudentID) {
		return shared.Validation("progression", "SetMilestone", "studentId is required")
	}
	if !shared.IsValidID(c.MilestoneID) {
		return shared.Validation("progression", "SetMilestone", "milestoneId is required")
	}
	return nil
}

// SetMilestoneCompletionResult contains the stored row and whether it changed.
type SetMilestoneCompletionResult struct {
	Progress *progression.MilestoneProgress
	Changed  bool
}

// SetMilestoneCompletionHandler handles SetMilestoneCompletionCommand.
type SetMilestoneCompletionHandler struct {
	repo    progression.Repository
	catalog progression.CatalogReader
	deps    Deps
}

// NewSetMilestoneCompletionHandler creates a new SetMilestoneCompletionHandler.
func NewSetMilestoneCompletionHandler(repo progression.Repository, catalog progression.CatalogReader, deps Deps) *SetMilestoneCompletionHandler {
	return &SetMilestoneCompletionHandler{repo: repo, catalog: catalog, deps: deps.withDefaults()}
}

// Handle executes the command. Repeating the same value is a no-op that keeps
// the original completion timestamp.
func (h *SetMilestoneCompletionHandler) Handle(ctx context.Context, cmd SetMilestoneCompletionCommand) (res *SetMilestoneCompletionResult, err error) {
	defer func() { record("set_milestone_completion", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	catalog, err := h.catalog.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("set_milestone_completion: load catalog: %w", err)
	}
	milestone, ok := progression.FindMilestone(catalog, cmd.MilestoneID)
	if !ok {
		return nil, shared.ErrUnknownMilestone
	}

	now := h.deps.Clock()
	p, err := h.repo.GetOrCreate(ctx, cmd.StudentID, now)
	if err != nil {
		return nil, fmt.Errorf("set_milestone_completion: ensure progression: %w", err)
	}

	mp, changed, err := h.repo.SetMilestoneCompletion(ctx, p.ID, cmd.MilestoneID, cmd.Completed, now)
	if err != nil {
		return nil, fmt.Errorf("set_milestone_completion: %w", err)
	}

	if changed {
		h.deps.Logger.Info("milestone completion changed",
			logger.StudentID(cmd.StudentID),
			logger.MilestoneID(cmd.MilestoneID),
			logger.Bool("completed", cmd.Completed),
		)
		if cmd.Completed {
			h.deps.publish(shared.NewMilestoneCompletedEvent(
				cmd.StudentID, milestone.ID, milestone.Name, milestone.Phase.String(), now,
			))
		} else {
			h.deps.publish(shared.NewSimpleEvent(shared.EventMilestoneReopened, cmd.StudentID,
				map[string]interface{}{"milestone_id": milestone.ID}, now))
		}
	}

	return &SetMilestoneCompletionResult{Progress: mp, Changed: changed}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE PHASE
// ══════════════════════════════════════════════════════════════════════════════

// AdvancePhaseCommand moves a student to another phase. Staff only.
type AdvancePhaseCommand struct {
	Actor     shared.Actor
	StudentID string
	Target    schedule.Phase
	// Override bypasses the guard's rejections. Admin only.
	Override bool
}

// Validate validates the command.
func (c AdvancePhaseCommand) Validate() error {
	if !c.Actor.IsStaff() {
		return shared.ErrStaffOnly
	}
	if c.Override && !c.Actor.IsAdmin() {
		return shared.NewDomainError("progression", "AdvancePhase", shared.ErrForbidden, "only admins may override the phase guard")
	}
	if !shared.IsValidID(c.StudentID) {
		return shared.Validation("progression", "AdvancePhase", "studentId is required")
	}
	if !c.Target.IsValid() {
		return shared.ErrInvalidPhase
	}
	return nil
}

// AdvancePhaseResult contains the updated progression and the guard verdict.
type AdvancePhaseResult struct {
	Progression *progression.Progression
	From        schedule.Phase
	Verdict     progression.Verdict
}

// AdvancePhaseHandler handles AdvancePhaseCommand.
type AdvancePhaseHandler struct {
	repo      progression.Repository
	schedules schedule.Repository
	directory student.Directory
	features  *config.FeatureFlags
	// guard overrides the feature-driven default policy when set.
	guard progression.PhaseGuard
	deps  Deps
}

// NewAdvancePhaseHandler creates a new AdvancePhaseHandler. When guard is nil
// the schedule policy is used, rejecting backward moves only for groups with
// strict_phase_order enabled.
func NewAdvancePhaseHandler(
	repo progression.Repository,
	schedules schedule.Repository,
	directory student.Directory,
	features *config.FeatureFlags,
	guard progression.PhaseGuard,
	deps Deps,
) *AdvancePhaseHandler {
	return &AdvancePhaseHandler{
		repo:      repo,
		schedules: schedules,
		directory: directory,
		features:  features,
		guard:     guard,
		deps:      deps.withDefaults(),
	}
}

func (h *AdvancePhaseHandler) guardFor(groupID string) progression.PhaseGuard {
	if h.guard != nil {
		return h.guard
	}
	strict := h.features.IsEnabled(config.FeatureStrictPhaseOrder, &config.FeatureContext{CareerGroupID: groupID})
	return progression.NewSchedulePolicy(strict)
}

// Handle executes the command.
func (h *AdvancePhaseHandler) Handle(ctx context.Context, cmd AdvancePhaseCommand) (res *AdvancePhaseResult, err error) {
	defer func() { record("advance_phase", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	stud, err := h.directory.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("advance_phase: %w", err)
	}

	var target *schedule.PhaseSchedule
	if stud.HasGroup() {
		target, err = h.schedules.Get(ctx, stud.CareerGroupID, cmd.Target)
		if err != nil && !errors.Is(err, shared.ErrScheduleNotFound) {
			return nil, fmt.Errorf("advance_phase: load schedule: %w", err)
		}
	}

	now := h.deps.Clock()
	p, err := h.repo.GetOrCreate(ctx, cmd.StudentID, now)
	if err != nil {
		return nil, fmt.Errorf("advance_phase: ensure progression: %w", err)
	}

	verdict := h.guardFor(stud.CareerGroupID).Evaluate(progression.Transition{
		From:     p.CurrentPhase,
		To:       cmd.Target,
		Target:   target,
		Now:      now,
		Override: cmd.Override,
	})
	metrics.RecordPhaseTransition(string(verdict.Decision))

	log := h.deps.Logger.With(
		logger.StudentID(cmd.StudentID),
		logger.ActorID(cmd.Actor.UserID),
		logger.String("from", p.CurrentPhase.String()),
		logger.String("to", cmd.Target.String()),
	)

	if verdict.Decision == progression.DecisionReject {
		log.Info("phase transition rejected", logger.String("reason", verdict.Reason))
		return nil, shared.WrapError("progression", "AdvancePhase", shared.ErrValidation, verdict.Reason, shared.ErrPhaseRejected)
	}

	from := p.CurrentPhase
	if from == cmd.Target {
		return &AdvancePhaseResult{Progression: p, From: from, Verdict: verdict}, nil
	}

	updated, err := h.repo.SetCurrentPhase(ctx, p.ID, cmd.Target, now)
	if err != nil {
		return nil, fmt.Errorf("advance_phase: %w", err)
	}

	flagged := verdict.Decision == progression.DecisionFlag
	if flagged {
		log.Warn("phase transition flagged", logger.String("reason", verdict.Reason))
	} else {
		log.Info("phase advanced")
	}
	h.deps.publish(shared.NewPhaseAdvancedEvent(
		cmd.StudentID, cmd.Actor.UserID, from.String(), cmd.Target.String(), flagged, verdict.Reason, now,
	))

	return &AdvancePhaseResult{Progression: updated, From: from, Verdict: verdict}, nil
}
