package command

import (
	"context"
	"fmt"

	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PLACEMENT
// ══════════════════════════════════════════════════════════════════════════════

// CreatePlacementCommand registers the student's LIA placement.
type CreatePlacementCommand struct {
	StudentID string
	Details   placement.Details
}

// CreatePlacementHandler handles CreatePlacementCommand.
type CreatePlacementHandler struct {
	repo placement.Repository
	deps Deps
}

// NewCreatePlacementHandler creates a new CreatePlacementHandler.
func NewCreatePlacementHandler(repo placement.Repository, deps Deps) *CreatePlacementHandler {
	return &CreatePlacementHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. A student has at most one placement; the
// existing one is left untouched on conflict.
func (h *CreatePlacementHandler) Handle(ctx context.Context, cmd CreatePlacementCommand) (p *placement.Placement, err error) {
	defer func() { record("create_placement", err) }()

	now := h.deps.Clock()
	p, err = placement.New(cmd.StudentID, cmd.Details, now)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, p); err != nil {
		if shared.IsConflict(err) || shared.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create_placement: %w", err)
	}

	h.deps.Logger.Info("placement registered", logger.StudentID(p.StudentID), logger.PlacementID(p.ID))
	h.deps.publish(shared.NewSimpleEvent(shared.EventPlacementRegistered, p.ID, map[string]interface{}{
		"student_id": p.StudentID,
		"company_id": p.CompanyID,
	}, now))
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW PLACEMENT (staff path)
// ══════════════════════════════════════════════════════════════════════════════

// ReviewPlacementCommand lets staff change status and details of any placement.
type ReviewPlacementCommand struct {
	PlacementID string
	Actor       shared.Actor
	Patch       placement.ReviewPatch
}

// Validate validates the command.
func (c ReviewPlacementCommand) Validate() error {
	if err := placement.AuthorizeReview(c.Actor); err != nil {
		return err
	}
	if !shared.IsValidID(c.PlacementID) {
		return shared.Validation("placement", "Review", "placementId is required")
	}
	return c.Patch.Validate()
}

// ReviewPlacementHandler handles ReviewPlacementCommand.
type ReviewPlacementHandler struct {
	repo placement.Repository
	deps Deps
}

// NewReviewPlacementHandler creates a new ReviewPlacementHandler.
func NewReviewPlacementHandler(repo placement.Repository, deps Deps) *ReviewPlacementHandler {
	return &ReviewPlacementHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. Any known status may be written; the merge
// happens under the repository's row lock.
func (h *ReviewPlacementHandler) Handle(ctx context.Context, cmd ReviewPlacementCommand) (p *placement.Placement, err error) {
	defer func() { record("review_placement", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.deps.Clock()
	next, prev, err := h.repo.Review(ctx, cmd.PlacementID, cmd.Patch, now)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("review_placement: %w", err)
	}

	if next.Status != prev {
		h.deps.Logger.Info("placement status changed",
			logger.PlacementID(next.ID),
			logger.StudentID(next.StudentID),
			logger.ActorID(cmd.Actor.UserID),
			logger.String("from", string(prev)),
			logger.String("to", string(next.Status)),
		)
		h.deps.publish(shared.NewPlacementStatusChangedEvent(
			next.ID, next.StudentID, next.CompanyID, cmd.Actor.UserID,
			string(prev), string(next.Status), now,
		))
	}
	return next, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE OWN PLACEMENT (student path)
// ══════════════════════════════════════════════════════════════════════════════

// UpdateOwnPlacementCommand lets the student edit the details of their placement.
// Status is not part of the patch.
type UpdateOwnPlacementCommand struct {
	StudentID string
	Patch     placement.DetailsPatch
}

// UpdateOwnPlacementHandler handles UpdateOwnPlacementCommand.
type UpdateOwnPlacementHandler struct {
	repo placement.Repository
	deps Deps
}

// NewUpdateOwnPlacementHandler creates a new UpdateOwnPlacementHandler.
func NewUpdateOwnPlacementHandler(repo placement.Repository, deps Deps) *UpdateOwnPlacementHandler {
	return &UpdateOwnPlacementHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. The write never touches status, so a staff
// decision made concurrently is kept.
func (h *UpdateOwnPlacementHandler) Handle(ctx context.Context, cmd UpdateOwnPlacementCommand) (p *placement.Placement, err error) {
	defer func() { record("update_own_placement", err) }()

	if !shared.IsValidID(cmd.StudentID) {
		return nil, shared.Validation("placement", "UpdateOwn", "studentId is required")
	}
	if err := cmd.Patch.Validate(); err != nil {
		return nil, err
	}

	p, err = h.repo.UpdateDetails(ctx, cmd.StudentID, cmd.Patch, h.deps.Clock())
	if err != nil {
		if shared.IsNotFound(err) || shared.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update_own_placement: %w", err)
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE PLACEMENT
// ══════════════════════════════════════════════════════════════════════════════

// DeletePlacementCommand removes a placement. Admin only.
type DeletePlacementCommand struct {
	PlacementID string
	Actor       shared.Actor
}

// DeletePlacementHandler handles DeletePlacementCommand.
type DeletePlacementHandler struct {
	repo placement.Repository
	deps Deps
}

// NewDeletePlacementHandler creates a new DeletePlacementHandler.
func NewDeletePlacementHandler(repo placement.Repository, deps Deps) *DeletePlacementHandler {
	return &DeletePlacementHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *DeletePlacementHandler) Handle(ctx context.Context, cmd DeletePlacementCommand) (err error) {
	defer func() { record("delete_placement", err) }()

	if err := placement.AuthorizeDelete(cmd.Actor); err != nil {
		return err
	}
	if err := h.repo.Delete(ctx, cmd.PlacementID); err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete_placement: %w", err)
	}

	h.deps.Logger.Info("placement deleted", logger.PlacementID(cmd.PlacementID), logger.ActorID(cmd.Actor.UserID))
	h.deps.publish(shared.NewSimpleEvent(shared.EventPlacementDeleted, cmd.PlacementID,
		map[string]interface{}{"actor_id": cmd.Actor.UserID}, h.deps.Clock()))
	return nil
}
