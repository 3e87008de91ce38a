package command

import (
	"context"
	"fmt"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE LEAD
// ══════════════════════════════════════════════════════════════════════════════

// CreateLeadCommand starts tracking a company for a student.
type CreateLeadCommand struct {
	StudentID string
	CompanyID string
	ContactID *string
	Notes     string
}

// CreateLeadHandler handles CreateLeadCommand.
type CreateLeadHandler struct {
	repo lead.Repository
	deps Deps
}

// NewCreateLeadHandler creates a new CreateLeadHandler.
func NewCreateLeadHandler(repo lead.Repository, deps Deps) *CreateLeadHandler {
	return &CreateLeadHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. A second lead for the same company is a conflict;
// the unique constraint decides races the pre-check cannot see.
func (h *CreateLeadHandler) Handle(ctx context.Context, cmd CreateLeadCommand) (l *lead.Lead, err error) {
	defer func() { record("create_lead", err) }()

	now := h.deps.Clock()
	l, err = lead.New(cmd.StudentID, cmd.CompanyID, cmd.ContactID, cmd.Notes, now)
	if err != nil {
		return nil, err
	}

	exists, err := h.repo.ExistsForCompany(ctx, cmd.StudentID, cmd.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("create_lead: %w", err)
	}
	if exists {
		return nil, shared.ErrLeadExists
	}

	if err := h.repo.Create(ctx, l); err != nil {
		if shared.IsConflict(err) || shared.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create_lead: %w", err)
	}

	h.deps.Logger.Info("lead created", logger.StudentID(l.StudentID), logger.LeadID(l.ID))
	h.deps.publish(shared.NewSimpleEvent(shared.EventLeadCreated, l.ID, map[string]interface{}{
		"student_id": l.StudentID,
		"company_id": l.CompanyID,
	}, now))
	return l, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE LEAD
// ══════════════════════════════════════════════════════════════════════════════

// UpdateLeadCommand patches a lead owned by the student.
type UpdateLeadCommand struct {
	LeadID    string
	StudentID string
	Patch     lead.Patch
}

// Validate validates the command. A blank leadId is reported like any other
// lead the student does not own.
func (c UpdateLeadCommand) Validate() error {
	if !shared.IsValidID(c.StudentID) {
		return shared.Validation("lead", "Update", "studentId is required")
	}
	if !shared.IsValidID(c.LeadID) {
		return shared.ErrLeadNotFound
	}
	return c.Patch.Validate()
}

// UpdateLeadHandler handles UpdateLeadCommand.
type UpdateLeadHandler struct {
	repo lead.Repository
	deps Deps
}

// NewUpdateLeadHandler creates a new UpdateLeadHandler.
func NewUpdateLeadHandler(repo lead.Repository, deps Deps) *UpdateLeadHandler {
	return &UpdateLeadHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command. A lead owned by someone else is reported as
// not found.
func (h *UpdateLeadHandler) Handle(ctx context.Context, cmd UpdateLeadCommand) (l *lead.Lead, err error) {
	defer func() { record("update_lead", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.deps.Clock()
	l, prev, err := h.repo.Update(ctx, cmd.LeadID, cmd.StudentID, cmd.Patch, now)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update_lead: %w", err)
	}

	if prev != l.Status {
		h.deps.Logger.Info("lead status changed",
			logger.LeadID(l.ID),
			logger.StudentID(l.StudentID),
			logger.String("from", string(prev)),
			logger.String("to", string(l.Status)),
			logger.Int("contact_attempts", l.ContactAttempts),
		)
		h.deps.publish(shared.NewLeadStatusChangedEvent(
			l.ID, l.StudentID, l.CompanyID, string(prev), string(l.Status), l.ContactAttempts, now,
		))
	}
	return l, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE LEAD
// ══════════════════════════════════════════════════════════════════════════════

// DeleteLeadCommand removes a lead owned by the student.
type DeleteLeadCommand struct {
	LeadID    string
	StudentID string
}

// DeleteLeadHandler handles DeleteLeadCommand.
type DeleteLeadHandler struct {
	repo lead.Repository
	deps Deps
}

// NewDeleteLeadHandler creates a new DeleteLeadHandler.
func NewDeleteLeadHandler(repo lead.Repository, deps Deps) *DeleteLeadHandler {
	return &DeleteLeadHandler{repo: repo, deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *DeleteLeadHandler) Handle(ctx context.Context, cmd DeleteLeadCommand) (err error) {
	defer func() { record("delete_lead", err) }()

	if !shared.IsValidID(cmd.StudentID) {
		return shared.Validation("lead", "Delete", "studentId is required")
	}
	if !shared.IsValidID(cmd.LeadID) {
		return shared.ErrLeadNotFound
	}
	if err := h.repo.Delete(ctx, cmd.LeadID, cmd.StudentID); err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("delete_lead: %w", err)
	}

	h.deps.publish(shared.NewSimpleEvent(shared.EventLeadDeleted, cmd.LeadID,
		map[string]interface{}{"student_id": cmd.StudentID}, h.deps.Clock()))
	return nil
}
