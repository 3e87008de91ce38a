package query

import (
	"context"
	"fmt"

	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CURRENT PHASE
// Чтение без побочных эффектов: если прогресса нет, студент в PHASE_1.
// ══════════════════════════════════════════════════════════════════════════════

// CurrentPhaseHandler возвращает текущую фазу студента.
type CurrentPhaseHandler struct {
	repo progression.Repository
}

// NewCurrentPhaseHandler создаёт обработчик.
func NewCurrentPhaseHandler(repo progression.Repository) *CurrentPhaseHandler {
	return &CurrentPhaseHandler{repo: repo}
}

// Handle никогда не создаёт запись прогресса.
func (h *CurrentPhaseHandler) Handle(ctx context.Context, studentID string) (schedule.Phase, error) {
	if !shared.IsValidID(studentID) {
		return "", shared.Validation("progression", "CurrentPhase", "studentId is required")
	}
	p, err := h.repo.GetByStudent(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return schedule.DefaultPhase, nil
		}
		return "", fmt.Errorf("current_phase: %w", err)
	}
	return p.CurrentPhase, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS OVERVIEW
// ══════════════════════════════════════════════════════════════════════════════

// MilestoneDTO - веха каталога с отметкой студента.
type MilestoneDTO struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Phase     schedule.Phase `json:"phase"`
	Completed bool           `json:"completed"`
}

// ProgressDTO - сводка прогресса студента.
type ProgressDTO struct {
	StudentID    string                       `json:"student_id"`
	CurrentPhase schedule.Phase               `json:"current_phase"`
	Completed    int                          `json:"completed"`
	Total        int                          `json:"total"`
	Percent      int                          `json:"percent"`
	Phases       []progression.PhaseBreakdown `json:"phases"`
	Milestones   []MilestoneDTO               `json:"milestones"`
}

// ProgressOverviewHandler считает прогресс студента по каталогу вех.
type ProgressOverviewHandler struct {
	repo    progression.Repository
	catalog progression.CatalogReader
}

// NewProgressOverviewHandler создаёт обработчик.
func NewProgressOverviewHandler(repo progression.Repository, catalog progression.CatalogReader) *ProgressOverviewHandler {
	return &ProgressOverviewHandler{repo: repo, catalog: catalog}
}

// Handle возвращает нулевой прогресс в PHASE_1 для студента без записи.
func (h *ProgressOverviewHandler) Handle(ctx context.Context, studentID string) (*ProgressDTO, error) {
	catalog, err := h.catalog.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress_overview: load catalog: %w", err)
	}

	phase, rows, err := loadProgress(ctx, h.repo, studentID)
	if err != nil {
		return nil, fmt.Errorf("progress_overview: %w", err)
	}

	index := progression.IndexByMilestone(rows)
	agg := progression.NewAggregator(catalog, index)

	dto := &ProgressDTO{
		StudentID:    studentID,
		CurrentPhase: phase,
		Completed:    agg.Completed(nil),
		Total:        agg.Total(nil),
		Percent:      agg.Percent(nil),
		Phases:       agg.Breakdown(),
		Milestones:   make([]MilestoneDTO, 0, len(catalog)),
	}
	for _, m := range catalog {
		dto.Milestones = append(dto.Milestones, MilestoneDTO{
			ID:        m.ID,
			Name:      m.Name,
			Phase:     m.Phase,
			Completed: index[m.ID].Completed,
		})
	}
	return dto, nil
}

// loadProgress читает фазу и отметки студента, не создавая записей.
func loadProgress(ctx context.Context, repo progression.Repository, studentID string) (schedule.Phase, []progression.MilestoneProgress, error) {
	p, err := repo.GetByStudent(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return schedule.DefaultPhase, nil, nil
		}
		return "", nil, err
	}
	rows, err := repo.ListMilestoneProgress(ctx, p.ID)
	if err != nil {
		return "", nil, err
	}
	return p.CurrentPhase, rows, nil
}
