package query

import (
	"context"
	"fmt"
	"math"

	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORTS
// Только данные: счётчики и проценты. Форматирование (PDF, CSV) - не здесь.
// ══════════════════════════════════════════════════════════════════════════════

// StudentReport - отчёт по одному студенту.
type StudentReport struct {
	StudentID    string         `json:"student_id"`
	StudentName  string         `json:"student_name"`
	CurrentPhase schedule.Phase `json:"current_phase"`

	// ─────────────────────────────────────────────────────────────────────────
	// Вехи
	// ─────────────────────────────────────────────────────────────────────────

	MilestonesCompleted int `json:"milestones_completed"`
	MilestonesTotal     int `json:"milestones_total"`
	ProgressPercent     int `json:"progress_percent"`

	// ─────────────────────────────────────────────────────────────────────────
	// Лиды и практика
	// ─────────────────────────────────────────────────────────────────────────

	TotalLeads  int `json:"total_leads"`
	ActiveLeads int `json:"active_leads"`

	// PlacementStatus - пусто, если практика не зарегистрирована.
	PlacementStatus placement.Status `json:"placement_status,omitempty"`
}

// GroupReport - сводка по карьерной группе.
type GroupReport struct {
	CareerGroupID string `json:"career_group_id"`
	GroupName     string `json:"group_name"`
	Students      int    `json:"students"`

	// AverageProgress - среднее ProgressPercent, округлённое; 0 для пустой группы.
	AverageProgress int `json:"average_progress"`

	// PhaseDistribution - сколько студентов в каждой фазе (все четыре ключа есть всегда).
	PhaseDistribution map[schedule.Phase]int `json:"phase_distribution"`

	WithPlacement int              `json:"with_placement"`
	TotalLeads    int              `json:"total_leads"`
	Rows          []*StudentReport `json:"rows"`
}

// ReportHandler строит отчёты по студентам и группам.
type ReportHandler struct {
	directory    student.Directory
	progressions progression.Repository
	catalog      progression.CatalogReader
	leads        lead.Repository
	placements   placement.Repository
}

// NewReportHandler создаёт обработчик.
func NewReportHandler(
	directory student.Directory,
	progressions progression.Repository,
	catalog progression.CatalogReader,
	leads lead.Repository,
	placements placement.Repository,
) *ReportHandler {
	return &ReportHandler{
		directory:    directory,
		progressions: progressions,
		catalog:      catalog,
		leads:        leads,
		placements:   placements,
	}
}

// StudentReport строит отчёт по студенту.
func (h *ReportHandler) StudentReport(ctx context.Context, studentID string) (*StudentReport, error) {
	stud, err := h.directory.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("student_report: %w", err)
	}
	catalog, err := h.catalog.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("student_report: load catalog: %w", err)
	}
	return h.buildStudentReport(ctx, stud, catalog)
}

func (h *ReportHandler) buildStudentReport(ctx context.Context, stud *student.Student, catalog []progression.Milestone) (*StudentReport, error) {
	phase, rows, err := loadProgress(ctx, h.progressions, stud.ID)
	if err != nil {
		return nil, fmt.Errorf("student_report: %w", err)
	}
	agg := progression.NewAggregator(catalog, progression.IndexByMilestone(rows))

	leads, err := h.leads.ListByStudent(ctx, stud.ID)
	if err != nil {
		return nil, fmt.Errorf("student_report: list leads: %w", err)
	}
	active := 0
	for _, l := range leads {
		if l.IsActive() {
			active++
		}
	}

	report := &StudentReport{
		StudentID:           stud.ID,
		StudentName:         stud.DisplayName(),
		CurrentPhase:        phase,
		MilestonesCompleted: agg.Completed(nil),
		MilestonesTotal:     agg.Total(nil),
		ProgressPercent:     agg.Percent(nil),
		TotalLeads:          len(leads),
		ActiveLeads:         active,
	}

	p, err := h.placements.GetByStudent(ctx, stud.ID)
	switch {
	case err == nil:
		report.PlacementStatus = p.Status
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("student_report: load placement: %w", err)
	}
	return report, nil
}

// GroupReport строит сводку по группе.
func (h *ReportHandler) GroupReport(ctx context.Context, careerGroupID string) (*GroupReport, error) {
	group, err := h.directory.GetGroup(ctx, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("group_report: %w", err)
	}
	members, err := h.directory.ListByGroup(ctx, careerGroupID)
	if err != nil {
		return nil, fmt.Errorf("group_report: list members: %w", err)
	}
	catalog, err := h.catalog.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("group_report: load catalog: %w", err)
	}

	report := &GroupReport{
		CareerGroupID:     group.ID,
		GroupName:         group.Name,
		Students:          len(members),
		PhaseDistribution: make(map[schedule.Phase]int, 4),
		Rows:              make([]*StudentReport, 0, len(members)),
	}
	for _, ph := range schedule.AllPhases() {
		report.PhaseDistribution[ph] = 0
	}

	sum := 0
	for _, m := range members {
		row, err := h.buildStudentReport(ctx, m, catalog)
		if err != nil {
			return nil, err
		}
		sum += row.ProgressPercent
		report.PhaseDistribution[row.CurrentPhase]++
		report.TotalLeads += row.TotalLeads
		if row.PlacementStatus != "" {
			report.WithPlacement++
		}
		report.Rows = append(report.Rows, row)
	}
	if len(members) > 0 {
		report.AverageProgress = int(math.Round(float64(sum) / float64(len(members))))
	}
	return report, nil
}
