// Package progression содержит доменную модель прогресса студента:
// каталог вех, отметки о выполнении, агрегацию процентов и политику
// смены фазы. Хранилище и расписания доступны только через интерфейсы.
package progression

import (
	"github.com/chas-career/career-hub/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Milestone - запись глобального каталога вех. Каждая веха принадлежит ровно одной фазе.
type Milestone struct {
	ID    string
	Name  string
	Phase schedule.Phase
	// Position задаёт порядок вывода внутри фазы.
	Position int
}

// DefaultCatalog возвращает стандартный каталог вех программы.
// Тот же набор засевается миграцией в Postgres.
func DefaultCatalog() []Milestone {
	return []Milestone{
		{ID: "ms-cw1", Name: "Career Workshop 1: CV & LinkedIn", Phase: schedule.Phase1, Position: 1},
		{ID: "ms-cw2", Name: "Career Workshop 2: Research", Phase: schedule.Phase1, Position: 2},
		{ID: "ms-bbd", Name: "Big Bang Day", Phase: schedule.Phase1, Position: 3},
		{ID: "ms-30leads", Name: "30 Leads i CRM", Phase: schedule.Phase1, Position: 4},

		{ID: "ms-cw3", Name: "Career Workshop 3: Pitch & Mingle", Phase: schedule.Phase2, Position: 1},
		{ID: "ms-60leads", Name: "60 Leads i CRM", Phase: schedule.Phase2, Position: 2},
		{ID: "ms-10contacts", Name: "10 Kontakter", Phase: schedule.Phase2, Position: 3},
		{ID: "ms-studyvisit", Name: "3 Studiebesök", Phase: schedule.Phase2, Position: 4},

		{ID: "ms-cw4", Name: "Career Workshop 4: Intervju", Phase: schedule.Phase3, Position: 1},
		{ID: "ms-90leads", Name: "90 Leads i CRM", Phase: schedule.Phase3, Position: 2},
		{ID: "ms-15contacts", Name: "15 Kontakter", Phase: schedule.Phase3, Position: 3},
		{ID: "ms-lia-check1", Name: "LIA Check-in 1", Phase: schedule.Phase3, Position: 4},
		{ID: "ms-lia-check2", Name: "LIA Check-in 2", Phase: schedule.Phase3, Position: 5},
		{ID: "ms-lia-secured", Name: "LIA Säkrad", Phase: schedule.Phase3, Position: 6},

		{ID: "ms-job-checkin", Name: "Jobb Check-in", Phase: schedule.Phase4, Position: 1},
		{ID: "ms-alumni", Name: "Alumni Reunion", Phase: schedule.Phase4, Position: 2},
	}
}

// FindMilestone ищет веху в каталоге по ID.
func FindMilestone(catalog []Milestone, id string) (Milestone, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Milestone{}, false
}
