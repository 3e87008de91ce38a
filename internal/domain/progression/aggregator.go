package progression

import (
	"math"

	"github.com/chas-career/career-hub/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Aggregator считает выполнение вех по каталогу. Чистая функция над данными:
// отсутствующая запись прогресса эквивалентна completed = false,
// записи для вех вне каталога игнорируются.
type Aggregator struct {
	catalog  []Milestone
	progress map[string]MilestoneProgress
}

// NewAggregator создаёт агрегатор. progress индексирован по ID вехи.
func NewAggregator(catalog []Milestone, progress map[string]MilestoneProgress) *Aggregator {
	if progress == nil {
		progress = map[string]MilestoneProgress{}
	}
	return &Aggregator{catalog: catalog, progress: progress}
}

// Completed возвращает число выполненных вех; phase == nil означает всю программу.
func (a *Aggregator) Completed(phase *schedule.Phase) int {
	n := 0
	for _, m := range a.catalog {
		if phase != nil && m.Phase != *phase {
			continue
		}
		if p, ok := a.progress[m.ID]; ok && p.Completed {
			n++
		}
	}
	return n
}

// Total возвращает размер каталога; phase == nil означает всю программу.
func (a *Aggregator) Total(phase *schedule.Phase) int {
	if phase == nil {
		return len(a.catalog)
	}
	n := 0
	for _, m := range a.catalog {
		if m.Phase == *phase {
			n++
		}
	}
	return n
}

// Percent возвращает round(100 * completed / total) в диапазоне [0, 100].
// При пустом каталоге возвращает 0.
func (a *Aggregator) Percent(phase *schedule.Phase) int {
	total := a.Total(phase)
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(a.Completed(phase)) / float64(total)))
}

// PhaseBreakdown - выполнение вех одной фазы.
type PhaseBreakdown struct {
	Phase     schedule.Phase
	Completed int
	Total     int
	Percent   int
}

// Breakdown возвращает разбивку по всем четырём фазам в каноническом порядке.
func (a *Aggregator) Breakdown() []PhaseBreakdown {
	phases := schedule.AllPhases()
	out := make([]PhaseBreakdown, 0, len(phases))
	for _, ph := range phases {
		ph := ph
		out = append(out, PhaseBreakdown{
			Phase:     ph,
			Completed: a.Completed(&ph),
			Total:     a.Total(&ph),
			Percent:   a.Percent(&ph),
		})
	}
	return out
}
