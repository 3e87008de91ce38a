// Package schedule содержит доменную модель расписания фаз программы:
// фазы, окна дат для каждой карьерной группы и вычисление статуса фазы.
// Это чистая логика - здесь нет внешних зависимостей и нет ввода-вывода.
package schedule

import (
	"fmt"
	"strings"

	"github.com/chas-career/career-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PHASE
// ══════════════════════════════════════════════════════════════════════════════

// Phase - одна из четырёх фиксированных последовательных фаз программы.
type Phase string

const (
	// Phase1 - вводная фаза (CV, LinkedIn, исследование рынка).
	Phase1 Phase = "PHASE_1"
	// Phase2 - нетворкинг.
	Phase2 Phase = "PHASE_2"
	// Phase3 - поиск LIA.
	Phase3 Phase = "PHASE_3"
	// Phase4 - поиск работы.
	Phase4 Phase = "PHASE_4"
)

// DefaultPhase - фаза, в которой находится студент без записи прогресса.
const DefaultPhase = Phase1

// AllPhases возвращает все фазы в каноническом порядке.
func AllPhases() []Phase {
	return []Phase{Phase1, Phase2, Phase3, Phase4}
}

// IsValid проверяет, что фаза входит в закрытый набор.
func (p Phase) IsValid() bool {
	return p.Order() > 0
}

// Order возвращает порядковый номер фазы (1..4) или 0 для неизвестного значения.
func (p Phase) Order() int {
	switch p {
	case Phase1:
		return 1
	case Phase2:
		return 2
	case Phase3:
		return 3
	case Phase4:
		return 4
	default:
		return 0
	}
}

// Next возвращает следующую фазу. Для последней фазы ok == false.
func (p Phase) Next() (Phase, bool) {
	phases := AllPhases()
	for i, ph := range phases {
		if ph == p && i+1 < len(phases) {
			return phases[i+1], true
		}
	}
	return "", false
}

// Before возвращает true, если p идёт раньше other.
func (p Phase) Before(other Phase) bool {
	return p.Order() < other.Order()
}

// String возвращает строковое представление фазы.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase разбирает строку вида "PHASE_2" (регистр не важен).
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.WrapError("schedule", "ParsePhase", shared.ErrValidation,
			"invalid phase", fmt.Errorf("%q", s))
	}
	return p, nil
}
