package progression

import (
	"fmt"
	"time"

	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PHASE GUARD
// Хранилище принимает любое значение фазы. Порядок фаз проверяется здесь,
// до записи, чтобы администратор мог сознательно обойти правило.
// ══════════════════════════════════════════════════════════════════════════════

// Decision - решение политики по смене фазы.
type Decision string

const (
	// DecisionAllow - переход разрешён.
	DecisionAllow Decision = "allow"
	// DecisionFlag - переход выполняется, но помечается как подозрительный.
	DecisionFlag Decision = "flag"
	// DecisionReject - переход отклоняется.
	DecisionReject Decision = "reject"
)

// Transition описывает запрошенную смену фазы.
type Transition struct {
	From schedule.Phase
	To   schedule.Phase
	// Target - расписание целевой фазы для группы студента; nil, если его нет.
	Target *schedule.PhaseSchedule
	Now    time.Time
	// Override - явный обход политики администратором.
	Override bool
}

// Verdict - результат проверки перехода.
type Verdict struct {
	Decision Decision
	Reason   string
}

// PhaseGuard - политика, с которой сверяется каждая смена фазы.
type PhaseGuard interface {
	Evaluate(t Transition) Verdict
}

// SchedulePolicy - политика по умолчанию.
//   - целевая фаза без расписания или ещё не началась → Reject
//   - переход назад → Flag (Reject при RejectBackward)
//   - Override превращает любой Reject во Flag
type SchedulePolicy struct {
	RejectBackward bool
}

// NewSchedulePolicy создаёт политику по умолчанию.
func NewSchedulePolicy(rejectBackward bool) *SchedulePolicy {
	return &SchedulePolicy{RejectBackward: rejectBackward}
}

// Evaluate реализует PhaseGuard.
func (p *SchedulePolicy) Evaluate(t Transition) Verdict {
	if t.From == t.To {
		return Verdict{Decision: DecisionAllow}
	}

	v := p.evaluate(t)
	if v.Decision == DecisionReject && t.Override {
		return Verdict{Decision: DecisionFlag, Reason: "override: " + v.Reason}
	}
	return v
}

func (p *SchedulePolicy) evaluate(t Transition) Verdict {
	if t.Target == nil {
		return Verdict{Decision: DecisionReject, Reason: "phase schedule is missing for this group"}
	}
	if t.Target.Status(t.Now) == schedule.StatusNotStarted {
		return Verdict{
			Decision: DecisionReject,
			Reason:   fmt.Sprintf("phase starts %s", timeutil.FormatDate(t.Target.StartDate)),
		}
	}
	if t.To.Before(t.From) {
		reason := fmt.Sprintf("backward transition %s → %s", t.From, t.To)
		if p.RejectBackward {
			return Verdict{Decision: DecisionReject, Reason: reason}
		}
		return Verdict{Decision: DecisionFlag, Reason: reason}
	}
	return Verdict{Decision: DecisionAllow}
}

// ══════════════════════════════════════════════════════════════════════════════
// PHASE ELIGIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// Eligibility - может ли студент группы находиться в фазе прямо сейчас.
type Eligibility struct {
	Allowed   bool
	Reason    string
	StartDate *time.Time
	EndDate   *time.Time
}

// CheckEligibility проверяет фазу по её расписанию: без расписания
// или до начала окна находиться в фазе нельзя.
func CheckEligibility(target *schedule.PhaseSchedule, now time.Time) Eligibility {
	if target == nil {
		return Eligibility{Allowed: false, Reason: "phase schedule is missing for this group"}
	}
	start, end := target.StartDate, target.EndDate
	e := Eligibility{Allowed: true, StartDate: &start, EndDate: &end}
	if !target.HasStarted(now) {
		e.Allowed = false
		e.Reason = fmt.Sprintf("phase starts %s", timeutil.FormatDate(start))
	}
	return e
}
