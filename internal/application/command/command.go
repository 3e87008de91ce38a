// Package command contains write operations (CQRS - Commands).
//
// Every handler validates its command, performs exactly one atomic storage
// write for the state change, and publishes domain events only after that
// write succeeded. Publishing failures are logged and never undo the write.
package command

import (
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/metrics"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// Deps are the collaborators every handler shares.
type Deps struct {
	Publisher shared.EventPublisher
	Logger    *logger.Logger
	Clock     timeutil.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = timeutil.SystemClock
	}
	return d
}

func (d Deps) publish(events ...shared.Event) {
	for _, event := range events {
		if err := d.Publisher.Publish(event); err != nil {
			d.Logger.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Err(err),
			)
		}
	}
}

// outcome maps an error to the label used by the command_outcomes metric.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case shared.IsValidation(err):
		return "validation"
	case shared.IsNotFound(err):
		return "not_found"
	case shared.IsConflict(err):
		return "conflict"
	case shared.IsForbidden(err):
		return "forbidden"
	default:
		return "error"
	}
}

func record(name string, err error) {
	metrics.RecordCommand(name, outcome(err))
}
