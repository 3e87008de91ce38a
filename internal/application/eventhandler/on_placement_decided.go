// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// handlerTimeout ограничивает время обработки одного события.
const handlerTimeout = 30 * time.Second

// ═══════════════════════════════════════════════════════════════════════════
// ON PLACEMENT DECIDED HANDLER
// Объявляет в Slack, что LIA-практика студента одобрена или отклонена.
// Другие смены статуса (ACTIVE, COMPLETED) не объявляются.
// ═══════════════════════════════════════════════════════════════════════════

// OnPlacementDecidedHandler обрабатывает PlacementStatusChangedEvent.
type OnPlacementDecidedHandler struct {
	directory student.Directory
	channel   notification.Channel
	features  *config.FeatureFlags
	logger    *logger.Logger
	clock     timeutil.Clock
}

// NewOnPlacementDecidedHandler создаёт обработчик.
func NewOnPlacementDecidedHandler(
	directory student.Directory,
	channel notification.Channel,
	features *config.FeatureFlags,
	log *logger.Logger,
	clock timeutil.Clock,
) *OnPlacementDecidedHandler {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &OnPlacementDecidedHandler{
		directory: directory,
		channel:   channel,
		features:  features,
		logger:    log.With(logger.String("handler", "on_placement_decided")),
		clock:     clock,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnPlacementDecidedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.PlacementStatusChangedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	to := placement.Status(e.To)
	if !to.IsDecision() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	stud, err := h.directory.GetByID(ctx, e.StudentID)
	if err != nil {
		return fmt.Errorf("on_placement_decided: get student: %w", err)
	}
	if !h.features.IsEnabled(config.FeatureNotifyLIADecisions, &config.FeatureContext{CareerGroupID: stud.CareerGroupID}) {
		return nil
	}

	companyName := e.CompanyID
	if company, err := h.directory.GetCompany(ctx, e.CompanyID); err == nil {
		companyName = company.Name
	} else if !shared.IsNotFound(err) {
		return fmt.Errorf("on_placement_decided: get company: %w", err)
	}

	n := notification.NewPlacementDecision(stud.ID, stud.DisplayName(), companyName, to == placement.StatusApproved, h.clock())
	res := h.channel.Send(ctx, n)
	if !res.Success {
		h.logger.Warn("placement decision not delivered",
			logger.PlacementID(e.AggregateID()),
			logger.StudentID(stud.ID),
			logger.Err(res.Error),
		)
		return res.Error
	}

	h.logger.Info("placement decision announced",
		logger.PlacementID(e.AggregateID()),
		logger.StudentID(stud.ID),
		logger.String("status", e.To),
	)
	return nil
}
