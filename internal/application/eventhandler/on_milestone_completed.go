package eventhandler

import (
	"context"
	"fmt"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/pkg/logger"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON MILESTONE COMPLETED HANDLER
// Объявляет выполненную веху вместе с общим процентом прогресса студента.
// Выключено по умолчанию (notify.milestones).
// ═══════════════════════════════════════════════════════════════════════════

// OnMilestoneCompletedHandler обрабатывает MilestoneCompletedEvent.
type OnMilestoneCompletedHandler struct {
	directory    student.Directory
	progressions progression.Repository
	catalog      progression.CatalogReader
	channel      notification.Channel
	features     *config.FeatureFlags
	logger       *logger.Logger
	clock        timeutil.Clock
}

// NewOnMilestoneCompletedHandler создаёт обработчик.
func NewOnMilestoneCompletedHandler(
	directory student.Directory,
	progressions progression.Repository,
	catalog progression.CatalogReader,
	channel notification.Channel,
	features *config.FeatureFlags,
	log *logger.Logger,
	clock timeutil.Clock,
) *OnMilestoneCompletedHandler {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = timeutil.SystemClock
	}
	return &OnMilestoneCompletedHandler{
		directory:    directory,
		progressions: progressions,
		catalog:      catalog,
		channel:      channel,
		features:     features,
		logger:       log.With(logger.String("handler", "on_milestone_completed")),
		clock:        clock,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnMilestoneCompletedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.MilestoneCompletedEvent)
	if !ok {
		h.logger.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	stud, err := h.directory.GetByID(ctx, e.StudentID)
	if err != nil {
		return fmt.Errorf("on_milestone_completed: get student: %w", err)
	}
	if !h.features.IsEnabled(config.FeatureNotifyMilestones, &config.FeatureContext{CareerGroupID: stud.CareerGroupID}) {
		return nil
	}

	percent, err := h.totalPercent(ctx, e.StudentID)
	if err != nil {
		return fmt.Errorf("on_milestone_completed: %w", err)
	}

	n := notification.NewMilestoneCompleted(stud.ID, stud.DisplayName(), e.MilestoneName, percent, h.clock())
	if res := h.channel.Send(ctx, n); !res.Success {
		h.logger.Warn("milestone announcement not delivered",
			logger.StudentID(stud.ID),
			logger.MilestoneID(e.MilestoneID),
			logger.Err(res.Error),
		)
		return res.Error
	}
	return nil
}

// totalPercent считает общий прогресс по всему каталогу.
func (h *OnMilestoneCompletedHandler) totalPercent(ctx context.Context, studentID string) (int, error) {
	catalog, err := h.catalog.ListMilestones(ctx)
	if err != nil {
		return 0, err
	}
	p, err := h.progressions.GetByStudent(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	rows, err := h.progressions.ListMilestoneProgress(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	return progression.NewAggregator(catalog, progression.IndexByMilestone(rows)).Percent(nil), nil
}

// Register подписывает обработчики уведомлений на шину событий.
func Register(bus shared.EventSubscriber, placementDecided *OnPlacementDecidedHandler, milestoneCompleted *OnMilestoneCompletedHandler) error {
	if err := bus.Subscribe(shared.EventPlacementStatusChanged, placementDecided.Handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventMilestoneCompleted, milestoneCompleted.Handle)
}
