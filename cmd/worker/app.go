package main

import (
	"fmt"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/application/command"
	"github.com/chas-career/career-hub/internal/application/eventhandler"
	"github.com/chas-career/career-hub/internal/domain/notification"
	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/internal/infrastructure/messaging"
	"github.com/chas-career/career-hub/pkg/logger"
)

// app is the wired write side: command handlers publishing into the bus the
// notification handlers listen on.
type app struct {
	commands *command.Commands
	bus      shared.EventBus
	local    *messaging.InMemoryEventBus
}

// Close drains the local bus.
func (a *app) Close() error {
	return a.local.Close()
}

// buildApp creates the event bus, subscribes the notification handlers and
// builds the command handlers on top of it. async is false in tests so that
// delivery happens before Handle returns.
func buildApp(cfg *config.Config, st *stores, sink notification.Channel, log *logger.Logger, async bool) (*app, error) {
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = async
	local := messaging.NewInMemoryEventBus(busCfg)

	var bus shared.EventBus = local
	if st.redisClient != nil {
		mirrored, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client: messaging.NewGoRedisPublisher(st.redisClient),
			Local:  local,
			Logger: log,
		})
		if err != nil {
			_ = local.Close()
			return nil, fmt.Errorf("failed to create redis event bus: %w", err)
		}
		bus = mirrored
	}

	placementDecided := eventhandler.NewOnPlacementDecidedHandler(st.directory, sink, cfg.Features, log, nil)
	milestoneCompleted := eventhandler.NewOnMilestoneCompletedHandler(
		st.directory, st.progressions, st.catalog, sink, cfg.Features, log, nil)
	if err := eventhandler.Register(bus, placementDecided, milestoneCompleted); err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	cmds := command.NewCommands(st.repositories(), cfg.Features, command.Deps{Publisher: bus, Logger: log})
	return &app{commands: cmds, bus: bus, local: local}, nil
}
