package di

import (
	"github.com/muratoffalex/emotebot/internal/config"
	"github.com/muratoffalex/emotebot/internal/logger"
	"github.com/muratoffalex/emotebot/internal/platform"
	"github.com/muratoffalex/emotebot/internal/service"
	"github.com/muratoffalex/emotebot/internal/service/cancel"
)

// NewTestContainer wires the in-memory pieces commands need in tests. Fields
// backed by external services are left nil for the test to fill in.
func NewTestContainer(responder *platform.TestResponder, log *logger.TestLogger, values map[string]any) *Container {
	localizer, err := service.NewLocalizer("en")
	if err != nil {
		panic(err)
	}
	return &Container{
		Logger:    log,
		Cfg:       config.FromMap(values),
		Responder: responder,
		Localizer: localizer,
		Cancel:    cancel.NewManager(log),
	}
}
