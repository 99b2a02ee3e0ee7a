package notification

import (
	"github.com/edustack/campus/internal/notification/liveevents"
	"github.com/edustack/campus/internal/notification/repository"
	"github.com/edustack/campus/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(liveevents.NewHub),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
