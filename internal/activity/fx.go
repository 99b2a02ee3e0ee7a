package activity

import (
	"github.com/edustack/campus/internal/activity/repository"
	"github.com/edustack/campus/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
