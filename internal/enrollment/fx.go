package enrollment

import (
	"github.com/edustack/campus/internal/enrollment/repository"
	"github.com/edustack/campus/internal/enrollment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrollment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
