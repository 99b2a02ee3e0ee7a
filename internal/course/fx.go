package course

import (
	"github.com/edustack/campus/internal/course/repository"
	"github.com/edustack/campus/internal/course/service"
	"go.uber.org/fx"
)

var Module = fx.Module("course.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
