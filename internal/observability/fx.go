package observability

import (
	"github.com/edustack/campus/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(metrics.New),
	fx.Provide(metrics.NewHTTPMetrics),
)
