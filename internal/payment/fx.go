package payment

import (
	"github.com/edustack/campus/internal/payment/gateway"
	"github.com/edustack/campus/internal/payment/repository"
	paymentservice "github.com/edustack/campus/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(gateway.NewMercadoPago),
	fx.Provide(paymentservice.NewService),
)
