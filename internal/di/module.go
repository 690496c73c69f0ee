package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/parishpay/internal/adapter/stripe"
	"github.com/polkiloo/parishpay/internal/app"
	"github.com/polkiloo/parishpay/internal/config"
	"github.com/polkiloo/parishpay/internal/logger"
	"github.com/polkiloo/parishpay/internal/pkg/auth"
	"github.com/polkiloo/parishpay/internal/server/http/router"
	"github.com/polkiloo/parishpay/internal/storage/postgres"
	"github.com/polkiloo/parishpay/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		stripe.Module,
		usecase.Module,
		fx.Provide(func(gateway stripe.Gateway) usecase.PaymentGateway { return gateway }),
		fx.Provide(func(storage *postgres.Storage) app.HealthChecker { return storage }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
