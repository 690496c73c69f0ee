package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/parishpay/internal/app"
	pkgAuth "github.com/polkiloo/parishpay/internal/pkg/auth"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newRouter)

type routerParams struct {
	fx.In

	Facade   *app.PaymentsFacade
	Verifier pkgAuth.TokenVerifier
	Logger   *slog.Logger
}

func newRouter(p routerParams) *gin.Engine {
	return Setup(p.Facade, p.Verifier, p.Logger)
}
