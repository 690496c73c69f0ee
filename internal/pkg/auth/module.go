package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/parishpay/internal/config"
)

// Module provides the ops token verifier via fx.
var Module = fx.Provide(newTokenVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
}

func newTokenVerifier(p verifierParams) TokenVerifier {
	return NewBcryptVerifier(p.Config.OpsTokenHash)
}
