package config

import "go.uber.org/fx"

// Module loads configuration from environment, flags and secret files for fx graphs.
var Module = fx.Provide(Load)
