package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRedirectConfigHolder),
	fx.Invoke(WatchRedirectConfig),
)
