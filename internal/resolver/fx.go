package resolver

import (
	"github.com/smallbiznis/exactsync/internal/resolver/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resolver.service",
	fx.Provide(service.New),
)
