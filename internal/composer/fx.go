package composer

import (
	"github.com/smallbiznis/exactsync/internal/composer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("composer.service",
	fx.Provide(service.New),
)
