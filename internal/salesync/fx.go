package salesync

import (
	"github.com/smallbiznis/exactsync/internal/salesync/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesync.service",
	fx.Provide(service.New),
)
