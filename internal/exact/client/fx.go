package client

import (
	"github.com/smallbiznis/exactsync/internal/exact/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("exact.client",
	fx.Provide(
		fx.Annotate(New, fx.As(new(domain.Client))),
	),
)
