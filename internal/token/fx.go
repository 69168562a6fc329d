package token

import (
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	"github.com/smallbiznis/exactsync/internal/token/domain"
	"github.com/smallbiznis/exactsync/internal/token/service"
	"github.com/smallbiznis/exactsync/internal/token/store"
	"go.uber.org/fx"
)

var Module = fx.Module("token",
	fx.Provide(store.New),
	fx.Provide(service.New),
	fx.Provide(
		func(s *service.Service) domain.Manager { return s },
		func(s *service.Service) exactdomain.TokenSource { return s },
	),
)
