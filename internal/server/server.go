package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/exactsync/internal/config"
	fulfillmentdomain "github.com/smallbiznis/exactsync/internal/fulfillment/domain"
	journaldomain "github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/internal/observability"
	obsmiddleware "github.com/smallbiznis/exactsync/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/exactsync/internal/observability/metrics"
	obstracing "github.com/smallbiznis/exactsync/internal/observability/tracing"
	salesyncdomain "github.com/smallbiznis/exactsync/internal/salesync/domain"
	tokendomain "github.com/smallbiznis/exactsync/internal/token/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the router with the shared middleware chain. authorizeURL
// is attached to every error that asks the caller to authorize again.
func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, authorizeURL func() string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware(authorizeURL))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, tokens tokendomain.Manager) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, func() string {
		return tokens.AuthorizationURL("")
	})
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	tokens      tokendomain.Manager
	sync        salesyncdomain.Service
	fulfillment fulfillmentdomain.Service
	journal     journaldomain.Journal
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Tokens      tokendomain.Manager
	Sync        salesyncdomain.Service
	Fulfillment fulfillmentdomain.Service
	Journal     journaldomain.Journal `optional:"true"`
	Log         *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		tokens:      p.Tokens,
		sync:        p.Sync,
		fulfillment: p.Fulfillment,
		journal:     p.Journal,
		log:         p.Log.Named("http.server"),
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth/exact", s.SessionRequired())
	{
		auth.GET("/url", s.GetAuthorizationURL)
		auth.POST("/code", s.ExchangeAuthorizationCode)
		auth.GET("/status", s.GetAuthorizationStatus)
	}
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.SessionRequired())

	// -------- Sync --------
	api.POST("/sync/sales-orders", s.CreateSalesOrder)
	api.POST("/sync/quotations", s.CreateQuotation)
	api.PUT("/sync/sales-orders/:id/reference", s.UpdateSalesOrderReference)
	api.GET("/sync/runs", s.ListSyncRuns)

	// -------- Fulfillment --------
	api.GET("/fulfillment/sales-orders", s.ListOpenSalesOrders)
	api.GET("/fulfillment/goods-deliveries", s.ListGoodsDeliveries)
	api.PUT("/fulfillment/goods-deliveries/:id", s.UpdateGoodsDelivery)
	api.GET("/fulfillment/purchase-orders", s.ListPurchaseOrders)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
