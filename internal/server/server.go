package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/payrelay/internal/config"
	"github.com/smallbiznis/payrelay/internal/observability"
	obsmiddleware "github.com/smallbiznis/payrelay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/payrelay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/payrelay/internal/observability/tracing"
	"github.com/smallbiznis/payrelay/internal/payment"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"github.com/smallbiznis/payrelay/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	payment.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS(cfg.CORS))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, cfg, httpMetrics)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = config.DefaultHTTPAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
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
	log         *zap.Logger
	genID       *snowflake.Node
	paymentSvc  paymentdomain.Service
	verifier    paymentdomain.WebhookVerifier
	initLimiter ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	GenID       *snowflake.Node
	PaymentSvc  paymentdomain.Service
	Verifier    paymentdomain.WebhookVerifier
	InitLimiter ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         log.Named("http"),
		genID:       p.GenID,
		paymentSvc:  p.PaymentSvc,
		verifier:    p.Verifier,
		initLimiter: p.InitLimiter,
	}

	svc.registerHealthRoutes()
	svc.registerPaystackRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/", s.Root)
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerPaystackRoutes() {
	paystack := s.engine.Group("/paystack")

	// Clients call both spellings.
	paystack.POST("/initialize", s.InitializeRateLimit(), s.InitializePayment)
	paystack.POST("/initialize/", s.InitializeRateLimit(), s.InitializePayment)

	paystack.GET("/verify/:reference", s.VerifyPayment)
	paystack.GET("/callback", s.PaymentCallback)
	paystack.POST("/webhook", s.HandlePaymentWebhook)
}

func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"processed_references": s.paymentSvc.ProcessedCount(),
	})
}
