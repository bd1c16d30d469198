package http

import (
	"context"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/meridianlabs-xyz/cpamm-engine/internal/config"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/httputil"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/http/middlewares"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/service"
	"github.com/meridianlabs-xyz/cpamm-engine/internal/token"
)

const API_VERSION = "v1"

type HTTPService struct {
	poolSvc     *service.PoolService
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func NewHTTPService(conf *config.GeneralConfig, poolSvc *service.PoolService, ledger token.Ledger) *HTTPService {
	return &HTTPService{
		poolSvc:     poolSvc,
		rateLimiter: middlewares.NewRateLimiter(10, 20),
		conf:        conf,
		handlers: []httputil.IHttpHandler{
			NewPoolHandler(poolSvc),
			NewLiquidityHandler(poolSvc),
			NewSwapHandler(poolSvc),
			NewTokenHandler(ledger),
		},
	}
}

func (svc *HTTPService) Start() error {
	if svc.conf.Env != config.DevEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowCredentials = true
	corsConf.AddAllowHeaders("Authorization", "X-Wallet-Address", "X-Timestamp", "X-Signature")
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	svc.setupHandlers(pub, priv, admin)

	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: r,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}

	return nil
}

func (svc *HTTPService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
