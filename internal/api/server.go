// Package api exposes the webhook ingestion endpoint and the read API over gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"factoryMonitor/internal/feed"
	"factoryMonitor/internal/ingest"
	"factoryMonitor/internal/model"
	"factoryMonitor/internal/quote"
	"factoryMonitor/internal/storage"
)

// Ingester processes delivered block payloads. *ingest.Processor satisfies it.
type Ingester interface {
	ProcessPayload(ctx context.Context, payload model.WebhookPayload) (ingest.Summary, error)
	Info() ingest.Info
}

// CandleSource builds OHLCV windows. *candles.Service satisfies it.
type CandleSource interface {
	Candles(ctx context.Context, token string, window time.Duration, count int) ([]model.Candle, error)
}

// Quoter previews trades against the contract. *quote.Service satisfies it.
type Quoter interface {
	Quote(ctx context.Context, token common.Address, side quote.Side, amount string) (quote.Quote, error)
}

// Subscriber hands out per-token feed subscriptions. *feed.Broker satisfies it.
type Subscriber interface {
	Subscribe(token string) *feed.Subscription
}

// Config holds HTTP settings.
type Config struct {
	ListenAddr   string
	WebhookPath  string
	SigningKey   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
}

// Deps are the services behind the routes. Candles, Quotes and Feed are optional;
// their routes answer 503 when unset.
type Deps struct {
	Ingester Ingester
	Store    storage.Reader
	Candles  CandleSource
	Quotes   Quoter
	Feed     Subscriber
	Logger   *zap.Logger
}

// Server is the HTTP front of the monitor.
type Server struct {
	cfg        Config
	deps       Deps
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

// New wires the routes.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Ingester == nil || deps.Store == nil {
		return nil, fmt.Errorf("ingester and store are required")
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/api/webhook"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(Recovery(deps.Logger))
	router.Use(Logger(deps.Logger))

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: router,
		logger: deps.Logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	s.router.POST(s.cfg.WebhookPath, s.receiveWebhook)
	s.router.GET(s.cfg.WebhookPath, s.webhookInfo)

	v1 := s.router.Group("/api/v1")
	v1.GET("/tokens/:address", s.getToken)
	v1.GET("/tokens/:address/trades", s.listTrades)
	v1.GET("/tokens/:address/candles", s.getCandles)
	v1.GET("/tokens/:address/quote", s.getQuote)
	v1.GET("/users/:address", s.getUser)

	s.router.GET("/ws/tokens/:address", s.streamToken)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("starting api server",
		zap.String("address", s.cfg.ListenAddr),
		zap.String("webhookPath", s.cfg.WebhookPath),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down api server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}
