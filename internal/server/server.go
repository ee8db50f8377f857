package server

import (
	"fmt"
	"net/http"

	"tourmarket-backend/internal/config"
	"tourmarket-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.Config
	orders *usecase.OrderService
	auth   *usecase.AuthService
	log    *zap.Logger
	engine *gin.Engine
}

func New(cfg config.Config, orders *usecase.OrderService, auth *usecase.AuthService, log *zap.Logger) *Server {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:    cfg,
		orders: orders,
		auth:   auth,
		log:    log,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestID(), s.requestLog())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/services", s.handleListServices)
	s.engine.GET("/providers", s.handleListProviders)
	s.engine.GET("/providers/:id/services", s.handleProviderServices)
	s.engine.POST("/auth/login", s.handleLogin)

	orders := s.engine.Group("/orders", s.requireAuth())
	orders.GET("", s.handleListOrders)
	orders.POST("", s.handleCreateOrder)
	orders.GET("/:id", s.handleGetOrder)
	orders.POST("/:id/pay", s.handlePayOrder)
	orders.POST("/:id/confirm", s.handleConfirmOrder)
	orders.POST("/:id/complete", s.handleCompleteOrder)
	orders.POST("/:id/cancel", s.handleCancelOrder)

	admin := s.engine.Group("/admin", s.requireAuth(), s.requireAdmin())
	admin.GET("/summary", s.handleAdminSummary)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.cfg.Port))
}
