package server

import (
	"errors"
	"net/http"
	"strconv"

	"tourmarket-backend/internal/catalog"
	"tourmarket-backend/internal/domain"
	"tourmarket-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

// fail writes the error envelope every endpoint shares:
// {"error":{"code","message","requestId","details"?}}.
func (s *Server) fail(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{
		"code":      code,
		"message":   message,
		"requestId": c.GetString("requestId"),
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{"error": body})
}

// apiError maps a core error kind to a status code and envelope.
func (s *Server) apiError(c *gin.Context, err error) {
	var transition *domain.InvalidTransitionError
	var commission *domain.InvalidCommissionConfigError

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		s.fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		s.fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error(), nil)
	case errors.As(err, &transition):
		s.fail(c, http.StatusConflict, "INVALID_ORDER_TRANSITION", transition.Error(), gin.H{
			"fromStatus": transition.From,
			"toStatus":   transition.To,
		})
	case errors.Is(err, domain.ErrNoValidItems):
		s.fail(c, http.StatusBadRequest, "NO_VALID_ITEMS", err.Error(), nil)
	case errors.Is(err, domain.ErrRepositoryNotImplemented):
		s.fail(c, http.StatusNotImplemented, "REPO_NOT_IMPLEMENTED", err.Error(), nil)
	case errors.As(err, &commission):
		s.fail(c, http.StatusInternalServerError, "INVALID_PLATFORM_COMMISSION_PERCENT", commission.Error(), nil)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		s.fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	default:
		s.fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListServices(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Services())
}

func (s *Server) handleListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Providers())
}

func (s *Server) handleProviderServices(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, []catalog.Service{})
		return
	}
	c.JSON(http.StatusOK, catalog.ServicesByProviderID(id))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_BODY", "body must be a JSON object", nil)
		return
	}
	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.orders.List(actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var input usecase.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_BODY", "body must be a JSON object", nil)
		return
	}
	created, err := s.orders.Create(input, actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orders.GetByID(c.Param("id"), actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handlePayOrder(c *gin.Context) {
	order, err := s.orders.Pay(c.Param("id"), actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleConfirmOrder(c *gin.Context) {
	order, err := s.orders.Confirm(c.Param("id"), actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleCompleteOrder(c *gin.Context) {
	order, err := s.orders.Complete(c.Param("id"), actorFrom(c))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	var req cancelRequest
	_ = c.ShouldBindJSON(&req) // body is optional
	order, err := s.orders.Cancel(c.Param("id"), actorFrom(c), req.Reason)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleAdminSummary(c *gin.Context) {
	actor := actorFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "admin",
		"user": gin.H{
			"id":   actor.ID,
			"role": actor.Role,
		},
	})
}
