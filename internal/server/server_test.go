package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tourmarket-backend/internal/catalog"
	"tourmarket-backend/internal/config"
	"tourmarket-backend/internal/infrastructure/repo"
	"tourmarket-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.CommissionPercent = 10

	users, err := usecase.SeedUsersFrom("")
	require.NoError(t, err)

	store := repo.NewMemoryStore(cfg.CommissionPercent)
	orders := &usecase.OrderService{
		Repo:              store,
		Catalog:           catalog.Static{},
		CommissionPercent: cfg.CommissionPercent,
		Log:               zap.NewNop(),
	}
	auth := &usecase.AuthService{JWTSecret: cfg.JWTSecret, Env: cfg.Env, SeedUsers: users}
	return New(cfg, orders, auth, zap.NewNop())
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "123456",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestHealthAndCatalogAreOpen(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/services", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/providers/1/services", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrdersRequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AUTH_MISSING_BEARER_TOKEN", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)

	rec = do(t, s, http.MethodGet, "/orders", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AUTH_INVALID_OR_EXPIRED_TOKEN", body.Error.Code)
}

func TestCreateAndPayOrder(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user2@tourmarket.dev")

	rec := do(t, s, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"serviceId": 1, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Totals struct {
			Gross float64 `json:"gross"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "CREATED", created.Status)
	assert.Equal(t, 300.0, created.Totals.Gross)

	rec = do(t, s, http.MethodPost, "/orders/"+created.ID+"/pay", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// paying again conflicts and names both statuses
	rec = do(t, s, http.MethodPost, "/orders/"+created.ID+"/pay", token, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var conflict struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				FromStatus string `json:"fromStatus"`
				ToStatus   string `json:"toStatus"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.Equal(t, "INVALID_ORDER_TRANSITION", conflict.Error.Code)
	assert.Equal(t, "PAID", conflict.Error.Details.FromStatus)
	assert.Equal(t, "PAID", conflict.Error.Details.ToStatus)
}

func TestOrdersAreScopedToTheirOwner(t *testing.T) {
	s := newTestServer(t)
	owner := login(t, s, "user2@tourmarket.dev")
	stranger := login(t, s, "user3@tourmarket.dev")

	rec := do(t, s, http.MethodPost, "/orders", owner, map[string]any{
		"items": []map[string]any{{"serviceId": 2, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(t, s, http.MethodGet, "/orders/"+created.ID, stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/orders/"+created.ID, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSummaryRequiresAdminRole(t *testing.T) {
	s := newTestServer(t)

	user := login(t, s, "user2@tourmarket.dev")
	rec := do(t, s, http.MethodGet, "/admin/summary", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := login(t, s, "simone@tourmarket.dev")
	rec = do(t, s, http.MethodGet, "/admin/summary", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderWithNoValidItems(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user2@tourmarket.dev")

	rec := do(t, s, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"serviceId": 999, "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_VALID_ITEMS", body.Error.Code)
}
