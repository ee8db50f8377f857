package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourmarket-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	jwtIssuer   = "tourmarket"
	jwtAudience = "tourmarket-api"
	tokenExpiry = 2 * time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	JWTSecret string
	Env       string
	SeedUsers []domain.SeedUser
}

func (s *AuthService) production() bool {
	return strings.EqualFold(s.Env, "production")
}

// Login validates against the seed users and returns a signed token.
// Seed logins are refused in production.
func (s *AuthService) Login(email, password string) (string, error) {
	if s.production() {
		return "", errors.New("seed user login is not allowed in production")
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	e := strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.SeedUsers {
		if strings.ToLower(strings.TrimSpace(u.Email)) == e && u.Password == password {
			return s.sign(u.ID, u.Email, u.Role)
		}
	}
	return "", ErrInvalidCredentials
}

func (s *AuthService) sign(userID, email, role string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   jwtIssuer,
		"aud":   jwtAudience,
		"sub":   userID,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenExpiry).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

// Verify parses and validates a token and returns the actor it names.
func (s *AuthService) Verify(token string) (domain.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.JWTSecret), nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithAudience(jwtAudience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return domain.Actor{}, domain.ErrUnauthorized
	}

	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	sub, _ := m["sub"].(string)
	if sub == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	email, _ := m["email"].(string)
	role, _ := m["role"].(string)
	return domain.Actor{ID: sub, Email: email, Role: role}, nil
}

// SeedUsersFrom parses the env JSON override, falling back to the
// built-in dev/test entries when unset.
func SeedUsersFrom(raw string) ([]domain.SeedUser, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultSeedUsers(), nil
	}
	var users []domain.SeedUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("seed users JSON: %w", err)
	}
	if len(users) == 0 {
		return nil, errors.New("seed users JSON must be a non-empty array")
	}
	for _, u := range users {
		if u.ID == "" || u.Email == "" || u.Password == "" {
			return nil, errors.New("seed user entries must include id, email and password")
		}
	}
	return users, nil
}

func defaultSeedUsers() []domain.SeedUser {
	return []domain.SeedUser{
		{ID: "u_simone_1", Email: "simone@tourmarket.dev", Password: "123456", Role: "admin"},
		{ID: "u_user2_1", Email: "user2@tourmarket.dev", Password: "123456", Role: "user"},
		{ID: "u_user3_1", Email: "user3@tourmarket.dev", Password: "123456", Role: "user"},
		{ID: "u_admin2_1", Email: "admin@tourmarket.dev", Password: "123456", Role: "admin"},
	}
}
