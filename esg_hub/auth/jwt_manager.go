package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"esg_platform/esg_hub/schema"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const DefaultTokenExpiration = 12 * time.Hour

type JwtManager struct {
	auth       *jwtauth.JWTAuth
	expiration time.Duration
}

func NewJwtManager(secret []byte, expiration time.Duration) *JwtManager {
	if expiration <= 0 {
		expiration = DefaultTokenExpiration
	}
	return &JwtManager{auth: jwtauth.New("HS256", secret, nil), expiration: expiration}
}

func (m *JwtManager) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(m.auth)
}

func (m *JwtManager) Authenticator() func(http.Handler) http.Handler {
	return jwtauth.Authenticator(m.auth)
}

const userIdKey = "user_id"

func (m *JwtManager) createToken(key, value string, exp time.Duration) (string, error) {
	claims := map[string]interface{}{
		key:   value,
		"exp": time.Now().Add(exp),
	}
	_, token, err := m.auth.Encode(claims)
	if err != nil {
		slog.Error("error generating jwt", "error", err)
		return "", fmt.Errorf("error generating access token: %w", err)
	}
	return token, nil
}

func (m *JwtManager) CreateUserJwt(userId uuid.UUID) (string, error) {
	return m.createToken(userIdKey, userId.String(), m.expiration)
}

func ValueFromContext(r *http.Request, key string) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", fmt.Errorf("error retrieving auth claims: %w", err)
	}

	valueUncasted, ok := claims[key]
	if !ok {
		return "", fmt.Errorf("invalid token: unable to locate key %v in claims", key)
	}

	value, ok := valueUncasted.(string)
	if !ok {
		return "", fmt.Errorf("invalid token: value for key %v has invalid type", key)
	}

	return value, nil
}

func UserFromContext(r *http.Request) (schema.User, error) {
	userUntyped := r.Context().Value(userRequestContextKey)
	if userUntyped == nil {
		return schema.User{}, fmt.Errorf("user field not found in request context")
	}
	user, ok := userUntyped.(schema.User)
	if !ok {
		return schema.User{}, fmt.Errorf("invalid value for user field")
	}
	return user, nil
}

// WithUser attaches user to the request the way the auth middleware does.
func WithUser(r *http.Request, user schema.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userRequestContextKey, user))
}
