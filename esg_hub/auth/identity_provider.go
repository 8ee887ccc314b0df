package auth

import (
	"errors"

	"esg_platform/esg_hub/schema"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFoundWithEmail = errors.New("no user found for given email")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
	ErrGeneratingJwt         = errors.New("error generating jwt")
	ErrEmailAlreadyInUse     = errors.New("email is already in use")
	ErrUsernameAlreadyInUse  = errors.New("username is already in use")
)

type LoginResult struct {
	UserId      uuid.UUID
	AccessToken string
	Role        string
}

type NewUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// OnUserCreated runs inside the transaction that creates the user, so records
// created alongside the user (e.g. an owned organization) commit or fail with it.
type OnUserCreated func(txn *gorm.DB, user schema.User) error

type IdentityProvider interface {
	AuthMiddleware() chi.Middlewares

	LoginWithEmail(email, password string) (LoginResult, error)

	CreateUser(args NewUser, onCreate OnUserCreated) (schema.User, error)
}

type requestContextKey string

const (
	userRequestContextKey         requestContextKey = "user"
	organizationRequestContextKey requestContextKey = "organization"
)
