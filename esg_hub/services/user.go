package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	resolver *auth.OrganizationResolver
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/info", s.Info)

	return r
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=organization consultant"`

	// Required for organization accounts, which own the organization created here.
	Organization *organizationRequest `json:"organization" validate:"required_if=Role organization,omitempty"`
}

type registerResponse struct {
	UserId         uuid.UUID  `json:"user_id"`
	OrganizationId *uuid.UUID `json:"organization_id,omitempty"`
}

func (s *UserService) Register(w http.ResponseWriter, r *http.Request) {
	var params registerRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var res registerResponse

	newUser := auth.NewUser{Username: params.Username, Email: params.Email, Password: params.Password, Role: params.Role}
	user, err := s.userAuth.CreateUser(newUser, func(txn *gorm.DB, user schema.User) error {
		if params.Role != schema.OrganizationRole || params.Organization == nil {
			return nil
		}
		org := params.Organization.toOrganization(&user.Id)
		if err := createOrganization(txn, &org); err != nil {
			return err
		}
		res.OrganizationId = &org.Id
		return nil
	})
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse):
			responseCode = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameAlreadyInUse):
			responseCode = http.StatusConflict
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	slog.Info("registered new user", "user_id", user.Id, "role", user.Role)

	res.UserId = user.Id
	utils.WriteJsonResponse(w, res)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserId      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"access_token"`
	Role        string    `json:"role"`
}

func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var params loginRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithEmail(params.Email, params.Password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail):
			// Same response as a wrong password so registered emails are not revealed.
			responseCode = http.StatusUnauthorized
			err = auth.ErrInvalidCredentials
		case errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	res := loginResponse{UserId: login.UserId, AccessToken: login.AccessToken, Role: login.Role}
	utils.WriteJsonResponse(w, res)
}

type userInfoResponse struct {
	Id            uuid.UUID                  `json:"id"`
	Username      string                     `json:"username"`
	Email         string                     `json:"email"`
	Role          string                     `json:"role"`
	Organizations []auth.OrganizationSummary `json:"organizations"`
}

func (s *UserService) Info(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	orgs, err := s.resolver.AccessibleOrganizations(user.Id)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing organizations for user: %v", err), http.StatusInternalServerError)
		return
	}

	res := userInfoResponse{
		Id:            user.Id,
		Username:      user.Username,
		Email:         user.Email,
		Role:          user.Role,
		Organizations: orgs,
	}
	utils.WriteJsonResponse(w, res)
}
