package api

import (
	"ats-analyzer/internal/auth"
	"ats-analyzer/internal/database"
	"ats-analyzer/internal/lib/sl"
	"ats-analyzer/internal/models"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"
)

var checkPassword = auth.CheckPasswordHash

// dummyPasswordHash stands in for the stored hash when the email is unknown.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("unused-login-placeholder")
	if err != nil {
		panic(err)
	}
	return hash
})

type RegisterRequest struct {
	Name     string `json:"name" validate:"required" example:"Jan Kowalski"`
	Email    string `json:"email" validate:"required,email" example:"jan@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"jan@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

type UserResponse struct {
	ID               string         `json:"id" example:"5f1c0f4e-8d1a-4a7b-9a43-0c1c2f54e1aa"`
	Name             string         `json:"name" example:"Jan Kowalski"`
	Email            string         `json:"email" example:"jan@example.com"`
	Plan             models.Plan    `json:"plan" example:"free"`
	Credits          models.Credits `json:"credits" swaggertype:"integer" example:"3"`
	TotalAnalyses    int            `json:"totalAnalyses" example:"0"`
	LastAnalysisDate *time.Time     `json:"lastAnalysisDate,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

type AuthResponse struct {
	Success bool         `json:"success" example:"true"`
	Token   string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    UserResponse `json:"user"`
}

type MeResponse struct {
	Success bool         `json:"success" example:"true"`
	User    UserResponse `json:"user"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Plan:             u.Plan,
		Credits:          u.Balance(),
		TotalAnalyses:    u.TotalAnalyses,
		LastAnalysisDate: u.LastAnalysisDate,
		CreatedAt:        u.CreatedAt,
	}
}

// @Summary      Registers a new user
// @Description  Creates a free-plan account with the initial credit allowance and returns an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Account details"
// @Success      201              {object}  AuthResponse
// @Failure      400              {object}  ErrorResponse "Invalid request body"
// @Failure      409              {object}  ErrorResponse "Email already registered"
// @Failure      500              {object}  ErrorResponse
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.RegisterHandler"
	log := s.requestLogger(r, op)

	var req RegisterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Name, a valid email and a password of at least 6 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Plan:         models.PlanFree,
		Credits:      s.config.Credits.FreeInitial,
	})
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			s.respondError(w, r, http.StatusConflict, "A user with this email already exists")
			return
		}
		log.Error("failed to create user", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, err := auth.GenerateJWT(user, s.config.JWT.Secret, s.config.JWT.TTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to generate access token")
		return
	}

	writeJSON(w, r, http.StatusCreated, AuthResponse{Success: true, Token: token, User: newUserResponse(user)})
}

// @Summary      Logs a user in
// @Description  Authenticates a user by email and password and returns an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Login Credentials"
// @Success      200           {object}  AuthResponse
// @Failure      400           {object}  ErrorResponse "Invalid request body"
// @Failure      401           {object}  ErrorResponse "Invalid email or password"
// @Failure      500           {object}  ErrorResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.LoginHandler"
	log := s.requestLogger(r, op)

	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		log.Error("failed to load user", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	hash := dummyPasswordHash()
	if user != nil {
		hash = user.PasswordHash
	}
	if !checkPassword(req.Password, hash) || user == nil {
		s.respondError(w, r, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.GenerateJWT(user, s.config.JWT.Secret, s.config.JWT.TTL)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Failed to generate access token")
		return
	}

	writeJSON(w, r, http.StatusOK, AuthResponse{Success: true, Token: token, User: newUserResponse(user)})
}

// @Summary      Current user
// @Description  Returns the authenticated user's plan, credit balance and analysis counters.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MeResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	const op = "api.MeHandler"
	log := s.requestLogger(r, op)
	claims := GetUserFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			s.respondError(w, r, http.StatusUnauthorized, "User not found or session invalid")
			return
		}
		log.Error("failed to load user", sl.Err(err))
		s.respondError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, MeResponse{Success: true, User: newUserResponse(user)})
}
