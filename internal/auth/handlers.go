package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc  *Service
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, validate *validator.Validate, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc:  authSvc,
		validate: validate,
		logger:   logger.With().Str("component", "auth_http").Logger(),
	}
}

type authResponse struct {
	Student
	Token
}

// Register handles POST /v1/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondValidation(w, err)
		return
	}

	student, token, err := h.authSvc.Register(r.Context(), req)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		httperrors.RespondConflict(w, httperrors.ErrCodeUsernameTaken, "Username is already taken")
		return
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "password")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("registration failed")
		httperrors.RespondInternalError(w, "Registration failed")
		return
	}

	h.respondJSON(w, http.StatusCreated, authResponse{Student: *student, Token: *token})
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondValidation(w, err)
		return
	}

	student, token, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			h.logger.Error().Err(err).Msg("login failed")
		}
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid username or password")
		return
	}

	h.respondJSON(w, http.StatusOK, authResponse{Student: *student, Token: *token})
}

// Me handles GET /v1/me (requires auth middleware)
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	student, err := h.authSvc.Student(r.Context(), claims.StudentID)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Student not found")
			return
		}
		h.logger.Error().Err(err).Str("student_id", claims.StudentID).Msg("load student failed")
		httperrors.RespondInternalError(w, "Failed to load account")
		return
	}

	h.respondJSON(w, http.StatusOK, student)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}
