package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
)

// HTTPHandler serves the study assistant. A nil Service answers 503.
type HTTPHandler struct {
	svc      *Service
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewHTTPHandler(svc *Service, validate *validator.Validate, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, validate: validate, logger: logger}
}

type chatRequest struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=50,dive"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// HandleChat handles POST /v1/chat
func (h *HTTPHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeFeatureNotAvailable, "Chat assistant is not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondValidation(w, err)
		return
	}

	reply, err := h.svc.Complete(r.Context(), req.Messages)
	switch {
	case errors.Is(err, ErrNotConfigured):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeFeatureNotAvailable, "Chat assistant is not configured")
		return
	case err != nil:
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "Chat assistant is unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{Reply: reply})
}
