package results

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
)

// HTTPHandler serves a student's performance history.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type historyResponse struct {
	Summary Summary  `json:"summary"`
	Results []Record `json:"results"`
}

// HandleHistory handles GET /v1/results
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	records, err := h.svc.History(r.Context(), claims.StudentID)
	if err != nil {
		h.logger.Error().Err(err).Str("student_id", claims.StudentID).Msg("history lookup failed")
		httperrors.RespondInternalError(w, "Failed to load results")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(historyResponse{Summary: Summarize(records), Results: records})
}
