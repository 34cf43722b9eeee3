package question

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
)

// HTTPHandler exposes the bank catalog so clients can build filter pickers.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type catalogResponse struct {
	Subjects     map[string][]string `json:"subjects"`
	Difficulties []string            `json:"difficulties"`
}

// HandleCatalog handles GET /v1/catalog
func (h *HTTPHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.svc.Catalog(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("catalog lookup failed")
		httperrors.RespondInternalError(w, "Failed to load catalog")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(catalogResponse{
		Subjects:     catalog,
		Difficulties: []string{DifficultyEasy, DifficultyMedium, DifficultyHard},
	})
}
