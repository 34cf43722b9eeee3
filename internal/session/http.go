package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/question"
	httperrors "github.com/gokatarajesh/mentors-mantra/pkg/http/errors"
)

// ImageSource serves question images by question id.
type ImageSource interface {
	Image(ctx context.Context, id string, maxWidth, maxHeight int) ([]byte, string, error)
}

// Limits bound what a student may request when starting a test.
type Limits struct {
	DefaultQuestionCount int
	MaxQuestionCount     int
	DefaultDuration      time.Duration
	MaxDuration          time.Duration
}

// HTTPHandlers provides REST endpoints for test sessions.
type HTTPHandlers struct {
	manager  *Manager
	images   ImageSource
	validate *validator.Validate
	limits   Limits
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(manager *Manager, images ImageSource, validate *validator.Validate, limits Limits, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		manager:  manager,
		images:   images,
		validate: validate,
		limits:   limits,
		logger:   logger.With().Str("component", "session_http").Logger(),
	}
}

// StartRequest is the body of POST /v1/sessions.
type StartRequest struct {
	Subjects        []string `json:"subjects" validate:"omitempty,dive,required"`
	Chapters        []string `json:"chapters" validate:"omitempty,dive,required"`
	Difficulties    []string `json:"difficulties" validate:"omitempty,dive,required"`
	Count           int      `json:"count" validate:"omitempty,min=1"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,min=1"`
}

// AnswerRequest carries either a label list or a compact answer string such
// as "AC". An empty selection clears the answer.
type AnswerRequest struct {
	Labels []string `json:"labels" validate:"omitempty,dive,required"`
	Answer string   `json:"answer" validate:"omitempty,max=16"`
}

func (a AnswerRequest) selection() []string {
	if len(a.Labels) > 0 {
		return a.Labels
	}
	return question.SplitLabels(a.Answer)
}

// QuestionView is a question as shown during a test.
type QuestionView struct {
	Index      int      `json:"index"`
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Chapter    string   `json:"chapter"`
	Difficulty string   `json:"difficulty"`
	Options    []string `json:"options"`
	ImageURL   string   `json:"image_url,omitempty"`
	Selected   []string `json:"selected"`
}

// SessionView is the client representation of a TestSession. Correct
// answers are only exposed through Result once the session is completed.
type SessionView struct {
	ID               string         `json:"id"`
	State            State          `json:"state"`
	StartedAt        time.Time      `json:"started_at"`
	Deadline         time.Time      `json:"deadline"`
	DurationSeconds  int            `json:"duration_seconds"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Answered         int            `json:"answered"`
	Total            int            `json:"total"`
	Questions        []QuestionView `json:"questions"`
	Result           *ScoreResult   `json:"result,omitempty"`
}

// NewSessionView renders s for its owner.
func NewSessionView(s *TestSession, remaining time.Duration) SessionView {
	view := SessionView{
		ID:               s.ID,
		State:            s.State,
		StartedAt:        s.StartedAt,
		Deadline:         s.Deadline(),
		DurationSeconds:  s.DurationSeconds,
		RemainingSeconds: int(remaining / time.Second),
		Answered:         len(s.Answers),
		Total:            len(s.Questions),
		Questions:        make([]QuestionView, len(s.Questions)),
		Result:           s.Result,
	}
	for i, q := range s.Questions {
		qv := QuestionView{
			Index:      i,
			ID:         q.ID,
			Subject:    q.Subject,
			Chapter:    q.Chapter,
			Difficulty: q.Difficulty,
			Options:    q.Options,
			Selected:   s.Answers[i],
		}
		if q.HasImage {
			qv.ImageURL = "/v1/sessions/" + s.ID + "/questions/" + strconv.Itoa(i) + "/image"
		}
		if qv.Selected == nil {
			qv.Selected = []string{}
		}
		view.Questions[i] = qv
	}
	return view
}

type answerResponse struct {
	Applied bool        `json:"applied"`
	Session SessionView `json:"session"`
}

// Start handles POST /v1/sessions
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondValidation(w, err)
		return
	}

	count := req.Count
	if count == 0 {
		count = h.limits.DefaultQuestionCount
	}
	if h.limits.MaxQuestionCount > 0 && count > h.limits.MaxQuestionCount {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed,
			"count exceeds the maximum of "+strconv.Itoa(h.limits.MaxQuestionCount), "count")
		return
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	if duration == 0 {
		duration = h.limits.DefaultDuration
	}
	if h.limits.MaxDuration > 0 && duration > h.limits.MaxDuration {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed,
			"duration exceeds the maximum of "+h.limits.MaxDuration.String(), "duration_minutes")
		return
	}

	filter := question.Filter{
		Subjects:     req.Subjects,
		Chapters:     req.Chapters,
		Difficulties: req.Difficulties,
		Count:        count,
	}
	s, err := h.manager.Start(r.Context(), claims.StudentID, filter, duration)
	switch {
	case errors.Is(err, ErrNoQuestionsAvailable):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoQuestionsAvailable, "No questions available for the selected filters")
		return
	case errors.Is(err, question.ErrInvalidFilter), errors.Is(err, ErrInvalidDuration):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	case err != nil:
		h.logger.Error().Err(err).Str("student_id", claims.StudentID).Msg("start session failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeStartFailed, "Unable to start a test right now")
		return
	}

	h.respondJSON(w, http.StatusCreated, NewSessionView(s, h.manager.Engine().RemainingTime(s)))
}

// Current handles GET /v1/sessions/current
func (h *HTTPHandlers) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	s, err := h.manager.Current(r.Context(), claims.StudentID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, NewSessionView(s, h.manager.Engine().RemainingTime(s)))
}

// Get handles GET /v1/sessions/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	s, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"), claims.StudentID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, NewSessionView(s, h.manager.Engine().RemainingTime(s)))
}

// Answer handles PUT /v1/sessions/{id}/answers/{index}
func (h *HTTPHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "index must be an integer", "index")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperrors.RespondValidation(w, err)
		return
	}

	s, applied, err := h.manager.RecordAnswer(r.Context(), chi.URLParam(r, "id"), claims.StudentID, index, req.selection())
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, answerResponse{
		Applied: applied,
		Session: NewSessionView(s, h.manager.Engine().RemainingTime(s)),
	})
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	_, result, err := h.manager.Submit(r.Context(), chi.URLParam(r, "id"), claims.StudentID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Result handles GET /v1/sessions/{id}/result
func (h *HTTPHandlers) Result(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	s, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"), claims.StudentID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	if s.Result == nil {
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionBusy, "Test is still in progress")
		return
	}
	h.respondJSON(w, http.StatusOK, s.Result)
}

// Image handles GET /v1/sessions/{id}/questions/{index}/image
func (h *HTTPHandlers) Image(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "index must be an integer", "index")
		return
	}

	s, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"), claims.StudentID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	if index < 0 || index >= len(s.Questions) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeImageNotFound, "No such question")
		return
	}

	maxW, _ := strconv.Atoi(r.URL.Query().Get("w"))
	maxH, _ := strconv.Atoi(r.URL.Query().Get("h"))
	data, contentType, err := h.images.Image(r.Context(), s.Questions[index].ID, maxW, maxH)
	switch {
	case errors.Is(err, question.ErrNoImage), errors.Is(err, question.ErrQuestionMissing):
		httperrors.RespondNotFound(w, httperrors.ErrCodeImageNotFound, "Question image not found")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("session_id", s.ID).Int("index", index).Msg("load image failed")
		httperrors.RespondInternalError(w, "Failed to load image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *HTTPHandlers) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
	case errors.Is(err, ErrLockTimeout):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionBusy, "Session is busy, retry shortly")
	default:
		h.logger.Error().Err(err).Msg("session request failed")
		httperrors.RespondInternalError(w, "Session request failed")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}
