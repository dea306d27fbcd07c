package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"edtrack-assessment-service/internal/app"
	"edtrack-assessment-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// UserDirectory resolves the calling user for a request.
type UserDirectory interface {
	CurrentUserID(r *http.Request) (string, error)
}

// HeaderUserDirectory trusts an upstream gateway to put the authenticated user
// ID in a request header.
type HeaderUserDirectory struct {
	Header string
}

func (d HeaderUserDirectory) CurrentUserID(r *http.Request) (string, error) {
	header := d.Header
	if header == "" {
		header = "X-User-ID"
	}
	userID := r.Header.Get(header)
	if userID == "" {
		return "", errors.New("missing " + header + " header")
	}
	return userID, nil
}

// API exposes the attempt lifecycle and leaderboards over JSON HTTP.
type API struct {
	service *app.AttemptService
	boards  app.LeaderboardSource
	users   UserDirectory
}

func NewAPI(service *app.AttemptService, boards app.LeaderboardSource, users UserDirectory) *API {
	return &API{service: service, boards: boards, users: users}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/assessments/{assessmentID}/attempts", a.startAttempt)
	mux.HandleFunc("GET /api/v1/assessments/{assessmentID}/attempts", a.listAttempts)
	mux.HandleFunc("GET /api/v1/assessments/{assessmentID}/leaderboard", a.getLeaderboard)
	mux.HandleFunc("GET /api/v1/attempts/{attemptID}", a.getAttempt)
	mux.HandleFunc("PUT /api/v1/attempts/{attemptID}/answers/{questionID}", a.saveAnswer)
	mux.HandleFunc("POST /api/v1/attempts/{attemptID}/submit", a.submitAttempt)
	mux.HandleFunc("GET /api/v1/attempts/{attemptID}/result", a.getResult)
}

type startAttemptResponse struct {
	AttemptID     string     `json:"attemptId"`
	Resumed       bool       `json:"resumed"`
	StartedAt     time.Time  `json:"startedAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	QuestionOrder []string   `json:"questionOrder"`
}

type submitResponse struct {
	AttemptID       string                `json:"attemptId"`
	Status          domain.AttemptStatus  `json:"status"`
	ResultAvailable bool                  `json:"resultAvailable"`
	Result          *domain.AttemptResult `json:"result,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) startAttempt(w http.ResponseWriter, r *http.Request) {
	userID, err := a.users.CurrentUserID(r)
	if err != nil {
		writeErrorStatus(w, http.StatusUnauthorized, err)
		return
	}

	attempt, resumed, err := a.service.StartAttempt(r.Context(), r.PathValue("assessmentID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	writeJSON(w, status, startAttemptResponse{
		AttemptID:     attempt.ID,
		Resumed:       resumed,
		StartedAt:     attempt.StartedAt,
		ExpiresAt:     attempt.ExpiresAt,
		QuestionOrder: attempt.QuestionOrder,
	})
}

func (a *API) listAttempts(w http.ResponseWriter, r *http.Request) {
	userID, err := a.users.CurrentUserID(r)
	if err != nil {
		writeErrorStatus(w, http.StatusUnauthorized, err)
		return
	}

	summaries, err := a.service.ListAttempts(r.Context(), r.PathValue("assessmentID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (a *API) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := a.boards.GetLeaderboard(r.Context(), r.PathValue("assessmentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (a *API) getAttempt(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.GetAttempt(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) saveAnswer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorStatus(w, http.StatusBadRequest, err)
		return
	}
	value, err := domain.DecodeAnswerValue(body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := a.service.SaveAnswer(r.Context(), r.PathValue("attemptID"), r.PathValue("questionID"), value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) submitAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := r.PathValue("attemptID")
	result, err := a.service.SubmitAttempt(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}

	visible, err := a.service.ResultVisible(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := submitResponse{
		AttemptID:       attemptID,
		Status:          domain.AttemptSubmitted,
		ResultAvailable: visible,
	}
	if visible {
		resp.Result = &result
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) getResult(w http.ResponseWriter, r *http.Request) {
	attemptID := r.PathValue("attemptID")
	result, err := a.service.GetAttemptResult(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}

	visible, err := a.service.ResultVisible(r.Context(), attemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !visible {
		// Scored but withheld until the teacher releases results.
		writeJSON(w, http.StatusAccepted, submitResponse{
			AttemptID:       attemptID,
			Status:          domain.AttemptSubmitted,
			ResultAvailable: false,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Could not encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		writeErrorStatus(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidAnswer):
		writeErrorStatus(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrAssessmentNotOpen),
		errors.Is(err, domain.ErrMaxAttemptsReached),
		errors.Is(err, domain.ErrAttemptClosed),
		errors.Is(err, domain.ErrNotSubmitted),
		errors.Is(err, domain.ErrDuplicateAttempt):
		writeErrorStatus(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrAttemptExpired):
		writeErrorStatus(w, http.StatusGone, err)
	default:
		log.Error().Err(err).Msg("Request failed")
		writeErrorStatus(w, http.StatusInternalServerError, err)
	}
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
