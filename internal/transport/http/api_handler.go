package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"quizdash/internal/app"
	"quizdash/internal/domain"
)

// APIHandler is the command channel: quiz CRUD, score persistence, and the
// session commands, all request/response JSON.
type APIHandler struct {
	sessions *app.SessionService
	quizzes  app.QuizStore
	scores   app.ScoreStore
	// joinBaseURL is the public URL prefix encoded into session QR codes.
	joinBaseURL string
}

func NewAPIHandler(sessions *app.SessionService, quizzes app.QuizStore, scores app.ScoreStore, joinBaseURL string) *APIHandler {
	return &APIHandler{
		sessions:    sessions,
		quizzes:     quizzes,
		scores:      scores,
		joinBaseURL: joinBaseURL,
	}
}

// Register mounts all command routes on the router.
func (h *APIHandler) Register(router *httprouter.Router) {
	router.GET("/api/quizzes", h.listQuizzes)
	router.POST("/api/quizzes", h.createQuiz)
	router.GET("/api/quizzes/:id", h.getQuiz)
	router.DELETE("/api/quizzes/:id", h.deleteQuiz)
	router.GET("/api/quizzes/:id/scores", h.scoresByQuiz)
	router.GET("/api/quizzes/:id/leaderboard", h.leaderboardByQuiz)

	router.GET("/api/scores", h.listScores)
	router.POST("/api/scores", h.createScore)
	router.GET("/api/scores/:id", h.getScore)
	router.DELETE("/api/scores", h.deleteScores)
	router.GET("/api/leaderboard", h.leaderboard)

	router.POST("/api/sessions", h.createSession)
	router.GET("/api/sessions/:id", h.getSession)
	router.GET("/api/sessions/:id/qr", h.sessionQR)
	router.POST("/api/sessions/:id/join", h.joinSession)
	router.POST("/api/sessions/:id/leave", h.leaveSession)
	router.POST("/api/sessions/:id/ready", h.setReady)
	router.POST("/api/sessions/:id/start", h.startSession)
	router.POST("/api/sessions/:id/advance", h.advanceQuestion)
	router.POST("/api/sessions/:id/answer", h.submitAnswer)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.Classify(err) {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindInvalidState, domain.KindInvalidInput, domain.KindMismatch:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message})
}

func intParam(ps httprouter.Params, name string) (int, bool) {
	id, err := strconv.Atoi(ps.ByName(name))
	return id, err == nil
}

// --- quizzes ---

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft domain.QuizDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid quiz payload")
		return
	}
	if draft.Title == "" {
		badRequest(w, "quiz title is required")
		return
	}
	quiz, err := h.quizzes.CreateQuiz(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := intParam(ps, "id")
	if !ok {
		badRequest(w, "invalid quiz id")
		return
	}
	quiz, err := h.quizzes.GetQuiz(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *APIHandler) deleteQuiz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := intParam(ps, "id")
	if !ok {
		badRequest(w, "invalid quiz id")
		return
	}
	if err := h.quizzes.DeleteQuiz(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- scores ---

func (h *APIHandler) listScores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	scores, err := h.scores.ListScores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *APIHandler) createScore(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft domain.ScoreDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, "invalid score payload")
		return
	}
	if draft.Username == "" || draft.QuizID == 0 {
		badRequest(w, "quizId and username are required")
		return
	}
	score, err := h.scores.CreateScore(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, score)
}

func (h *APIHandler) getScore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := intParam(ps, "id")
	if !ok {
		badRequest(w, "invalid score id")
		return
	}
	score, err := h.scores.GetScore(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (h *APIHandler) scoresByQuiz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := intParam(ps, "id")
	if !ok {
		badRequest(w, "invalid quiz id")
		return
	}
	scores, err := h.scores.ScoresByQuiz(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func limitQuery(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	return limit, err == nil
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, ok := limitQuery(r)
	if !ok {
		badRequest(w, "invalid limit parameter")
		return
	}
	scores, err := h.scores.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *APIHandler) leaderboardByQuiz(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := intParam(ps, "id")
	if !ok {
		badRequest(w, "invalid quiz id")
		return
	}
	limit, ok := limitQuery(r)
	if !ok {
		badRequest(w, "invalid limit parameter")
		return
	}
	entries, err := h.scores.LeaderboardByQuiz(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) deleteScores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	quizID := 0
	if raw := r.URL.Query().Get("quizId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid quiz id")
			return
		}
		quizID = id
	}
	if err := h.scores.DeleteScores(r.Context(), quizID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- sessions ---

type createSessionRequest struct {
	QuizID          int    `json:"quizId"`
	HostID          string `json:"hostId"`
	HostName        string `json:"hostName"`
	TimePerQuestion int    `json:"timePerQuestion"`
}

func (h *APIHandler) createSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid session payload")
		return
	}
	session, err := h.sessions.CreateSession(r.Context(), req.QuizID, req.HostID, req.HostName, req.TimePerQuestion)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *APIHandler) getSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, err := h.sessions.GetSession(ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// sessionQR renders a PNG QR code with the join link for sharing a session.
func (h *APIHandler) sessionQR(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	sessionID := ps.ByName("id")
	if _, err := h.sessions.GetSession(sessionID); err != nil {
		writeError(w, err)
		return
	}
	png, err := qrcode.Encode(h.joinBaseURL+"/join/"+sessionID, qrcode.Medium, 256)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		log.Printf("write qr: %v", err)
	}
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	IsReady  *bool  `json:"isReady"`
}

func (h *APIHandler) joinSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid join payload")
		return
	}
	session, err := h.sessions.JoinSession(ps.ByName("id"), req.PlayerID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) leaveSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid leave payload")
		return
	}
	session, deleted, err := h.sessions.LeaveSession(ps.ByName("id"), req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if deleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) setReady(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsReady == nil {
		badRequest(w, "invalid ready payload")
		return
	}
	session, err := h.sessions.SetReady(ps.ByName("id"), req.PlayerID, *req.IsReady)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) startSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, err := h.sessions.StartSession(ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) advanceQuestion(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, err := h.sessions.AdvanceQuestion(ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type submitAnswerRequest struct {
	PlayerID     string `json:"playerId"`
	QuestionID   int    `json:"questionId"`
	AnswerID     int    `json:"answerId"`
	ResponseTime int64  `json:"responseTime"`
}

func (h *APIHandler) submitAnswer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid answer payload")
		return
	}
	result, err := h.sessions.SubmitAnswer(ps.ByName("id"), req.PlayerID, req.QuestionID, req.AnswerID, req.ResponseTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
