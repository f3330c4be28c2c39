package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-interview/internal/identity"
	"github.com/npezzotti/go-interview/internal/interview"
	"github.com/npezzotti/go-interview/internal/types"
)

const maxBodyBytes = 1 << 20

type SessionLogRequest struct {
	InterviewID string        `json:"interviewID"`
	Action      string        `json:"action"`
	UserName    string        `json:"userName"`
	Details     types.Details `json:"details"`
}

type CodeSnapshotRequest struct {
	InterviewID string `json:"interviewID"`
	Code        string `json:"code"`
}

type FinalQuestionsRequest struct {
	InterviewID string `json:"interviewID"`
	Questions   []any  `json:"questions"`
}

type AcceptRequest struct {
	CandidateId string `json:"candidateId"`
}

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *InterviewApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("json encode")
	}
}

func (s *InterviewApp) writeData(w http.ResponseWriter, statusCode int, data any) {
	s.writeJson(w, statusCode, Response{Status: statusSuccess, Data: data})
}

func (s *InterviewApp) writeError(w http.ResponseWriter, r *http.Request, errResp *ApiError) {
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.requestLog(r).Error().Err(errResp.Err).Int("status", errResp.StatusCode).Msg("request failed")
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *InterviewApp) decodeJson(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.requestLog(r).Debug().Err(err).Msg("decode request body")
		s.writeError(w, r, NewBadRequestError())
		return false
	}
	return true
}

func (s *InterviewApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.requestLog(r).Error().Err(err).Msg("health check failed")
		s.writeError(w, r, NewServiceUnavailableError())
		return
	}

	s.writeJson(w, http.StatusOK, Response{Status: statusSuccess, Message: "ok"})
}

func (s *InterviewApp) logSession(w http.ResponseWriter, r *http.Request) {
	var req SessionLogRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	if req.InterviewID == "" || req.Action == "" || req.UserName == "" {
		s.writeError(w, r, NewValidationError("Missing required fields: interviewID, action, userName"))
		return
	}

	iv, err := s.recorder.AppendSessionLog(r.Context(), req.InterviewID, req.Action, req.UserName, req.Details)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.requestLog(r).Info().
		Str("interview_id", req.InterviewID).
		Str("action", req.Action).
		Str("user_name", req.UserName).
		Msg("session log added")

	s.writeJson(w, http.StatusOK, Response{Status: statusSuccess, Message: "Log added successfully", Data: iv})
}

func (s *InterviewApp) saveCode(w http.ResponseWriter, r *http.Request) {
	var req CodeSnapshotRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	iv, err := s.recorder.UpdateCodeSnapshot(r.Context(), req.InterviewID, req.Code)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, iv)
}

func (s *InterviewApp) saveQuestions(w http.ResponseWriter, r *http.Request) {
	var req FinalQuestionsRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	iv, err := s.recorder.SaveFinalQuestions(r.Context(), req.InterviewID, req.Questions)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, iv)
}

func (s *InterviewApp) createInterview(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		s.writeError(w, r, NewUnauthorizedError())
		return
	}

	var req interview.CreateRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	iv, created, err := s.interviews.Create(r.Context(), user, req)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeData(w, status, iv)
}

func (s *InterviewApp) listInterviews(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		s.writeError(w, r, NewUnauthorizedError())
		return
	}

	ivs, err := s.interviews.List(r.Context(), user.Id)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, ivs)
}

func (s *InterviewApp) getInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.interviews.Get(r.Context(), r.PathValue("interviewID"))
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, iv)
}

func (s *InterviewApp) updateInterview(w http.ResponseWriter, r *http.Request) {
	var req interview.UpdateRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	iv, err := s.interviews.Update(r.Context(), r.PathValue("interviewID"), req)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, iv)
}

func (s *InterviewApp) joinInterview(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		s.writeError(w, r, NewUnauthorizedError())
		return
	}

	iv, err := s.interviews.JoinAsParticipant(r.Context(), r.PathValue("interviewID"), user)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusOK, iv)
}

func (s *InterviewApp) acceptRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		s.writeError(w, r, NewUnauthorizedError())
		return
	}

	var req AcceptRequest
	if !s.decodeJson(w, r, &req) {
		return
	}

	iv, err := s.interviews.CreateFromRequest(r.Context(), user, req.CandidateId)
	if err != nil {
		s.writeError(w, r, errorFromDomain(err))
		return
	}

	s.writeData(w, http.StatusCreated, iv)
}

func (s *InterviewApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// serveWs upgrades the request. A missing or invalid credential leaves the
// connection anonymous rather than refusing it.
func (s *InterviewApp) serveWs(w http.ResponseWriter, r *http.Request) {
	var user *types.User
	if token := identity.TokenFromRequest(r); token != "" {
		u, err := s.identity.Resolve(r.Context(), token)
		if err != nil {
			s.requestLog(r).Debug().Err(err).Msg("identity not resolved, connecting anonymously")
		} else {
			user = u
		}
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.requestLog(r).Warn().Err(err).Msg("error upgrading connection")
		return
	}

	client := s.ss.NewClient(conn, user)
	if err := s.ss.Register(client); err != nil {
		s.requestLog(r).Warn().Err(err).Msg("register connection")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "shutting down"))
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
