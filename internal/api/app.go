package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-interview/internal/config"
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/identity"
	"github.com/npezzotti/go-interview/internal/interview"
	"github.com/npezzotti/go-interview/internal/logging"
	"github.com/npezzotti/go-interview/internal/server"
	"github.com/npezzotti/go-interview/internal/stats"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/rs/zerolog"
)

// SessionRecorder is the synchronous half of the session event recorder.
type SessionRecorder interface {
	AppendSessionLog(ctx context.Context, interviewID, action, userName string, details types.Details) (types.Interview, error)
	UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (types.Interview, error)
	SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (types.Interview, error)
}

type InterviewApp struct {
	log            zerolog.Logger
	db             database.InterviewRepository
	srv            *http.Server
	ss             *server.SignalServer
	recorder       SessionRecorder
	interviews     *interview.Service
	identity       *identity.Resolver
	allowedOrigins []string
}

// NewInterviewApp mounts every route on mux. su may be nil, in which case
// request metrics are not collected.
func NewInterviewApp(mux *http.ServeMux, logger zerolog.Logger, ss *server.SignalServer, db database.InterviewRepository, rec SessionRecorder, su *stats.StatsUpdater, cfg *config.Config) *InterviewApp {
	s := &InterviewApp{
		log:            logger,
		db:             db,
		ss:             ss,
		recorder:       rec,
		interviews:     interview.NewService(db, logger, cfg.RejectReassignAfterArchive),
		identity:       identity.NewResolver(cfg.SigningKey, db),
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /ws", s.serveWs)

	mux.HandleFunc("POST /interview/log", s.authMiddleware(s.logSession))
	mux.HandleFunc("POST /interview/code", s.authMiddleware(s.saveCode))
	mux.HandleFunc("POST /interview/questions", s.authMiddleware(s.saveQuestions))

	mux.HandleFunc("POST /api/interviews", s.authMiddleware(s.createInterview))
	mux.HandleFunc("GET /api/interviews", s.authMiddleware(s.listInterviews))
	mux.HandleFunc("POST /api/interviews/accept", s.authMiddleware(s.acceptRequest))
	mux.HandleFunc("GET /api/interviews/{interviewID}", s.authMiddleware(s.getInterview))
	mux.HandleFunc("PATCH /api/interviews/{interviewID}", s.authMiddleware(s.updateInterview))
	mux.HandleFunc("POST /api/interviews/{interviewID}/join", s.authMiddleware(s.joinInterview))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	if su != nil {
		h = su.Middleware(mux)(h)
	}
	h = s.errorHandler(h)
	h = logging.HTTPMiddleware(logger)(h)

	s.srv = &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *InterviewApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *InterviewApp) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("starting server")
	return s.srv.ListenAndServe()
}

func (s *InterviewApp) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
