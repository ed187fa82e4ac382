// Package api serves the normalized competition store read-only over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the read side of the normalized store the handlers query.
type Store interface {
	Ping(ctx context.Context) error
	Competition(ctx context.Context, id int64) (repository.Competition, error)
	CompetitionJudges(ctx context.Context, competitionID int64) ([]repository.AssignedJudge, error)
	Rounds(ctx context.Context, competitionID int64) ([]repository.Round, error)
	Round(ctx context.Context, id int64) (repository.Round, error)
	RoundMarks(ctx context.Context, roundID int64) ([]repository.RoundMarkDetail, error)
	JudgeMarks(ctx context.Context, judgeID int64) ([]repository.JudgeMarkRow, error)
	Participant(ctx context.Context, competitionID int64, number string) (repository.ParticipantDetail, error)
}

// Server wires HTTP routes for the query API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	competitionHandler *CompetitionHandler
	roundHandler       *RoundHandler
	judgeHandler       *JudgeHandler
	participantHandler *ParticipantHandler
	hierarchyHandler   *HierarchyHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(store Store, h *hierarchy.Hierarchy, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(store),
		statsHandler:       NewStatsHandler(statsProvider),
		competitionHandler: NewCompetitionHandler(store),
		roundHandler:       NewRoundHandler(store),
		judgeHandler:       NewJudgeHandler(store),
		participantHandler: NewParticipantHandler(store),
		hierarchyHandler:   NewHierarchyHandler(store, h),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /competitions/{id}", MetricsMiddleware(s.competitionHandler.HandleGetCompetition, "competitions"))
	mux.HandleFunc("GET /rounds/{id}/marks", MetricsMiddleware(s.roundHandler.HandleGetRoundMarks, "round_marks"))
	mux.HandleFunc("GET /judges/{id}/marks", MetricsMiddleware(s.judgeHandler.HandleGetJudgeMarks, "judge_marks"))
	mux.HandleFunc("GET /participants/{competition}/{number}", MetricsMiddleware(s.participantHandler.HandleGetParticipant, "participants"))
	mux.HandleFunc("GET /hierarchy/rank", MetricsMiddleware(s.hierarchyHandler.HandleGetRank, "hierarchy_rank"))
	mux.HandleFunc("GET /advancement", MetricsMiddleware(s.hierarchyHandler.HandleGetAdvancement, "advancement"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps repository.ErrNotFound to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam(name)
	}
	return id, nil
}
