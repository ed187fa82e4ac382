package api

import (
	"net/http"

	"github.com/matteohorvath/ksis/internal/adapters/repository"
	"github.com/matteohorvath/ksis/internal/domain/model"
)

// CompetitionHandler serves competition metadata with its judges and rounds.
type CompetitionHandler struct {
	store Store
}

// NewCompetitionHandler creates a new competition handler.
func NewCompetitionHandler(store Store) *CompetitionHandler {
	return &CompetitionHandler{store: store}
}

// HandleGetCompetition handles GET /competitions/{id}.
func (h *CompetitionHandler) HandleGetCompetition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ctx := r.Context()
	c, err := h.store.Competition(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	judges, err := h.store.CompetitionJudges(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rounds, err := h.store.Rounds(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompetitionView(c, judges, rounds))
}

// RoundHandler serves the marks of one round.
type RoundHandler struct {
	store Store
}

// NewRoundHandler creates a new round handler.
func NewRoundHandler(store Store) *RoundHandler {
	return &RoundHandler{store: store}
}

// HandleGetRoundMarks handles GET /rounds/{id}/marks.
func (h *RoundHandler) HandleGetRoundMarks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ctx := r.Context()
	round, err := h.store.Round(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	details, err := h.store.RoundMarks(ctx, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := roundMarksView{Round: newRoundView(round), Marks: make([]roundMarkView, len(details))}
	for i, d := range details {
		out.Marks[i] = newRoundMarkView(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// JudgeHandler serves every mark a judge gave.
type JudgeHandler struct {
	store Store
}

// NewJudgeHandler creates a new judge handler.
func NewJudgeHandler(store Store) *JudgeHandler {
	return &JudgeHandler{store: store}
}

// HandleGetJudgeMarks handles GET /judges/{id}/marks. An unknown judge
// answers an empty list.
func (h *JudgeHandler) HandleGetJudgeMarks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows, err := h.store.JudgeMarks(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if rows == nil {
		rows = []repository.JudgeMarkRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ParticipantHandler serves one participant result.
type ParticipantHandler struct {
	store Store
}

// NewParticipantHandler creates a new participant handler.
func NewParticipantHandler(store Store) *ParticipantHandler {
	return &ParticipantHandler{store: store}
}

// HandleGetParticipant handles GET /participants/{competition}/{number}.
func (h *ParticipantHandler) HandleGetParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "competition")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	number := model.NormalizeNumber(r.PathValue("number"))
	if number == "" {
		writeError(w, http.StatusBadRequest, "bad_request", missingParam("number"))
		return
	}
	d, err := h.store.Participant(r.Context(), id, number)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newParticipantView(d))
}
