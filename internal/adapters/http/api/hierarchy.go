package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/matteohorvath/ksis/internal/domain/hierarchy"
	"github.com/matteohorvath/ksis/internal/domain/model"
)

// HierarchyHandler answers round-rank and advancement questions.
type HierarchyHandler struct {
	store Store
	hier  *hierarchy.Hierarchy
}

// NewHierarchyHandler creates a new hierarchy handler.
func NewHierarchyHandler(store Store, h *hierarchy.Hierarchy) *HierarchyHandler {
	return &HierarchyHandler{store: store, hier: h}
}

type rankView struct {
	Name  string `json:"name"`
	Rank  *int   `json:"rank"`
	Known bool   `json:"known"`
}

func newRankView(name string, r hierarchy.Rank) rankView {
	v := rankView{Name: name, Known: r.IsKnown()}
	if n, ok := r.Value(); ok {
		v.Rank = &n
	}
	return v
}

// HandleGetRank handles GET /hierarchy/rank?name=.
func (h *HierarchyHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", missingParam("name"))
		return
	}
	writeJSON(w, http.StatusOK, newRankView(name, h.hier.Rank(name)))
}

type advancementView struct {
	MaxReached rankView `json:"max_reached"`
	Judged     rankView `json:"judged"`
	Advanced   bool     `json:"advanced"`
	Known      bool     `json:"known"`
}

// HandleGetAdvancement handles GET /advancement?competition=&number=&round=.
// The furthest round is taken over the participant's section and every
// round they were marked in.
func (h *HierarchyHandler) HandleGetAdvancement(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("competition"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", invalidParam("competition"))
		return
	}
	number := model.NormalizeNumber(q.Get("number"))
	if number == "" {
		writeError(w, http.StatusBadRequest, "bad_request", missingParam("number"))
		return
	}
	round := strings.TrimSpace(q.Get("round"))
	if round == "" {
		writeError(w, http.StatusBadRequest, "bad_request", missingParam("round"))
		return
	}

	d, err := h.store.Participant(r.Context(), id, number)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	reached := make([]string, 0, len(d.RoundTitles)+1)
	reached = append(reached, d.RoundTitles...)
	if d.Section != "" {
		reached = append(reached, d.Section)
	}
	maxReached := h.hier.MaxReached(reached...)
	judged := h.hier.Rank(round)

	maxName, _ := h.hier.Name(maxReached)
	writeJSON(w, http.StatusOK, advancementView{
		MaxReached: newRankView(maxName, maxReached),
		Judged:     newRankView(round, judged),
		Advanced:   hierarchy.HasAdvancedPast(maxReached, judged),
		Known:      maxReached.IsKnown() && judged.IsKnown(),
	})
}
