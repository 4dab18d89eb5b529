package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/pkg/logger"
)

const maxProjectLimit = 500

// ProjectHandler serves stored project records
// ⭐ SSOT: read-only project API
type ProjectHandler struct {
	store  contracts.Store
	logger *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(store contracts.Store, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		store:  store,
		logger: log,
	}
}

// ProjectList is the list response
type ProjectList struct {
	Count    int                       `json:"count"`
	Projects []contracts.ProjectRecord `json:"projects"`
}

// List returns stored projects, best score first
// GET /api/projects?name=&verdict=ACCEPT|REVIEW|REJECT&limit=
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := 100
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxProjectLimit)
	}

	var verdict contracts.Verdict
	if v := q.Get("verdict"); v != "" {
		verdict = contracts.Verdict(strings.ToUpper(v))
		switch verdict {
		case contracts.VerdictAccept, contracts.VerdictReview, contracts.VerdictReject:
		default:
			respondError(w, http.StatusBadRequest, "Invalid verdict (valid: ACCEPT, REVIEW, REJECT)")
			return
		}
	}

	var (
		records []contracts.ProjectRecord
		err     error
	)
	if name := q.Get("name"); name != "" {
		records, err = h.store.GetByName(ctx, name)
	} else {
		records, err = h.store.GetAll(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read projects")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve projects")
		return
	}

	out := make([]contracts.ProjectRecord, 0, len(records))
	for _, rec := range records {
		if verdict == "" || rec.Decision.Verdict == verdict {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Decision.Score > out[j].Decision.Score
	})
	if len(out) > limit {
		out = out[:limit]
	}

	respondJSON(w, http.StatusOK, ProjectList{Count: len(out), Projects: out})
}
