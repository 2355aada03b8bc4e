package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"contribdir.dev/internal/directory"
)

// Handler exposes the directory service over HTTP.
type Handler struct {
	cs  *directory.ClientSet
	svc *directory.Service
}

func NewHandler(cs *directory.ClientSet) *Handler {
	return &Handler{cs: cs, svc: cs.Directory()}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Get("/health", h.handleHealth)
	r.Route("/api/v1/projects", func(r chi.Router) {
		r.Get("/", h.handleSearchProjects)
		r.Post("/", h.handleCreateProject)
		r.Get("/{publicID}", h.handleGetProject)
		r.Patch("/{publicID}", h.handleUpdateProject)
		r.Delete("/{publicID}", h.handleDeleteProject)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.cs.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "datastore unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "contribdir"})
}

func (h *Handler) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := directory.Filter{
		Group:        q.Get("group"),
		Contribution: q.Get("contributions"),
		Query:        q.Get("q"),
		Language:     q.Get("language"),
		Seed:         q.Get("seed"),
	}
	var err error
	if f.Page, err = parseIntParam(q.Get("page")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid page")
		return
	}
	if f.PageSize, err = parseIntParam(q.Get("page_size")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid page_size")
		return
	}
	if f.MinStars, err = parseStarsParam(q.Get("min_stars")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid min_stars")
		return
	}
	if f.MaxStars, err = parseStarsParam(q.Get("max_stars")); err != nil {
		respondError(w, http.StatusBadRequest, "invalid max_stars")
		return
	}
	respondJSON(w, http.StatusOK, h.svc.SearchProjects(r.Context(), f))
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in directory.CreateProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.CreateProject(r.Context(), userID, in)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidSlug) {
			respondError(w, http.StatusBadRequest, "repo_slug must be in owner/repo form")
			return
		}
		respondError(w, http.StatusBadGateway, "failed to create project")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	p, err := h.svc.GetProject(r.Context(), publicID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to load project")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	var upd directory.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), userID, publicID, upd)
	if err != nil {
		// An edit without a link renders like a missing project; link
		// existence is the sole authorization signal and is not leaked.
		if errors.Is(err, directory.ErrUnauthorized) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusBadGateway, "failed to update project")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "project not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	publicID, err := uuid.Parse(chi.URLParam(r, "publicID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := h.svc.DeleteProject(r.Context(), userID, publicID); err != nil {
		if errors.Is(err, directory.ErrUnauthorized) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusBadGateway, "failed to delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerID reads the authenticated user id from the X-User-ID header.
// Session handling happens upstream; this service only receives the result.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "missing or invalid X-User-ID header")
		return uuid.UUID{}, false
	}
	return userID, true
}

func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseStarsParam(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
