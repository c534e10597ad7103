package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/middleware"
)

type incidentCreateRequest struct {
	Description  string `json:"description"`
	ActionsTaken string `json:"actions_taken"`
}

type incidentUpdateRequest struct {
	RCA        *string `json:"rca"`
	Resolution *string `json:"resolution"`
	Status     *string `json:"status"`
}

func (a *App) ListIncidents(w http.ResponseWriter, r *http.Request) {
	items, err := a.Incidents.List(r.Context())
	if err != nil {
		a.internal(w, r, err, "failed to list incidents")
		return
	}
	a.json(w, http.StatusOK, items)
}

func (a *App) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := a.incidentID(w, r)
	if !ok {
		return
	}
	inc, err := a.Incidents.Get(r.Context(), id)
	if err != nil {
		a.repoError(w, r, err, "failed to load incident")
		return
	}
	a.json(w, http.StatusOK, inc)
}

// CreateIncident ignores any status in the body; new incidents are OPEN.
func (a *App) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req incidentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.ActionsTaken) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "description and actions_taken are required")
		return
	}
	inc, err := a.Incidents.Create(r.Context(), req.Description, req.ActionsTaken)
	if err != nil {
		a.internal(w, r, err, "failed to create incident")
		return
	}
	a.json(w, http.StatusCreated, inc)
}

func (a *App) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := a.incidentID(w, r)
	if !ok {
		return
	}
	var req incidentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	upd := domain.IncidentUpdate{RCA: req.RCA, Resolution: req.Resolution}
	if req.Status != nil {
		st, err := domain.ParseIncidentStatus(*req.Status)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "status must be one of OPEN, IN_PROGRESS, CLOSED")
			return
		}
		upd.Status = &st
	}
	inc, err := a.Incidents.Update(r.Context(), id, upd)
	if err != nil {
		a.repoError(w, r, err, "failed to update incident")
		return
	}
	a.json(w, http.StatusOK, inc)
}

func (a *App) incidentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "incident id must be an integer")
		return 0, false
	}
	return id, true
}

func (a *App) repoError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "Incident not found")
		return
	}
	a.internal(w, r, err, msg)
}

func (a *App) internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("incidents: " + msg)
	a.error(w, http.StatusInternalServerError, "internal", msg)
}
