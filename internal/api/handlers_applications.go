package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rmoran/apptrack/internal/metrics"
	"github.com/rmoran/apptrack/internal/models"
	"github.com/rmoran/apptrack/internal/services"
)

type applicationRequest struct {
	Company         string `json:"company"`
	Position        string `json:"position"`
	ApplicationDate string `json:"application_date"`
	Status          string `json:"status"`
	ResumeID        string `json:"resume_id"`
	Notes           string `json:"notes"`
}

type applicationPatchRequest struct {
	Company         *string `json:"company"`
	Position        *string `json:"position"`
	ApplicationDate *string `json:"application_date"`
	Status          *string `json:"status"`
	ResumeID        *string `json:"resume_id"`
	Notes           *string `json:"notes"`
}

type dashboardResponse struct {
	metrics.Stats
	SuccessGaugeRotation float64 `json:"success_gauge_rotation"`
	OfferGaugeRotation   float64 `json:"offer_gauge_rotation"`
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339 or YYYY-MM-DD", value)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request, user models.User) {
	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Records())
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request, user models.User) {
	defer r.Body.Close()

	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	appliedAt := time.Now().UTC()
	if req.ApplicationDate != "" {
		t, err := parseDate(req.ApplicationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appliedAt = t
	}

	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	created, err := store.Add(r.Context(), models.Application{
		Company:   req.Company,
		Position:  req.Position,
		AppliedAt: appliedAt,
		Status:    models.Status(req.Status),
		ResumeID:  req.ResumeID,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request, user models.User) {
	defer r.Body.Close()

	var req applicationPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	patch := services.ApplicationPatch{
		Company:  req.Company,
		Position: req.Position,
		Status:   req.Status,
		ResumeID: req.ResumeID,
		Notes:    req.Notes,
	}
	if req.ApplicationDate != nil {
		t, err := parseDate(*req.ApplicationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.AppliedAt = &t
	}

	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	updated, err := store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request, user models.User) {
	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearApplications(w http.ResponseWriter, r *http.Request, user models.User) {
	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := store.ClearAll(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user models.User) {
	store, err := s.stores.StoreFor(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	stats := metrics.Compute(store.Records())
	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats:                stats,
		SuccessGaugeRotation: metrics.GaugeRotation(stats.SuccessRate),
		OfferGaugeRotation:   metrics.GaugeRotation(stats.OfferRate),
	})
}
