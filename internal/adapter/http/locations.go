package http

import (
	"net/http"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type createLocationRequest struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Type    string   `json:"type"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type updateLocationRequest struct {
	Name    *string  `json:"name"`
	Address *string  `json:"address"`
	Type    *string  `json:"type"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type listLocationsResponse struct {
	Locations []domain.Location `json:"locations"`
	Count     int               `json:"count"`
}

type assessRequest struct {
	Locations []assessLocation `json:"locations"`
}

type assessLocation struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Type    string   `json:"type"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

type assessedLocation struct {
	assessLocation
	RiskLevel    domain.RiskLevel `json:"riskLevel"`
	WeatherAlert *string          `json:"weatherAlert,omitempty"`
	Alerts       []domain.Alert   `json:"alerts"`
	Classified   bool             `json:"classified"`
	LastAssessed time.Time        `json:"lastAssessed"`
}

type assessResponse struct {
	Locations    []assessedLocation `json:"locations"`
	Unclassified int                `json:"unclassified"`
}

func (s *Server) handleListLocations(w http.ResponseWriter, _ *http.Request) {
	locs := nonNil(s.locations.List())
	writeJSON(w, http.StatusOK, listLocationsResponse{Locations: locs, Count: len(locs)})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.locations.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	loc, err := s.locations.Create(r.Context(), pipeline.LocationInput{
		Name:    req.Name,
		Address: req.Address,
		Type:    req.Type,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req updateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	loc, err := s.locations.Update(r.Context(), chi.URLParam(r, "id"), pipeline.LocationUpdate{
		Name:    req.Name,
		Address: req.Address,
		Type:    req.Type,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := s.locations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearLocations(w http.ResponseWriter, r *http.Request) {
	s.locations.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleAssessRisk classifies the submitted locations without saving them.
// Entries without a full coordinate pair come back unclassified.
func (s *Server) handleAssessRisk(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	locs := make([]domain.Location, len(req.Locations))
	for i, in := range req.Locations {
		locs[i] = domain.Location{ID: in.ID, Name: in.Name, Address: in.Address}
		if in.Lat == nil || in.Lng == nil {
			continue
		}
		pos := domain.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
		if !pos.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "location " + in.ID + ": coordinates out of range"})
			return
		}
		locs[i].Position = &pos
	}

	now := s.clock.Now().UTC()
	resp := assessResponse{Locations: make([]assessedLocation, len(req.Locations))}
	for i, a := range s.risk.Assess(locs) {
		classified := a.Location.Position != nil
		if !classified {
			resp.Unclassified++
		}
		resp.Locations[i] = assessedLocation{
			assessLocation: req.Locations[i],
			RiskLevel:      a.Location.RiskLevel,
			WeatherAlert:   a.Location.DominantAlertText,
			Alerts:         nonNil(a.Affecting),
			Classified:     classified,
			LastAssessed:   now,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
