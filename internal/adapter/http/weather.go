package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

type alertsResponse struct {
	Alerts      []domain.Alert `json:"alerts"`
	Count       int            `json:"count"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Stale       bool           `json:"stale"`
}

type updateResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	AlertCount int       `json:"alertCount"`
	Changes    int       `json:"changes"`
	Stale      bool      `json:"stale"`
}

type pointResponse struct {
	Location     domain.Coordinate `json:"location"`
	Alerts       []domain.Alert    `json:"alerts"`
	RiskLevel    domain.RiskLevel  `json:"riskLevel"`
	WeatherAlert *string           `json:"weatherAlert,omitempty"`
	LastUpdated  time.Time         `json:"lastUpdated"`
}

type emergencyResponse struct {
	Alerts            []domain.Alert `json:"alerts"`
	Count             int            `json:"count"`
	HighPriorityCount int            `json:"highPriorityCount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"timestamp":    s.clock.Now().UTC(),
		"uptime":       s.clock.Since(s.started).Seconds(),
		"activeAlerts": len(s.risk.ActiveAlerts()),
	})
}

// handleAlerts lists active alerts. A Cache-Control: no-cache request
// regenerates the snapshot first.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Cache-Control") == "no-cache" {
		if _, err := s.risk.Refresh(r.Context()); err != nil {
			s.logger.Warn("on-demand refresh failed, serving last snapshot", "error", err)
		}
	}

	status := s.risk.Status()
	alerts := nonNil(s.risk.ActiveAlerts())
	writeJSON(w, http.StatusOK, alertsResponse{
		Alerts:      alerts,
		Count:       len(alerts),
		LastUpdated: status.LastRefresh,
		Stale:       status.Stale,
	})
}

// handleAlertsGeoJSON renders active alerts as points at their area centers.
func (s *Server) handleAlertsGeoJSON(w http.ResponseWriter, _ *http.Request) {
	alerts := s.risk.ActiveAlerts()
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(alerts))}
	for _, a := range alerts {
		if a.Validate() != nil {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       a.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{a.Area.Center.Lng, a.Area.Center.Lat}),
			Properties: map[string]any{
				"type":      a.Type,
				"severity":  a.Severity.String(),
				"title":     a.Title,
				"radius_km": a.Area.RadiusKm,
				"urgency":   a.Urgency,
				"expires":   a.ExpiresAt,
			},
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		s.logger.Error("encode geojson", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "encode geojson"})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	report, err := s.risk.Refresh(r.Context())
	resp := updateResponse{
		Timestamp:  report.CompletedAt,
		AlertCount: report.ActiveAlerts,
		Changes:    len(report.Changes),
		Stale:      report.Stale,
	}
	if err != nil {
		resp.Error = err.Error()
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSourceUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
		return
	}
	resp.Success = true
	resp.Message = "Weather data updated successfully"
	writeJSON(w, http.StatusOK, resp)
}

// handlePoint classifies a single coordinate against the active alerts.
func (s *Server) handlePoint(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(chi.URLParam(r, "lat"), 64)
	lng, errLng := strconv.ParseFloat(chi.URLParam(r, "lng"), 64)
	pos := domain.Coordinate{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !pos.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lng must be valid coordinates"})
		return
	}

	c := domain.Classify(pos, s.risk.ActiveAlerts())
	writeJSON(w, http.StatusOK, pointResponse{
		Location:     pos,
		Alerts:       nonNil(c.Affecting),
		RiskLevel:    c.Risk,
		WeatherAlert: c.DominantText(),
		LastUpdated:  s.risk.Status().LastRefresh,
	})
}

func (s *Server) handleEmergencyAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := nonNil(s.risk.ActiveAlerts())
	high := 0
	for _, a := range alerts {
		if a.Severity == domain.SeverityExtreme {
			high++
		}
	}
	writeJSON(w, http.StatusOK, emergencyResponse{
		Alerts:            alerts,
		Count:             len(alerts),
		HighPriorityCount: high,
	})
}
