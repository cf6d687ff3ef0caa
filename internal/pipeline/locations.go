package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/registry"
)

// LocationInput is a user request to save a location. Coordinates are
// optional; without them the address is geocoded.
type LocationInput struct {
	Name    string
	Address string
	Type    string
	Lat     *float64
	Lng     *float64
}

// LocationUpdate carries the fields to change. Nil fields are left as is.
type LocationUpdate struct {
	Name    *string
	Address *string
	Type    *string
	Lat     *float64
	Lng     *float64
}

// Locations applies user edits to the registry with address resolution and
// re-runs reconciliation so saved locations are classified right away.
type Locations struct {
	registry *registry.Registry
	geocoder domain.Geocoder
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewLocations creates a Locations service. Pass a nil geocoder to require
// coordinates on every location.
func NewLocations(reg *registry.Registry, geocoder domain.Geocoder, p *Pipeline, logger *slog.Logger) *Locations {
	return &Locations{
		registry: reg,
		geocoder: geocoder,
		pipeline: p,
		logger:   logger,
	}
}

// List returns every saved location.
func (l *Locations) List() []domain.Location {
	return l.registry.List()
}

// Get returns one saved location.
func (l *Locations) Get(id string) (domain.Location, error) {
	return l.registry.Get(id)
}

// Create validates, resolves and saves a new location, then classifies it.
func (l *Locations) Create(ctx context.Context, in LocationInput) (domain.Location, error) {
	typ, err := domain.ParseLocationType(in.Type)
	if err != nil {
		return domain.Location{}, err
	}
	pos, err := coordinate(in.Lat, in.Lng)
	if err != nil {
		return domain.Location{}, err
	}

	loc, err := domain.NewLocation(in.Name, in.Address, typ, pos)
	if err != nil {
		return domain.Location{}, err
	}
	loc, err = domain.ResolveLocation(ctx, loc, l.geocoder, l.logger)
	if err != nil {
		return domain.Location{}, err
	}

	if _, err := l.registry.Add(ctx, loc); err != nil {
		return domain.Location{}, err
	}
	l.pipeline.Reconcile(ctx)
	return l.registry.Get(loc.ID)
}

// Update patches a saved location. A changed address without coordinates is
// geocoded again.
func (l *Locations) Update(ctx context.Context, id string, in LocationUpdate) (domain.Location, error) {
	current, err := l.registry.Get(id)
	if err != nil {
		return domain.Location{}, err
	}

	patch := registry.LocationPatch{Name: in.Name, Address: in.Address}
	if in.Type != nil {
		typ, err := domain.ParseLocationType(*in.Type)
		if err != nil {
			return domain.Location{}, err
		}
		patch.Type = &typ
	}

	pos, err := coordinate(in.Lat, in.Lng)
	if err != nil {
		return domain.Location{}, err
	}
	switch {
	case pos != nil:
		patch.Position = pos
	case in.Address != nil && *in.Address != current.Address:
		candidate := current
		candidate.Address = *in.Address
		candidate.Position = nil
		resolved, err := domain.ResolveLocation(ctx, candidate, l.geocoder, l.logger)
		if err != nil {
			return domain.Location{}, err
		}
		patch.Position = resolved.Position
	}

	if _, err := l.registry.Update(ctx, id, patch); err != nil {
		return domain.Location{}, err
	}
	l.pipeline.Reconcile(ctx)
	return l.registry.Get(id)
}

// Delete removes a saved location.
func (l *Locations) Delete(ctx context.Context, id string) error {
	if err := l.registry.Remove(ctx, id); err != nil {
		return err
	}
	l.pipeline.Reconcile(ctx)
	return nil
}

// Clear removes every saved location.
func (l *Locations) Clear(ctx context.Context) {
	l.registry.Clear(ctx)
	l.pipeline.Reconcile(ctx)
}

// coordinate returns nil when neither value is set. Setting only one of the
// pair, or an out-of-range value, is invalid.
func coordinate(lat, lng *float64) (*domain.Coordinate, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%w: lat and lng must be given together", domain.ErrInvalidLocation)
	}
	c := domain.Coordinate{Lat: *lat, Lng: *lng}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidLocation)
	}
	return &c, nil
}
