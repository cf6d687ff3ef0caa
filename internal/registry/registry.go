// Package registry owns the set of saved locations. User edits go through
// Add, Update and Remove; risk fields are written only by Apply.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/location-risk-service/internal/domain"
)

// Persister loads and stores the full location set.
type Persister interface {
	Load(ctx context.Context) ([]domain.Location, error)
	Save(ctx context.Context, locations []domain.Location) error
}

// LocationPatch holds the user-editable fields of a location. Nil fields are
// left unchanged.
type LocationPatch struct {
	Name     *string
	Address  *string
	Type     *domain.LocationType
	Position *domain.Coordinate
}

// Registry is an in-memory location set kept in insertion order and written
// through to a Persister after every mutation.
type Registry struct {
	persister Persister
	logger    *slog.Logger

	mu        sync.RWMutex
	locations []domain.Location

	// persistMu orders write-through saves. The set is copied while it is
	// held so the last Save always carries the latest mutation.
	persistMu sync.Mutex
}

// New creates an empty Registry. Call Load to restore persisted locations.
func New(persister Persister, logger *slog.Logger) *Registry {
	if persister == nil {
		persister = NopPersister{}
	}
	return &Registry{persister: persister, logger: logger}
}

// Load replaces the in-memory set with the persisted one.
func (r *Registry) Load(ctx context.Context) error {
	locs, err := r.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	r.mu.Lock()
	r.locations = locs
	r.mu.Unlock()
	r.logger.Info("locations loaded", "location_count", len(locs))
	return nil
}

// List returns a copy of all locations in insertion order.
func (r *Registry) List() []domain.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Location, len(r.locations))
	copy(out, r.locations)
	return out
}

// Len returns the number of saved locations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locations)
}

// Get returns the location with the given id.
func (r *Registry) Get(id string) (domain.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return domain.Location{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	return r.locations[i], nil
}

// Add appends a location. The location must already carry an id.
func (r *Registry) Add(ctx context.Context, loc domain.Location) (domain.Location, error) {
	if loc.ID == "" {
		return domain.Location{}, fmt.Errorf("%w: id is required", domain.ErrInvalidLocation)
	}
	r.mu.Lock()
	if r.indexOf(loc.ID) >= 0 {
		r.mu.Unlock()
		return domain.Location{}, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidLocation, loc.ID)
	}
	r.locations = append(r.locations, loc)
	r.mu.Unlock()

	r.persist(ctx)
	r.logger.Info("location added", "location_id", loc.ID, "name", loc.Name)
	return loc, nil
}

// Update applies patch to the location with the given id. Risk fields are
// never touched here.
func (r *Registry) Update(ctx context.Context, id string, patch LocationPatch) (domain.Location, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Location{}, fmt.Errorf("%w: name is required", domain.ErrInvalidLocation)
	}

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return domain.Location{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	loc := &r.locations[i]
	if patch.Name != nil {
		loc.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Address != nil {
		loc.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Type != nil {
		loc.Type = *patch.Type
	}
	if patch.Position != nil {
		pos := *patch.Position
		loc.Position = &pos
	}
	updated := *loc
	r.mu.Unlock()

	r.persist(ctx)
	r.logger.Info("location updated", "location_id", id)
	return updated, nil
}

// Remove deletes the location with the given id.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	r.locations = append(r.locations[:i:i], r.locations[i+1:]...)
	r.mu.Unlock()

	r.persist(ctx)
	r.logger.Info("location removed", "location_id", id)
	return nil
}

// Clear removes every location.
func (r *Registry) Clear(ctx context.Context) {
	r.mu.Lock()
	r.locations = nil
	r.mu.Unlock()

	r.persist(ctx)
	r.logger.Info("locations cleared")
}

// Apply commits risk fields from reconciled locations, matched by id.
// Updates for ids no longer in the registry are dropped. It returns the
// number of locations written.
func (r *Registry) Apply(ctx context.Context, updated []domain.Location) int {
	if len(updated) == 0 {
		return 0
	}

	r.mu.Lock()
	applied := 0
	for _, u := range updated {
		i := r.indexOf(u.ID)
		if i < 0 {
			r.logger.Debug("dropping update for removed location", "location_id", u.ID)
			continue
		}
		loc := &r.locations[i]
		loc.RiskLevel = u.RiskLevel
		loc.DominantAlertText = u.DominantAlertText
		loc.LastUpdated = u.LastUpdated
		applied++
	}
	r.mu.Unlock()

	if applied > 0 {
		r.persist(ctx)
	}
	return applied
}

// indexOf must be called with mu held.
func (r *Registry) indexOf(id string) int {
	for i := range r.locations {
		if r.locations[i].ID == id {
			return i
		}
	}
	return -1
}

// persist writes the current set through. The in-memory set stays
// authoritative when the write fails.
func (r *Registry) persist(ctx context.Context) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	if err := r.persister.Save(ctx, r.List()); err != nil {
		r.logger.Error("persist locations failed", "error", err)
	}
}

// NopPersister keeps nothing.
type NopPersister struct{}

func (NopPersister) Load(context.Context) ([]domain.Location, error) { return nil, nil }

func (NopPersister) Save(context.Context, []domain.Location) error { return nil }
