// Package registry provides the in-memory collection of lounge stations.
package registry

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/domain/tier"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrStationNotFound = errors.New("station not found")
	ErrTickerBound     = errors.New("registry already has a ticker")
	ErrDuplicateID     = errors.New("duplicate station id")
	ErrOverCapacity    = errors.New("tier occupancy exceeds its units")
)

// ValidationError reports rejected user input. No state changes when it
// is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AddRequest holds the input of Add.
type AddRequest struct {
	TierID           string
	PlayerName       string
	Phone            string
	Controllers      int
	RequestedMinutes int
	Notes            string
}

// Registry owns every station. All mutation goes through it.
type Registry struct {
	mu       sync.RWMutex
	catalog  *tier.Catalog
	clock    sessionclock.Clock
	stations map[string]*station.Station
	order    []string
	nextSeq  int
	newID    func() string
	hasTick  bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithSessionIDs overrides the session id generator.
func WithSessionIDs(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// New creates a registry holding one available station per tier unit.
func New(catalog *tier.Catalog, clock sessionclock.Clock, opts ...Option) *Registry {
	r := &Registry{
		catalog: catalog,
		clock:   clock,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stations, r.order = defaultStations(catalog)
	r.nextSeq = len(r.order)
	return r
}

// StationID formats the n-th station id.
func StationID(n int) string {
	return fmt.Sprintf("SYS%03d", n)
}

func defaultStations(catalog *tier.Catalog) (map[string]*station.Station, []string) {
	stations := make(map[string]*station.Station)
	order := make([]string, 0)
	for _, t := range catalog.All() {
		for i := 0; i < t.Units; i++ {
			id := StationID(len(order) + 1)
			stations[id] = station.New(id, t)
			order = append(order, id)
		}
	}
	return stations, order
}

// Reset discards all stations and restores the default catalog.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations, r.order = defaultStations(r.catalog)
	r.nextSeq = len(r.order)
}

// Restore replaces the registry contents with previously saved records.
// On any malformed record the registry is left unchanged and an error is
// returned.
func (r *Registry) Restore(records []station.Record) error {
	now := r.clock.Now()

	stations := make(map[string]*station.Station, len(records))
	order := make([]string, 0, len(records))
	occupied := make(map[string]int)
	maxSeq := 0

	for _, rec := range records {
		s, err := station.FromRecord(rec, r.catalog, now)
		if err != nil {
			return err
		}
		if _, exists := stations[s.ID]; exists {
			return errors.Wrapf(ErrDuplicateID, "id=%s", s.ID)
		}
		if s.Status().Occupied() {
			occupied[s.Tier.ID]++
			if occupied[s.Tier.ID] > s.Tier.Units {
				return errors.Wrapf(ErrOverCapacity, "tier=%s", s.Tier.ID)
			}
		}
		stations[s.ID] = s
		order = append(order, s.ID)

		var n int
		if _, err := fmt.Sscanf(s.ID, "SYS%d", &n); err == nil && n > maxSeq {
			maxSeq = n
		}
	}

	// every tier keeps at least one seat on the board
	for _, t := range r.catalog.All() {
		found := false
		for _, s := range stations {
			if s.Tier.ID == t.ID {
				found = true
				break
			}
		}
		if !found {
			maxSeq++
			id := StationID(maxSeq)
			stations[id] = station.New(id, t)
			order = append(order, id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = stations
	r.order = order
	r.nextSeq = max(maxSeq, len(order))
	return nil
}

// Catalog returns the tier catalog.
func (r *Registry) Catalog() *tier.Catalog {
	return r.catalog
}

// Add starts a session on a free station of the requested tier.
func (r *Registry) Add(req AddRequest) (station.View, error) {
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return station.View{}, &ValidationError{Field: "playerName", Reason: "must not be blank"}
	}

	t, ok := r.catalog.Get(req.TierID)
	if !ok {
		return station.View{}, &ValidationError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", req.TierID)}
	}
	if req.RequestedMinutes <= 0 {
		return station.View{}, &ValidationError{Field: "requestedMinutes", Reason: "must be positive"}
	}
	if req.Controllers > t.MaxControllers {
		return station.View{}, &ValidationError{
			Field:  "controllers",
			Reason: fmt.Sprintf("at most %d controllers on %s", t.MaxControllers, t.DisplayName),
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.occupiedLocked(t.ID) >= t.Units {
		return station.View{}, &ValidationError{Field: "tier", Reason: fmt.Sprintf("%s is not available", t.DisplayName)}
	}

	s := r.freeStationLocked(t)
	s.Start(r.clock.Now(), station.Occupant{
		SessionID:        r.newID(),
		PlayerName:       name,
		Phone:            req.Phone,
		Notes:            req.Notes,
		Controllers:      req.Controllers,
		RequestedMinutes: req.RequestedMinutes,
	})
	return s.View(), nil
}

// freeStationLocked returns the first available station of the tier,
// opening a new seat when every existing one holds a completed session.
func (r *Registry) freeStationLocked(t *tier.Tier) *station.Station {
	for _, id := range r.order {
		s := r.stations[id]
		if s.Tier.ID == t.ID && s.Status() == station.StatusAvailable {
			return s
		}
	}
	r.nextSeq++
	id := StationID(r.nextSeq)
	for r.stations[id] != nil {
		r.nextSeq++
		id = StationID(r.nextSeq)
	}
	s := station.New(id, t)
	r.stations[id] = s
	r.order = append(r.order, id)
	return s
}

func (r *Registry) occupiedLocked(tierID string) int {
	n := 0
	for _, s := range r.stations {
		if s.Tier.ID == tierID && s.Status().Occupied() {
			n++
		}
	}
	return n
}

// Pause pauses an active station. applied is false when the station was
// not active.
func (r *Registry) Pause(id string) (station.View, bool, error) {
	return r.apply(id, func(s *station.Station) bool { return s.Pause(r.clock.Now()) })
}

// Resume resumes a paused station.
func (r *Registry) Resume(id string) (station.View, bool, error) {
	return r.apply(id, func(s *station.Station) bool { return s.Resume(r.clock.Now()) })
}

// End completes an active or paused station, freeing its tier.
func (r *Registry) End(id string) (station.View, bool, error) {
	return r.apply(id, func(s *station.Station) bool { return s.End(r.clock.Now()) })
}

// Remove cancels whatever the station holds and makes it available.
func (r *Registry) Remove(id string) (station.View, bool, error) {
	return r.apply(id, func(s *station.Station) bool { return s.Reset() })
}

func (r *Registry) apply(id string, fn func(*station.Station) bool) (station.View, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stations[id]
	if !ok {
		return station.View{}, false, errors.Wrapf(ErrStationNotFound, "id=%s", id)
	}
	applied := fn(s)
	return s.View(), applied, nil
}

// RecomputeActive refreshes the live snapshot of every active station and
// returns how many were refreshed.
func (r *Registry) RecomputeActive(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.stations {
		if s.Recompute(now) {
			n++
		}
	}
	return n
}

// Get returns the view of one station.
func (r *Registry) Get(id string) (station.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return station.View{}, errors.Wrapf(ErrStationNotFound, "id=%s", id)
	}
	return s.View(), nil
}

// Snapshot returns views of all stations in board order.
func (r *Registry) Snapshot() []station.View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]station.View, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stations[id].View())
	}
	return out
}

// Records returns the flat records of all stations in board order.
func (r *Registry) Records() []station.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]station.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.stations[id].Record())
	}
	return out
}

// Occupancy lists the tier id of every active or paused station.
func (r *Registry) Occupancy() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, id := range r.order {
		s := r.stations[id]
		if s.Status().Occupied() {
			out = append(out, s.Tier.ID)
		}
	}
	return out
}

// Available reports whether the tier can take another player.
func (r *Registry) Available(tierID string) bool {
	t, ok := r.catalog.Get(tierID)
	if !ok {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.occupiedLocked(t.ID) < t.Units
}

// BindTicker claims the registry for a single ticker.
func (r *Registry) BindTicker() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasTick {
		return ErrTickerBound
	}
	r.hasTick = true
	return nil
}

// ReleaseTicker releases the claim taken by BindTicker.
func (r *Registry) ReleaseTicker() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasTick = false
}
