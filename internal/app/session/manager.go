// Package session provides the lounge session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/app/filter"
	"github.com/osa030/loungeclock/internal/app/notification"
	"github.com/osa030/loungeclock/internal/app/persistence"
	"github.com/osa030/loungeclock/internal/app/session/registry"
	"github.com/osa030/loungeclock/internal/app/session/state"
	"github.com/osa030/loungeclock/internal/app/summary"
	"github.com/osa030/loungeclock/internal/app/ticker"
	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/domain/tier"
	"github.com/osa030/loungeclock/internal/infra/metrics"
)

var (
	ErrNotOpen        = errors.New("lounge is not open")
	ErrAlreadyStarted = errors.New("lounge manager already started")
)

// Operation names carried by KindChanged notifications.
const (
	OpAdd    = "add"
	OpPause  = "pause"
	OpResume = "resume"
	OpEnd    = "end"
	OpRemove = "remove"
)

// Config holds the collaborators of a Manager.
type Config struct {
	Catalog      *tier.Catalog
	Store        persistence.Store
	Clock        sessionclock.Clock
	Scheduler    ticker.Scheduler
	TickInterval time.Duration
	Location     *time.Location

	// SessionIDs overrides the session id generator.
	SessionIDs func() string

	// Filters admits or rejects new sessions. Nil admits all.
	Filters *filter.Chain
}

// TierAvailability tells whether a tier can take another session.
type TierAvailability struct {
	TierID    string `json:"tierId"`
	Occupied  int    `json:"occupied"`
	Units     int    `json:"units"`
	Available bool   `json:"available"`
}

// Manager owns the station registry and wires it to the live ticker,
// persistence and subscriber notifications.
type Manager struct {
	// mu orders mutations so the saver always receives the latest state.
	mu sync.Mutex

	clock    sessionclock.Clock
	location *time.Location

	stateMgr     *state.Manager
	registry     *registry.Registry
	ticker       *ticker.Ticker
	notification *notification.Manager
	store        persistence.Store
	saver        *persistence.Saver
	filters      *filter.Chain

	unsubTick func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a manager in the waiting phase. Call Start to load
// saved state and begin ticking.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = sessionclock.RealClock{}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = ticker.WallScheduler{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	var opts []registry.Option
	if cfg.SessionIDs != nil {
		opts = append(opts, registry.WithSessionIDs(cfg.SessionIDs))
	}
	reg := registry.New(cfg.Catalog, cfg.Clock, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		clock:        cfg.Clock,
		location:     cfg.Location,
		stateMgr:     state.New(uuid.New().String()),
		registry:     reg,
		notification: notification.NewManager(),
		store:        cfg.Store,
		saver:        persistence.NewSaver(cfg.Store),
		filters:      cfg.Filters,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	m.ticker = ticker.New(reg, cfg.Scheduler, cfg.Clock,
		ticker.WithInterval(cfg.TickInterval),
		ticker.WithObserver(func(d time.Duration) {
			metrics.TickDuration.Observe(d.Seconds())
		}),
	)
	return m, nil
}

// Start loads saved state, then starts the saver and the live ticker.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stateMgr.GetPhase() != state.PhaseWaiting {
		return ErrAlreadyStarted
	}

	restored := persistence.Load(ctx, m.store, m.registry)
	m.saver.Start(m.ctx)

	m.unsubTick = m.ticker.Subscribe(m.onTick)
	if err := m.ticker.Start(); err != nil {
		m.unsubTick()
		m.saver.Close()
		return errors.Wrap(err, "failed to start ticker")
	}

	m.stateMgr.Open(m.clock.Now(), restored)
	m.updateStationGauge()

	zlog.Info().Msgf("lounge opened: run_id=%s restored=%t stations=%d",
		m.stateMgr.GetRunID(), restored, len(m.registry.Snapshot()))
	return nil
}

// Add starts a session on a free station of the requested tier.
func (m *Manager) Add(req registry.AddRequest) (station.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stateMgr.IsOpen() {
		return station.View{}, ErrNotOpen
	}

	view, err := m.admitLocked(req)
	if err == nil {
		view, err = m.registry.Add(req)
	}
	if err != nil {
		var verr *registry.ValidationError
		if errors.As(err, &verr) {
			metrics.ValidationRejects.WithLabelValues(verr.Field).Inc()
			zlog.Warn().Msgf("add rejected: tier=%s field=%s reason=%s", req.TierID, verr.Field, verr.Reason)
		}
		return station.View{}, err
	}

	metrics.SessionsStarted.WithLabelValues(view.TierID).Inc()
	zlog.Info().Msgf("session started: station_id=%s tier=%s session_id=%s controllers=%d requested_minutes=%d",
		view.ID, view.TierID, view.SessionID, view.Controllers, view.RequestedMinutes)

	m.changedLocked(OpAdd, view.ID)
	return view, nil
}

// admitLocked runs the admission filters against the current board.
func (m *Manager) admitLocked(req registry.AddRequest) (station.View, error) {
	result := m.filters.Execute(m.ctx, filter.Request{
		TierID:           req.TierID,
		PlayerName:       req.PlayerName,
		Phone:            req.Phone,
		Controllers:      req.Controllers,
		RequestedMinutes: req.RequestedMinutes,
		Now:              m.clock.Now().In(m.location),
	}, m.registry.Snapshot())
	if !result.Accepted {
		return station.View{}, &registry.ValidationError{Field: "policy", Reason: result.Code}
	}
	return station.View{}, nil
}

// Pause pauses an active station.
func (m *Manager) Pause(id string) (station.View, bool, error) {
	return m.transition(OpPause, id, m.registry.Pause, nil)
}

// Resume resumes a paused station.
func (m *Manager) Resume(id string) (station.View, bool, error) {
	return m.transition(OpResume, id, m.registry.Resume, nil)
}

// End completes an active or paused station and bills it.
func (m *Manager) End(id string) (station.View, bool, error) {
	return m.transition(OpEnd, id, m.registry.End, func(_, after station.View) {
		metrics.SessionsEnded.WithLabelValues(after.TierID).Inc()
		metrics.EarningsTotal.WithLabelValues(after.TierID).Add(after.Cost.InexactFloat64())
		zlog.Info().Msgf("session ended: station_id=%s session_id=%s duration_seconds=%d cost=%s",
			after.ID, after.SessionID, after.DurationSeconds, after.Cost.StringFixed(2))
	})
}

// Remove clears a station back to available. Removing an unbilled
// session counts as a cancellation.
func (m *Manager) Remove(id string) (station.View, bool, error) {
	return m.transition(OpRemove, id, m.registry.Remove, func(before, _ station.View) {
		if before.Status.Occupied() {
			metrics.SessionsCancelled.WithLabelValues(before.TierID).Inc()
		}
	})
}

func (m *Manager) transition(
	op, id string,
	apply func(string) (station.View, bool, error),
	onApplied func(before, after station.View),
) (station.View, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.stateMgr.IsOpen() {
		return station.View{}, false, ErrNotOpen
	}

	before, err := m.registry.Get(id)
	if err != nil {
		zlog.Warn().Msgf("%s ignored: unknown station_id=%s", op, id)
		return station.View{}, false, err
	}

	after, applied, err := apply(id)
	if err != nil {
		return station.View{}, false, err
	}
	if !applied {
		zlog.Debug().Msgf("%s not applied: station_id=%s status=%s", op, id, before.Status)
		return after, false, nil
	}

	if onApplied != nil {
		onApplied(before, after)
	}
	zlog.Info().Msgf("station %s: station_id=%s status=%s->%s", op, id, before.Status, after.Status)

	m.changedLocked(op, id)
	return after, true, nil
}

// changedLocked persists the registry and tells subscribers. Must be
// called with m.mu held.
func (m *Manager) changedLocked(op, stationID string) {
	m.saver.Save(persistence.Capture(m.registry))
	m.updateStationGauge()

	now := m.clock.Now()
	views := m.registry.Snapshot()
	m.notification.Broadcast(&notification.Notification{
		Kind:     notification.KindChanged,
		At:       now,
		Change:   &notification.Change{Op: op, StationID: stationID},
		Stations: views,
		Summary:  summary.Compute(views, now.In(m.location)),
	})
}

// onTick publishes the refreshed board.
func (m *Manager) onTick(t ticker.Tick) {
	if m.notification.SubscriberCount() == 0 {
		return
	}
	m.notification.Broadcast(&notification.Notification{
		Kind:     notification.KindTick,
		At:       t.At,
		Stations: t.Stations,
		Summary:  summary.Compute(t.Stations, t.At.In(m.location)),
	})
}

func (m *Manager) updateStationGauge() {
	counts := map[station.Status]int{
		station.StatusAvailable: 0,
		station.StatusActive:    0,
		station.StatusPaused:    0,
		station.StatusCompleted: 0,
	}
	for _, v := range m.registry.Snapshot() {
		counts[v.Status]++
	}
	for s, n := range counts {
		metrics.Stations.WithLabelValues(s.String()).Set(float64(n))
	}
}

// Get returns one station.
func (m *Manager) Get(id string) (station.View, error) {
	return m.registry.Get(id)
}

// Snapshot returns every station in id order.
func (m *Manager) Snapshot() []station.View {
	return m.registry.Snapshot()
}

// Summary returns the daily summary for the calendar day of now.
func (m *Manager) Summary(now time.Time) summary.Daily {
	return summary.Compute(m.registry.Snapshot(), now.In(m.location))
}

// Today returns the summary for the current day.
func (m *Manager) Today() summary.Daily {
	return m.Summary(m.clock.Now())
}

// Tiers returns the price chart in catalog order.
func (m *Manager) Tiers() []*tier.Tier {
	return m.registry.Catalog().All()
}

// Availability reports capacity per tier in catalog order.
func (m *Manager) Availability() []TierAvailability {
	occupied := make(map[string]int)
	for _, v := range m.registry.Snapshot() {
		if v.Status.Occupied() {
			occupied[v.TierID]++
		}
	}

	tiers := m.registry.Catalog().All()
	out := make([]TierAvailability, 0, len(tiers))
	for _, t := range tiers {
		n := occupied[t.ID]
		out = append(out, TierAvailability{
			TierID:    t.ID,
			Occupied:  n,
			Units:     t.Units,
			Available: n < t.Units,
		})
	}
	return out
}

// Info returns the run state.
func (m *Manager) Info() state.Info {
	return m.stateMgr.Info()
}

// Subscribe registers a stream for notifications and returns its id.
func (m *Manager) Subscribe(stream notification.Stream) string {
	id := m.notification.Subscribe(stream)
	metrics.Subscribers.Set(float64(m.notification.SubscriberCount()))
	zlog.Debug().Msgf("subscriber added: subscription_id=%s", id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.notification.Unsubscribe(subscriptionID)
	metrics.Subscribers.Set(float64(m.notification.SubscriberCount()))
	zlog.Debug().Msgf("subscriber removed: subscription_id=%s", subscriptionID)
}

// Done returns a channel that is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the ticker, flushes pending state and drops subscribers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasOpen := m.stateMgr.IsOpen()
	if !m.stateMgr.Close() {
		return
	}

	m.ticker.Stop()
	if m.unsubTick != nil {
		m.unsubTick()
	}
	if wasOpen {
		m.saver.Close()
	}
	m.cancel()
	m.notification.Close()
	metrics.Subscribers.Set(0)
	close(m.done)

	zlog.Info().Msgf("lounge closed: run_id=%s", m.stateMgr.GetRunID())
}
