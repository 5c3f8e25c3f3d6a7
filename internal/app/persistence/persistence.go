// Package persistence moves registry state across the storage boundary.
package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loungeclock/internal/domain/station"
	"github.com/osa030/loungeclock/internal/infra/metrics"
	"github.com/osa030/loungeclock/internal/infra/storage"
)

const (
	// StationsKey holds the JSON array of station records.
	StationsKey = "systemStorage"
	// OccupancyKey holds the JSON array of occupied tier ids.
	OccupancyKey = "tierOccupancy"

	loadTimeout = 5 * time.Second
)

// Store is the key-value boundary state is written to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Registry is the part of the session registry persistence needs.
type Registry interface {
	Records() []station.Record
	Occupancy() []string
	Restore(records []station.Record) error
	Reset()
}

// State is one serialized registry snapshot.
type State struct {
	Stations  []station.Record
	Occupancy []string
}

// Capture takes the current state of reg.
func Capture(reg Registry) State {
	return State{
		Stations:  reg.Records(),
		Occupancy: reg.Occupancy(),
	}
}

// Load restores reg from the store. A missing, unreadable or malformed
// snapshot leaves reg on the all-available default catalog. It reports
// whether saved state was restored.
func Load(ctx context.Context, store Store, reg Registry) bool {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	data, err := store.Get(ctx, StationsKey)
	if errors.Is(err, storage.ErrNotFound) {
		zlog.Info().Msg("no saved stations, starting from default catalog")
		reg.Reset()
		return false
	}
	if err != nil {
		metrics.StorageErrors.WithLabelValues("load").Inc()
		zlog.Warn().Msgf("failed to load saved stations, using defaults: %v", err)
		reg.Reset()
		return false
	}

	var records []station.Record
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.StorageErrors.WithLabelValues("decode").Inc()
		zlog.Warn().Msgf("saved stations are not valid JSON, using defaults: %v", err)
		reg.Reset()
		return false
	}

	if err := reg.Restore(records); err != nil {
		metrics.StorageErrors.WithLabelValues("restore").Inc()
		zlog.Warn().Msgf("saved stations are malformed, using defaults: %v", err)
		reg.Reset()
		return false
	}

	zlog.Info().Msgf("restored saved stations: count=%d", len(records))
	return true
}

// Write serializes s and puts both keys.
func Write(ctx context.Context, store Store, s State) error {
	stations := s.Stations
	if stations == nil {
		stations = []station.Record{}
	}
	occupancy := s.Occupancy
	if occupancy == nil {
		occupancy = []string{}
	}

	data, err := json.Marshal(stations)
	if err != nil {
		return errors.Wrap(err, "failed to encode stations")
	}
	occ, err := json.Marshal(occupancy)
	if err != nil {
		return errors.Wrap(err, "failed to encode tier occupancy")
	}

	if err := store.Put(ctx, StationsKey, data); err != nil {
		return errors.Wrap(err, "failed to save stations")
	}
	if err := store.Put(ctx, OccupancyKey, occ); err != nil {
		return errors.Wrap(err, "failed to save tier occupancy")
	}
	return nil
}
