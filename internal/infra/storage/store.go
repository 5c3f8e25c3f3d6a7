// Package storage provides the key-value boundary used to persist lounge
// state, with memory, SQL and redis backends.
package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = errors.New("key not found")
	ErrUnsupported = errors.New("unsupported storage type")
)

// Store is a key-value put/get boundary.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects a backend. Settings are backend specific.
type Config struct {
	Type     string
	Settings map[string]any
}

// New opens the backend named by cfg.Type.
func New(cfg Config) (Store, error) {
	zlog.Debug().Msgf("opening storage: type=%s settings=%+v", cfg.Type, redactSettings(cfg.Settings))

	var (
		s   Store
		err error
	)
	switch cfg.Type {
	case "memory", "":
		s, err = NewMemory(cfg.Settings)
	case "sqlite", "postgres":
		s, err = NewSQL(cfg.Type, cfg.Settings)
	case "redis":
		s, err = NewRedis(cfg.Settings)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "type=%s", cfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s storage", cfg.Type)
	}

	zlog.Info().Msgf("storage opened: type=%s", cfg.Type)
	return s, nil
}

// decodeSettings fills out from a settings map, then applies defaults and
// validation tags.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if settings != nil {
		if err := decoder.Decode(settings); err != nil {
			return errors.Wrap(err, "failed to decode settings")
		}
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

func redactSettings(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		switch k {
		case "password", "dsn":
			out[k] = "***"
		default:
			out[k] = v
		}
	}
	return out
}
