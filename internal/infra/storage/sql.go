package storage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLConfig configures the gorm backend.
type SQLConfig struct {
	DSN                    string `mapstructure:"dsn" default:"lounge.db" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"4" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"2" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"30" validate:"gte=0"`
}

// Entry is one stored key.
type Entry struct {
	StateKey  string `gorm:"primaryKey;size:128"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (Entry) TableName() string {
	return "lounge_state"
}

// SQL stores values in a single key-value table through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens a sqlite or postgres database and migrates the state table.
func NewSQL(driver string, settings map[string]any) (*SQL, error) {
	var cfg SQLConfig
	if err := decodeSettings(settings, &cfg); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "sql driver=%s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	return OpenSQL(db)
}

// OpenSQL wraps an existing gorm connection and migrates the state table.
func OpenSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "automigrate failed")
	}
	zlog.Debug().Msgf("state table ready: table=%s", Entry{}.TableName())
	return &SQL{db: db}, nil
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("state_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key %s", key)
	}
	return e.Value, nil
}

// Put implements Store.
func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	e := Entry{StateKey: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return errors.Wrapf(err, "failed to write key %s", key)
	}
	return nil
}

// Close implements Store.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
