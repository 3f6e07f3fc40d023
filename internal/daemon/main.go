package daemon

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/uniportal/uniportal-rbac/internal/config"
	"github.com/uniportal/uniportal-rbac/internal/db/dsn"
	"github.com/uniportal/uniportal-rbac/internal/db/store"
	"github.com/uniportal/uniportal-rbac/internal/logger/adapter/stdlogger"
	"github.com/uniportal/uniportal-rbac/internal/rbac"
	"github.com/uniportal/uniportal-rbac/internal/web"
)

const slowQueryThreshold = 200 * time.Millisecond

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	rbac       *rbac.Service
	webService *web.Service
}

// Start serves the admin API until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)

	go func() {
		log.Info().Str("addr", addr).Msg("starting web service")

		_ = d.webService.Start(addr)
	}()

	d.webService.WaitShutdown()

	return d.Close()
}

// RBAC returns the authorization core the daemon serves.
func (d *Daemon) RBAC() *rbac.Service {
	return d.rbac
}

// Close releases the database connection.
func (d *Daemon) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}

	return sqlDB.Close()
}

// OpenDB connects to the configured database. SQL statements go to the global
// logger: all of them at debug level when log.logSQL is set, otherwise only
// slow queries and errors.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	}

	level := zerolog.WarnLevel
	if cfg.Log.LogSQL {
		gormCfg.LogLevel = gormlogger.Info
		level = zerolog.DebugLevel
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.NewWithLevel("gorm", level), gormCfg),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s database", cfg.DB.GormEngine)
	}

	return db, nil
}

// Options maps the rbac settings onto service options.
func Options(cfg *config.Config) rbac.Options {
	opts := rbac.DefaultOptions()
	opts.MinLevel = cfg.RBAC.MinLevel
	opts.MaxLevel = cfg.RBAC.MaxLevel
	opts.StoreTimeout = cfg.RBAC.StoreTimeout
	opts.CacheSize = cfg.RBAC.CacheSize
	opts.CacheTTL = cfg.RBAC.CacheTTL

	return opts
}

// Open connects, migrates and seeds the database and wires the authorization core.
func Open(cfg *config.Config) (*gorm.DB, *rbac.Service, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = store.Migrate(db); err != nil {
		return nil, nil, closeOnError(db, err)
	}

	svc := rbac.NewService(store.New(db), Options(cfg))

	if err = Seed(cfg, svc); err != nil {
		return nil, nil, closeOnError(db, err)
	}

	return db, svc, nil
}

// closeOnError closes db and returns err.
func closeOnError(db *gorm.DB, err error) error {
	sqlDB, dbErr := db.DB()
	if dbErr != nil {
		log.Error().Err(dbErr).Msg("get sql db")
		return err
	}

	if cerr := sqlDB.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("close database")
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil, nil
	}

	db, svc, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         db,
		rbac:       svc,
		webService: web.New(cfg, svc),
	}, nil
}
