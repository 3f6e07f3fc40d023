package rbac

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// DefaultMinLevel is the lowest authority level a role may carry.
	DefaultMinLevel = 1
	// DefaultMaxLevel is the highest authority level a role may carry.
	DefaultMaxLevel = 10
	// DefaultStoreTimeout bounds every store access of a single operation.
	DefaultStoreTimeout = 5 * time.Second
	// DefaultCacheSize is the number of users whose resolution is cached.
	DefaultCacheSize = 4096
	// DefaultCacheTTL is the upper bound for keeping a cached resolution.
	DefaultCacheTTL = time.Minute
)

// Options configure the authorization core.
type Options struct {
	MinLevel     int
	MaxLevel     int
	StoreTimeout time.Duration
	// CacheSize of 0 disables the effective permission cache.
	CacheSize int
	CacheTTL  time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinLevel:     DefaultMinLevel,
		MaxLevel:     DefaultMaxLevel,
		StoreTimeout: DefaultStoreTimeout,
		CacheSize:    DefaultCacheSize,
		CacheTTL:     DefaultCacheTTL,
	}
}

// Service bundles the components of the authorization core.
// External callers should only use Gate for access decisions.
type Service struct {
	Catalog     *Catalog
	Roles       *Registry
	Assignments *Ledger
	Resolver    *Resolver
	Gate        *Gate
	Audit       *AuditLog
	Cache       *Cache
}

// NewService wires every component on top of store.
func NewService(store Store, opts Options) *Service {
	if store == nil {
		panic("rbac: store cannot be nil")
	}

	if opts.MinLevel == 0 && opts.MaxLevel == 0 {
		opts.MinLevel, opts.MaxLevel = DefaultMinLevel, DefaultMaxLevel
	}

	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	var cache *Cache
	if opts.CacheSize > 0 {
		cache = NewCache(opts.CacheSize, opts.CacheTTL)
	}

	c := &core{
		store:    store,
		now:      opts.Now,
		timeout:  opts.StoreTimeout,
		cache:    cache,
		validate: newValidator(),
		minLevel: opts.MinLevel,
		maxLevel: opts.MaxLevel,
	}

	resolver := &Resolver{core: c}

	return &Service{
		Catalog:     &Catalog{core: c},
		Roles:       &Registry{core: c},
		Assignments: &Ledger{core: c},
		Resolver:    resolver,
		Gate:        &Gate{resolver: resolver},
		Audit:       &AuditLog{core: c},
		Cache:       cache,
	}
}

// core holds what every component shares.
type core struct {
	store    Store
	now      func() time.Time
	timeout  time.Duration
	cache    *Cache
	validate *validator.Validate
	minLevel int
	maxLevel int
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}

func (c *core) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
