// Package registry stores the named Swagger document URLs the bot can answer
// questions about.
//
// Entries are unique by name and by URL. Every backend enforces both
// constraints in its storage layer, so concurrent creates of the same name or
// URL cannot both succeed:
//
//   - memory: a mutex-guarded slice, for tests and ephemeral runs
//   - bolt: go.etcd.io/bbolt, name and url index buckets written in one transaction
//   - redis: SETNX index keys
//   - postgres: unique indexes through gorm
//
// Use Open to select a backend from configuration.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erraggy/oasbot/internal/logging"
	"github.com/erraggy/oasbot/oaserrors"
)

// Entry is a registered API.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Registry is a named directory of Swagger document URLs.
type Registry interface {
	// List returns all entries in registration order.
	List(ctx context.Context) ([]Entry, error)
	// Lookup finds an entry by name. See Match for the matching rules.
	// A miss returns an error matching oaserrors.ErrNoSuchAPI.
	Lookup(ctx context.Context, name string) (Entry, error)
	// Create registers a new entry. A duplicate name or URL returns an error
	// matching oaserrors.ErrNameConflict or oaserrors.ErrURLConflict.
	Create(ctx context.Context, name, url string) (Entry, error)
	// Delete removes the entry with exactly this name.
	Delete(ctx context.Context, name string) error
	// Close releases the underlying storage.
	Close() error
}

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	// Driver is one of the Driver constants; empty means memory
	Driver string
	// Path is the bbolt database file
	Path string
	// URL is the redis connection URL, e.g. redis://localhost:6379/0
	URL string
	// KeyPrefix namespaces redis keys
	KeyPrefix string
	// DSN is the postgres connection string
	DSN string
	// Logger receives backend diagnostics
	Logger logging.Logger
}

// Open creates the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Registry, error) {
	log := logging.OrNop(cfg.Logger).With("driver", driverName(cfg.Driver))

	var (
		reg Registry
		err error
	)
	switch driverName(cfg.Driver) {
	case DriverMemory:
		reg = NewMemory()
	case DriverBolt:
		reg, err = OpenBolt(cfg.Path)
	case DriverRedis:
		reg, err = OpenRedis(ctx, cfg.URL, cfg.KeyPrefix)
	case DriverPostgres:
		reg, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, &oaserrors.ConfigError{Option: "registry.driver", Value: cfg.Driver, Message: "unknown registry driver"}
	}
	if err != nil {
		log.Error("failed to open registry", "error", err)
		return nil, err
	}
	log.Info("registry opened")
	return reg, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverMemory
	}
	return strings.ToLower(d)
}

// Match picks the entry for a requested name. An exact case-insensitive
// match wins; otherwise the first entry, in the given order, whose name
// contains the request case-insensitively.
func Match(entries []Entry, name string) (Entry, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Entry{}, false
	}
	for _, e := range entries {
		if strings.ToLower(e.Name) == needle {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return e, true
		}
	}
	return Entry{}, false
}

func newEntry(name, url string) Entry {
	now := time.Now().UTC()
	return Entry{
		ID:        uuid.New(),
		Name:      name,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func notFound(name string) error {
	return &oaserrors.NotFoundError{Kind: oaserrors.KindAPI, Name: name}
}

// checkUnique reports the first uniqueness violation of name, then url.
func checkUnique(entries []Entry, name, url string) error {
	for _, e := range entries {
		if e.Name == name {
			return oaserrors.NameConflict(name)
		}
	}
	for _, e := range entries {
		if e.URL == url {
			return oaserrors.URLConflict(url)
		}
	}
	return nil
}
