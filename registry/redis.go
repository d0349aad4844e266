package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erraggy/oasbot/oaserrors"
)

// DefaultKeyPrefix namespaces registry keys when no prefix is configured.
const DefaultKeyPrefix = "oasbot:"

// Redis is a Registry backed by Redis or a compatible server.
//
// Keys, relative to the prefix:
//
//	name:<name>  entry id, claimed with SETNX
//	url:<url>    entry id, claimed with SETNX
//	entry:<id>   entry JSON
//	entries      list of ids in registration order
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to the server at url and verifies the connection.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	if url == "" {
		return nil, &oaserrors.ConfigError{Option: "registry.url", Message: "redis driver requires a connection URL"}
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &oaserrors.ConfigError{Option: "registry.url", Value: url, Message: "invalid redis URL", Cause: err}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("registry: failed to connect to redis: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) nameKey(name string) string { return r.prefix + "name:" + name }
func (r *Redis) urlKey(url string) string   { return r.prefix + "url:" + url }
func (r *Redis) entryKey(id string) string  { return r.prefix + "entry:" + id }
func (r *Redis) listKey() string            { return r.prefix + "entries" }

func (r *Redis) List(ctx context.Context) ([]Entry, error) {
	ids, err := r.client.LRange(ctx, r.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.entryKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("registry: failed to unmarshal %s: %w", keys[i], err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Redis) Lookup(ctx context.Context, name string) (Entry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := Match(entries, name)
	if !ok {
		return Entry{}, notFound(name)
	}
	return e, nil
}

func (r *Redis) Create(ctx context.Context, name, url string) (Entry, error) {
	e := newEntry(name, url)
	id := e.ID.String()

	claimed, err := r.client.SetNX(ctx, r.nameKey(name), id, 0).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("registry: %w", err)
	}
	if !claimed {
		return Entry{}, oaserrors.NameConflict(name)
	}

	claimed, err = r.client.SetNX(ctx, r.urlKey(url), id, 0).Result()
	if err != nil || !claimed {
		// Release the name so a later attempt can use it.
		r.client.Del(ctx, r.nameKey(name))
		if err != nil {
			return Entry{}, fmt.Errorf("registry: %w", err)
		}
		return Entry{}, oaserrors.URLConflict(url)
	}

	data, err := json.Marshal(e)
	if err != nil {
		r.client.Del(ctx, r.nameKey(name), r.urlKey(url))
		return Entry{}, fmt.Errorf("registry: failed to marshal entry: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entryKey(id), data, 0)
		pipe.RPush(ctx, r.listKey(), id)
		return nil
	})
	if err != nil {
		r.client.Del(ctx, r.nameKey(name), r.urlKey(url))
		return Entry{}, fmt.Errorf("registry: %w", err)
	}
	return e, nil
}

func (r *Redis) Delete(ctx context.Context, name string) error {
	id, err := r.client.Get(ctx, r.nameKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return notFound(name)
	}
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	keys := []string{r.nameKey(name), r.entryKey(id)}
	data, err := r.client.Get(ctx, r.entryKey(id)).Bytes()
	if err == nil {
		var e Entry
		if json.Unmarshal(data, &e) == nil && e.URL != "" {
			keys = append(keys, r.urlKey(e.URL))
		}
	} else if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("registry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.LRem(ctx, r.listKey(), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
