package registry

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/erraggy/oasbot/oaserrors"
)

var (
	entriesBucket = []byte("entries")
	namesBucket   = []byte("names")
	urlsBucket    = []byte("urls")
)

// Bolt is a Registry backed by a bbolt file. Entries are keyed by a
// monotonically increasing sequence, so iteration follows registration order.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, &oaserrors.ConfigError{Option: "registry.path", Message: "bolt driver requires a database path"}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("registry: failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, namesBucket, urlsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) List(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		entries, err = readEntries(tx)
		return err
	})
	return entries, err
}

func (b *Bolt) Lookup(ctx context.Context, name string) (Entry, error) {
	entries, err := b.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := Match(entries, name)
	if !ok {
		return Entry{}, notFound(name)
	}
	return e, nil
}

func (b *Bolt) Create(_ context.Context, name, url string) (Entry, error) {
	e := newEntry(name, url)
	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("registry: failed to marshal entry: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(namesBucket)
		urls := tx.Bucket(urlsBucket)
		entries := tx.Bucket(entriesBucket)

		if names.Get([]byte(name)) != nil {
			return oaserrors.NameConflict(name)
		}
		if urls.Get([]byte(url)) != nil {
			return oaserrors.URLConflict(url)
		}

		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := entries.Put(key, data); err != nil {
			return err
		}
		if err := names.Put([]byte(name), key); err != nil {
			return err
		}
		return urls.Put([]byte(url), key)
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (b *Bolt) Delete(_ context.Context, name string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(namesBucket)
		entries := tx.Bucket(entriesBucket)

		key := names.Get([]byte(name))
		if key == nil {
			return notFound(name)
		}
		var e Entry
		if data := entries.Get(key); data != nil {
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("registry: failed to unmarshal entry: %w", err)
			}
		}
		if err := entries.Delete(key); err != nil {
			return err
		}
		if e.URL != "" {
			if err := tx.Bucket(urlsBucket).Delete([]byte(e.URL)); err != nil {
				return err
			}
		}
		return names.Delete([]byte(name))
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func readEntries(tx *bolt.Tx) ([]Entry, error) {
	var entries []Entry
	err := tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("registry: failed to unmarshal %x: %w", k, err)
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
