package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Tokens is the stored session.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenStore persists the session between calls.
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// MemoryTokenStore keeps tokens for the life of the process.
type MemoryTokenStore struct {
	mu  sync.Mutex
	tok Tokens
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{} }

func (m *MemoryTokenStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *MemoryTokenStore) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = t
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save(Tokens{})
}

var (
	sessionBucket = []byte("session")
	sessionKey    = []byte("tokens")
)

// BoltTokenStore keeps tokens in a bbolt file so a CLI session survives
// restarts.
type BoltTokenStore struct {
	db *bolt.DB
}

// OpenBoltTokenStore opens or creates the session database at path.
func OpenBoltTokenStore(path string) (*BoltTokenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("client: open session db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("client: init session db: %w", err)
	}
	return &BoltTokenStore{db: db}, nil
}

func (b *BoltTokenStore) Load() (Tokens, error) {
	var t Tokens
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionBucket).Get(sessionKey)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &t)
	})
	return t, err
}

func (b *BoltTokenStore) Save(t Tokens) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(sessionKey, raw)
	})
}

func (b *BoltTokenStore) Clear() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(sessionKey)
	})
}

// Close releases the file lock.
func (b *BoltTokenStore) Close() error { return b.db.Close() }
