package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// SessionKey is the key under which the durable session record is stored.
	SessionKey = "session"
	// RecordVersion is the current durable record schema version.
	RecordVersion = "1"
)

// ErrCorruptValue is returned by a KeyValue whose stored bytes exist but cannot be recovered,
// for example a value that fails authenticated decryption. The session store purges such values.
var ErrCorruptValue = errors.New("stored value is corrupt")

// KeyValue is the durable storage the session store persists into.
// Get reports found=false for a missing key. Delete of a missing key is not an error.
// Set must replace the value atomically: readers see the old or the new value, never a mix.
type KeyValue interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Record is the durable form of a signed-in session.
type Record struct {
	Version     string       `json:"version"`
	Identity    *Identity    `json:"identity"`
	Credentials *Credentials `json:"credentials,omitempty"`
	SavedAt     time.Time    `json:"saved_at"`
}

// Validate checks that a decoded record can be installed as a session.
func (r *Record) Validate() error {
	if r.Version != RecordVersion {
		return fmt.Errorf("unsupported session record version: %q (expected %s)", r.Version, RecordVersion)
	}
	if r.Identity == nil {
		return fmt.Errorf("session record has no identity")
	}
	return r.Identity.Validate()
}

// SessionStore owns the durable copy of the current identity.
type SessionStore struct {
	kv     KeyValue
	key    string
	logger *slog.Logger
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithStoreKey overrides the storage key (default SessionKey).
func WithStoreKey(key string) StoreOption {
	return func(s *SessionStore) {
		s.key = key
	}
}

// WithStoreLogger sets the logger used for purge and I/O warnings.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *SessionStore) {
		s.logger = logger
	}
}

// NewSessionStore creates a store persisting into kv.
func NewSessionStore(kv KeyValue, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		kv:     kv,
		key:    SessionKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the durable record. It returns nil when there is no record.
// A malformed record is purged and reported as absent; a read failure is logged and
// reported as absent without purging, since the record may still be intact.
func (s *SessionStore) Load(ctx context.Context) *Record {
	data, found, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrCorruptValue) {
		s.purge(ctx, err)
		return nil
	}
	if err != nil {
		s.logger.Warn("session record unreadable, treating as signed out", "key", s.key, "error", err)
		return nil
	}
	if !found {
		return nil
	}

	record, err := decodeRecord(data)
	if err != nil {
		s.purge(ctx, err)
		return nil
	}
	return record
}

func (s *SessionStore) purge(ctx context.Context, cause error) {
	s.logger.Warn("purging malformed session record", "key", s.key, "error", cause)
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Error("failed to purge malformed session record", "key", s.key, "error", err)
	}
}

// Save overwrites the durable record with identity and credentials.
func (s *SessionStore) Save(ctx context.Context, identity *Identity, creds *Credentials) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("refusing to save session: %w", err)
	}

	record := Record{
		Version:     RecordVersion,
		Identity:    identity,
		Credentials: creds,
		SavedAt:     time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

// Clear removes the durable record. Clearing an empty store is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

func decodeRecord(data []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// MemoryKV is an in-process KeyValue. Values do not survive the process;
// it backs tests and ephemeral sessions.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ KeyValue = (*MemoryKV)(nil)

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get implements KeyValue.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements KeyValue.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements KeyValue.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
