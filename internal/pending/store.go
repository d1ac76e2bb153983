// Package pending keeps password-protected documents in memory between a
// PasswordRequired answer and the caller resubmitting with a password.
package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/pkg/logger"

	"github.com/google/uuid"
)

// Config holds configuration options for the store
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// DefaultConfig returns a default configuration for the store
func DefaultConfig() *Config {
	return &Config{
		TTL:           5 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", c.TTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// Entry is a document waiting for its password
type Entry struct {
	Token     string
	Data      []byte
	Filename  string
	// Bank is the issuer given with the first submission, if any
	Bank      models.Bank
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its deadline at now
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is an in-memory token to document map with a time-to-live.
// It is safe for concurrent use. Entries are lost on restart.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger
}

// NewStore creates a store whose entries expire after ttl
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.WithComponent("pending"),
	}
}

// NewStoreWithConfig validates config and creates a store from it
func NewStoreWithConfig(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pending store config: %w", err)
	}
	return NewStore(config.TTL), nil
}

// TTL returns how long entries are kept
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Put stores a copy of data together with the issuer hint of the request
// and returns the token that retrieves it
func (s *Store) Put(data []byte, filename string, bank models.Bank) string {
	now := s.now()
	entry := &Entry{
		Token:     uuid.NewString(),
		Data:      append([]byte(nil), data...),
		Filename:  filename,
		Bank:      bank,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.entries[entry.Token] = entry
	s.mu.Unlock()

	s.logger.WithFields(logger.Fields{
		"token":    entry.Token,
		"filename": filename,
		"bytes":    len(data),
	}).Debug("Stored pending document")

	return entry.Token
}

// Get returns a copy of the entry for token. Expired entries are reported
// as missing even before a sweep removes them.
func (s *Store) Get(token string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[token]
	if !exists || entry.Expired(s.now()) {
		return Entry{}, false
	}

	// Return a copy to avoid external modifications
	entryCopy := *entry
	entryCopy.Data = append([]byte(nil), entry.Data...)
	return entryCopy, true
}

// Delete removes token; unknown tokens are ignored
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired or not
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep evicts every entry expired at now and returns how many were removed
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Run sweeps the store every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.WithField("interval", interval).Debug("Pending store sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Pending store sweeper stopped")
			return
		case <-ticker.C:
			if removed := s.Sweep(s.now()); removed > 0 {
				s.logger.WithField("removed", removed).Info("Evicted expired pending documents")
			}
		}
	}
}
