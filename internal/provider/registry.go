// Package provider tracks per-user connection health for the configured
// financial data providers and selects which provider a sync should use.
package provider

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

// Default provider ordering. The order is the fallback chain: syncs prefer
// earlier entries.
var defaultProviders = []string{"plaid", "stripe", "finicity", "teller"}

// ErrUnknownProvider is returned for provider IDs not in the configured set.
var ErrUnknownProvider = errors.New("unknown provider")

// Health is the connection health snapshot for one user/provider pair.
// Immutable value; updates replace the whole snapshot.
type Health struct {
	ProviderID   string     `json:"provider_id"`
	Healthy      bool       `json:"is_healthy"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	FailureCount int        `json:"failure_count"`
	Stale        bool       `json:"is_stale"`
	LastError    string     `json:"last_error,omitempty"`
}

// defaultHealth is the snapshot for a provider the user has never synced
// with: assumed healthy so it stays eligible for the fallback chain.
func defaultHealth(providerID string) Health {
	return Health{ProviderID: providerID, Healthy: true}
}

const registryShards = 16

type registryShard struct {
	mu sync.RWMutex
	// userID -> providerID -> snapshot
	health map[string]map[string]Health
}

// Registry holds provider health per user. Lock-striped by user ID like the
// status store, so updates for different users do not contend.
type Registry struct {
	providers []string
	shards    []*registryShard
	now       func() time.Time
}

// NewRegistry creates a Registry for the default provider set.
func NewRegistry() *Registry {
	return NewRegistryWithProviders(defaultProviders)
}

// NewRegistryWithProviders creates a Registry for an explicit provider
// ordering. The order is the sync fallback chain.
func NewRegistryWithProviders(providers []string) *Registry {
	shards := make([]*registryShard, registryShards)
	for i := range shards {
		shards[i] = &registryShard{health: make(map[string]map[string]Health)}
	}
	return &Registry{
		providers: append([]string(nil), providers...),
		shards:    shards,
		now:       time.Now,
	}
}

// Providers returns the configured provider IDs in fallback order.
func (r *Registry) Providers() []string {
	return append([]string(nil), r.providers...)
}

func (r *Registry) knows(providerID string) bool {
	for _, id := range r.providers {
		if id == providerID {
			return true
		}
	}
	return false
}

func (r *Registry) shardFor(userID string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// List returns the health of every configured provider for userID, in
// fallback order, with defaults for providers the user has never touched.
func (r *Registry) List(userID string) []Health {
	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	out := make([]Health, 0, len(r.providers))
	for _, id := range r.providers {
		if h, ok := sh.health[userID][id]; ok {
			out = append(out, h)
		} else {
			out = append(out, defaultHealth(id))
		}
	}
	return out
}

// Get returns the health snapshot for one provider.
func (r *Registry) Get(userID, providerID string) (Health, error) {
	if !r.knows(providerID) {
		return Health{}, ErrUnknownProvider
	}

	sh := r.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if h, ok := sh.health[userID][providerID]; ok {
		return h, nil
	}
	return defaultHealth(providerID), nil
}

// Update reports a sync outcome for a provider. A healthy report resets the
// failure count and stamps LastSuccess; an unhealthy one increments the
// failure count. The read-modify-write runs under the shard write lock.
func (r *Registry) Update(userID, providerID string, healthy bool, stale bool, lastError string) (Health, error) {
	if !r.knows(providerID) {
		return Health{}, ErrUnknownProvider
	}

	sh := r.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur := r.currentLocked(sh, userID, providerID)
	next := Health{
		ProviderID:  providerID,
		Healthy:     healthy,
		LastSuccess: cur.LastSuccess,
		Stale:       stale,
		LastError:   lastError,
	}
	if healthy {
		now := r.now()
		next.LastSuccess = &now
		next.FailureCount = 0
	} else {
		next.FailureCount = cur.FailureCount + 1
	}

	r.storeLocked(sh, userID, providerID, next)
	return next, nil
}

// MarkStale flags a provider link as needing re-authentication.
func (r *Registry) MarkStale(userID, providerID string) (Health, error) {
	if !r.knows(providerID) {
		return Health{}, ErrUnknownProvider
	}

	sh := r.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	next := r.currentLocked(sh, userID, providerID)
	next.Stale = true
	next.Healthy = false
	r.storeLocked(sh, userID, providerID, next)
	return next, nil
}

// ClearStale clears the stale flag after a successful re-authentication and
// resets the failure count.
func (r *Registry) ClearStale(userID, providerID string) (Health, error) {
	if !r.knows(providerID) {
		return Health{}, ErrUnknownProvider
	}

	sh := r.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	next := r.currentLocked(sh, userID, providerID)
	next.Stale = false
	next.Healthy = true
	next.FailureCount = 0
	next.LastError = ""
	r.storeLocked(sh, userID, providerID, next)
	return next, nil
}

// PickHealthy returns the first provider in fallback order that is healthy
// and not stale, or false when every provider is down.
func (r *Registry) PickHealthy(userID string) (string, bool) {
	for _, h := range r.List(userID) {
		if h.Healthy && !h.Stale {
			return h.ProviderID, true
		}
	}
	return "", false
}

func (*Registry) currentLocked(sh *registryShard, userID, providerID string) Health {
	if h, ok := sh.health[userID][providerID]; ok {
		return h
	}
	return defaultHealth(providerID)
}

func (*Registry) storeLocked(sh *registryShard, userID, providerID string, h Health) {
	byProvider, ok := sh.health[userID]
	if !ok {
		byProvider = make(map[string]Health)
		sh.health[userID] = byProvider
	}
	byProvider[providerID] = h
}
