// Package status tracks per-user synchronization state in memory. Records
// are advisory: they describe the most recent sync attempt reported by a
// client or by the sync service, and are lost on restart.
package status

import "time"

// State represents the current phase of a user's transaction sync.
type State string

const (
	// StateIdle means no sync is in progress.
	StateIdle State = "idle"

	// StateSyncing means a sync is currently running.
	StateSyncing State = "syncing"

	// StateCompleted means the last sync finished successfully.
	StateCompleted State = "completed"

	// StateError means the last sync failed.
	StateError State = "error"
)

// IsValid reports whether s is one of the known sync states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateSyncing, StateCompleted, StateError:
		return true
	}
	return false
}

// Health describes the assessed condition of a user's provider connection.
type Health string

const (
	// HealthUnknown means no assessment has been made yet.
	HealthUnknown Health = "unknown"

	// HealthHealthy means syncs are succeeding.
	HealthHealthy Health = "healthy"

	// HealthDegraded means recent failures or an aging last sync.
	HealthDegraded Health = "degraded"

	// HealthUnhealthy means repeated consecutive failures.
	HealthUnhealthy Health = "unhealthy"

	// HealthStale means the provider link likely expired and needs
	// re-authentication.
	HealthStale Health = "stale"
)

// IsValid reports whether h is one of the known health values.
func (h Health) IsValid() bool {
	switch h {
	case HealthUnknown, HealthHealthy, HealthDegraded, HealthUnhealthy, HealthStale:
		return true
	}
	return false
}

// Record is the cached sync status snapshot for one user. Records are
// immutable values: updates replace the whole record, never individual
// fields, so readers can never observe a partially written record.
type Record struct {
	State               State
	LastSyncAt          *time.Time
	ConsecutiveFailures int
	ConnectionHealth    Health
	LastError           string
}

// DefaultRecord is what Get returns for a user that has never reported
// status: idle, never synced, no failures, unknown health.
func DefaultRecord() Record {
	return Record{
		State:            StateIdle,
		ConnectionHealth: HealthUnknown,
	}
}

// cleared derives the post-ClearErrors record: error state and failure
// count reset, connection considered healthy, last sync time preserved.
func (r Record) cleared() Record {
	return Record{
		State:            StateIdle,
		LastSyncAt:       r.LastSyncAt,
		ConnectionHealth: HealthHealthy,
	}
}
