package status

import (
	"fmt"
	"strings"
	"time"
)

const (
	unhealthyFailureThreshold = 3
	degradedFailureThreshold  = 1
	degradedSyncAge           = 24 * time.Hour
)

// staleErrorMarkers are substrings of provider errors that indicate an
// expired link rather than a transient failure.
var staleErrorMarkers = []string{
	"login required",
	"reconnect",
	"re-authenticate",
	"invalid access token",
	"token expired",
}

// Report is the derived sync-health view returned to clients.
type Report struct {
	State               State      `json:"status"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	ConnectionHealth    Health     `json:"connection_health"`
	Stale               bool       `json:"is_stale"`
	TimeAgo             string     `json:"time_ago"`
	LastError           string     `json:"last_error,omitempty"`
	Message             string     `json:"message"`
}

// Reporter derives a health Report from a cached Record.
type Reporter struct {
	// now is swappable for tests.
	now func() time.Time
}

// NewReporter creates a Reporter using the wall clock.
func NewReporter() *Reporter {
	return &Reporter{now: time.Now}
}

// Report assesses rec and produces the client-facing health view.
func (rp *Reporter) Report(rec Record) Report {
	return Report{
		State:               rec.State,
		LastSyncAt:          rec.LastSyncAt,
		ConsecutiveFailures: rec.ConsecutiveFailures,
		ConnectionHealth:    rp.assessHealth(rec),
		Stale:               isStale(rec),
		TimeAgo:             rp.timeAgo(rec.LastSyncAt),
		LastError:           rec.LastError,
		Message:             rp.message(rec),
	}
}

// assessHealth computes the effective connection health. An explicit
// "unknown" passes through untouched; staleness dominates; otherwise the
// failure count and last sync age decide.
func (rp *Reporter) assessHealth(rec Record) Health {
	if rec.ConnectionHealth == HealthUnknown {
		return HealthUnknown
	}
	if isStale(rec) {
		return HealthStale
	}
	if rec.ConsecutiveFailures >= unhealthyFailureThreshold {
		return HealthUnhealthy
	}
	if rec.ConsecutiveFailures >= degradedFailureThreshold {
		return HealthDegraded
	}
	if rec.LastSyncAt != nil && rp.now().Sub(*rec.LastSyncAt) > degradedSyncAge {
		return HealthDegraded
	}
	return HealthHealthy
}

func isStale(rec Record) bool {
	if rec.ConnectionHealth == HealthStale {
		return true
	}
	errLower := strings.ToLower(rec.LastError)
	for _, marker := range staleErrorMarkers {
		if errLower != "" && strings.Contains(errLower, marker) {
			return true
		}
	}
	return false
}

// timeAgo formats the last sync time for display.
func (rp *Reporter) timeAgo(t *time.Time) string {
	if t == nil {
		return "never"
	}

	elapsed := rp.now().Sub(*t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}

// message builds the user-facing summary line for a record.
func (rp *Reporter) message(rec Record) string {
	if isStale(rec) {
		return "Connection needs refresh"
	}

	switch rec.State {
	case StateIdle:
		if rec.LastSyncAt != nil {
			return "Last synced " + rp.timeAgo(rec.LastSyncAt)
		}
		return "Not synced yet"
	case StateSyncing:
		return "Syncing..."
	case StateCompleted:
		return "Up to date"
	case StateError:
		return friendlyError(rec.LastError)
	default:
		return "Unknown status"
	}
}

// friendlyError maps raw provider errors to messages a user can act on.
func friendlyError(rawErr string) string {
	if rawErr == "" {
		return "Sync failed - please try again"
	}

	errLower := strings.ToLower(rawErr)
	switch {
	case strings.Contains(errLower, "offline") || strings.Contains(errLower, "no internet"):
		return "No internet connection"
	case strings.Contains(errLower, "timeout"):
		return "Connection timed out"
	case strings.Contains(errLower, "rate limit"):
		return "Too many requests - please wait"
	case strings.Contains(errLower, "server error") || strings.Contains(errLower, "500"):
		return "Server error - please try again"
	case strings.Contains(errLower, "login required") || strings.Contains(errLower, "reconnect"):
		return "Connection needs refresh"
	default:
		return "Sync failed - please try again"
	}
}
