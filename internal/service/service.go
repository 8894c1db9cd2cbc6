// Package service provides the business logic for the sync-health API.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
)

var (
	// ErrUserNotFound is returned when the authenticated user has no row
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidStatus is returned when a status update fails validation
	ErrInvalidStatus = errors.New("invalid status update")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go SyncHealthService

// StatusUpdate is a client-reported sync status. Status is required; the
// remaining fields default to the zero record values.
type StatusUpdate struct {
	Status              string     `json:"status"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures,omitempty"`
	ConnectionHealth    string     `json:"connection_health,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
}

// SyncHealthService defines the operations on the per-user sync status cache
type SyncHealthService interface {
	// GetHealth returns the derived health report for the user
	GetHealth(ctx context.Context, userID uuid.UUID) (*status.Report, error)

	// UpdateStatus replaces the user's status record and returns the
	// derived report
	UpdateStatus(ctx context.Context, userID uuid.UUID, upd StatusUpdate) (*status.Report, error)

	// ClearErrors resets the user's error state and returns the derived
	// report
	ClearErrors(ctx context.Context, userID uuid.UUID) (*status.Report, error)
}

// UserGetter checks that a user exists.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
}

type syncHealthService struct {
	statuses status.Store
	reporter *status.Reporter
	users    UserGetter
}

// NewSyncHealthService creates the default SyncHealthService backed by the
// in-memory status store.
func NewSyncHealthService(statuses status.Store, reporter *status.Reporter, users UserGetter) SyncHealthService {
	return &syncHealthService{
		statuses: statuses,
		reporter: reporter,
		users:    users,
	}
}

func (s *syncHealthService) GetHealth(ctx context.Context, userID uuid.UUID) (*status.Report, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	report := s.reporter.Report(s.statuses.Get(userID.String()))
	return &report, nil
}

func (s *syncHealthService) UpdateStatus(_ context.Context, userID uuid.UUID, upd StatusUpdate) (*status.Report, error) {
	rec, err := recordFromUpdate(upd)
	if err != nil {
		return nil, err
	}

	s.statuses.Set(userID.String(), rec)
	report := s.reporter.Report(rec)
	return &report, nil
}

func (s *syncHealthService) ClearErrors(_ context.Context, userID uuid.UUID) (*status.Report, error) {
	rec := s.statuses.ClearErrors(userID.String())
	report := s.reporter.Report(rec)
	return &report, nil
}

// recordFromUpdate validates an update and builds the full replacement
// record. The cache is never touched for an invalid update.
func recordFromUpdate(upd StatusUpdate) (status.Record, error) {
	if upd.Status == "" {
		return status.Record{}, fmt.Errorf("%w: status is required", ErrInvalidStatus)
	}
	state := status.State(upd.Status)
	if !state.IsValid() {
		return status.Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, upd.Status)
	}
	if upd.ConsecutiveFailures < 0 {
		return status.Record{}, fmt.Errorf("%w: consecutive_failures must not be negative", ErrInvalidStatus)
	}

	health := status.HealthUnknown
	if upd.ConnectionHealth != "" {
		health = status.Health(upd.ConnectionHealth)
		if !health.IsValid() {
			return status.Record{}, fmt.Errorf("%w: unknown connection_health %q", ErrInvalidStatus, upd.ConnectionHealth)
		}
	}

	return status.Record{
		State:               state,
		LastSyncAt:          upd.LastSyncAt,
		ConsecutiveFailures: upd.ConsecutiveFailures,
		ConnectionHealth:    health,
		LastError:           upd.LastError,
	}, nil
}
