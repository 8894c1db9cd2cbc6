package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/db"
)

// DeviceStore persists push-notification device registrations.
type DeviceStore struct {
	q db.Querier
}

// NewDeviceStore creates a DeviceStore backed by q.
func NewDeviceStore(q db.Querier) *DeviceStore {
	return &DeviceStore{q: q}
}

// Upsert registers a device token. Re-registering the same token for the
// same user refreshes the platform, which covers app reinstalls.
func (s *DeviceStore) Upsert(ctx context.Context, userID uuid.UUID, token, platform string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO devices (user_id, token, platform)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, token)
		 DO UPDATE SET platform = EXCLUDED.platform`,
		userID, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// ListByUser returns all devices registered by userID.
func (s *DeviceStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Device, error) {
	rows, err := s.q.Query(ctx,
		`SELECT user_id, token, platform, created_at
		 FROM devices WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.UserID, &d.Token, &d.Platform, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Delete removes one device registration.
func (s *DeviceStore) Delete(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM devices WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
