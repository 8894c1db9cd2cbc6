// Package compliance implements GDPR and DMA data-subject operations:
// export, portability and erasure, all backed by an audit trail.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/status"
	"github.com/mintwell/mintwell-server/internal/store"
	"github.com/mintwell/mintwell-server/pkg/logger"
)

// exportPageSize bounds one transaction fetch while draining a user's
// history for export.
const exportPageSize = 1000

// auditHistoryLimit caps the audit entries included in an export.
const auditHistoryLimit = 500

// Bundle format identifiers, versioned so consumers can detect layout
// changes.
const (
	formatGDPR = "mintwell.gdpr.v1"
	formatDMA  = "mintwell.dma.v1"
)

// UserStore is the user surface the compliance service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountStore lists a user's synced accounts.
type AccountStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.Account, error)
}

// TransactionStore pages through a user's transactions.
type TransactionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Transaction, error)
}

// DeviceStore lists a user's registered devices.
type DeviceStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]store.Device, error)
}

// AuditStore records and lists compliance actions.
type AuditStore interface {
	Record(ctx context.Context, userID uuid.UUID, action, detail string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]store.AuditEntry, error)
}

// Bundle is a machine-readable export of everything stored for one user.
type Bundle struct {
	Format       string              `json:"format"`
	ExportID     uuid.UUID           `json:"export_id"`
	ExportedAt   time.Time           `json:"exported_at"`
	User         *store.User         `json:"user"`
	Accounts     []store.Account     `json:"accounts,omitempty"`
	Transactions []store.Transaction `json:"transactions,omitempty"`
	Devices      []store.Device      `json:"devices,omitempty"`
	AuditLog     []store.AuditEntry  `json:"audit_log,omitempty"`
}

// Service implements export and erasure flows.
type Service struct {
	users        UserStore
	accounts     AccountStore
	transactions TransactionStore
	devices      DeviceStore
	audit        AuditStore
	statuses     status.Store
	now          func() time.Time
}

// NewService creates a compliance Service.
func NewService(
	users UserStore,
	accounts AccountStore,
	transactions TransactionStore,
	devices DeviceStore,
	audit AuditStore,
	statuses status.Store,
) *Service {
	return &Service{
		users:        users,
		accounts:     accounts,
		transactions: transactions,
		devices:      devices,
		audit:        audit,
		statuses:     statuses,
		now:          time.Now,
	}
}

// ExportGDPR assembles the full data bundle for a user and records the
// export in the audit log.
func (s *Service) ExportGDPR(ctx context.Context, userID uuid.UUID) (*Bundle, error) {
	bundle, err := s.assemble(ctx, userID, formatGDPR, true)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, userID, store.AuditActionGDPRExport, bundle.ExportID.String()); err != nil {
		return nil, err
	}
	return bundle, nil
}

// ExportPortable assembles the portability bundle: the data the user
// provided or generated, without server-side bookkeeping such as the
// audit log.
func (s *Service) ExportPortable(ctx context.Context, userID uuid.UUID) (*Bundle, error) {
	bundle, err := s.assemble(ctx, userID, formatGDPR, false)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, userID, store.AuditActionGDPRExport, "portable:"+bundle.ExportID.String()); err != nil {
		return nil, err
	}
	return bundle, nil
}

// ExportDMA assembles the interoperability bundle. It carries the same
// data as the portable export under the DMA format identifier.
func (s *Service) ExportDMA(ctx context.Context, userID uuid.UUID) (*Bundle, error) {
	bundle, err := s.assemble(ctx, userID, formatDMA, false)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, userID, store.AuditActionDMAExport, bundle.ExportID.String()); err != nil {
		return nil, err
	}
	return bundle, nil
}

// Delete erases the user and all dependent rows. The audit trail is kept;
// the deletion itself is the final entry recorded for the user.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	// Record first: after the user row is gone there is nothing to
	// attribute the entry to, and audit rows survive the cascade.
	if err := s.audit.Record(ctx, userID, store.AuditActionGDPRDelete, ""); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	// Reset the in-memory sync state so the deleted user reads as a
	// fresh default, not a leftover record.
	s.statuses.Set(userID.String(), status.DefaultRecord())

	logger.Infof("Erased all data for user %s", userID)
	return nil
}

// AuditLog returns the most recent compliance actions for a user.
func (s *Service) AuditLog(ctx context.Context, userID uuid.UUID) ([]store.AuditEntry, error) {
	return s.audit.ListByUser(ctx, userID, auditHistoryLimit)
}

func (s *Service) assemble(ctx context.Context, userID uuid.UUID, format string, includeAudit bool) (*Bundle, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var transactions []store.Transaction
	for offset := 0; ; offset += exportPageSize {
		page, err := s.transactions.ListByUser(ctx, userID, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, page...)
		if len(page) < exportPageSize {
			break
		}
	}

	devices, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Format:       format,
		ExportID:     uuid.New(),
		ExportedAt:   s.now().UTC(),
		User:         user,
		Accounts:     accounts,
		Transactions: transactions,
		Devices:      devices,
	}

	if includeAudit {
		auditLog, err := s.audit.ListByUser(ctx, userID, auditHistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to include audit history: %w", err)
		}
		bundle.AuditLog = auditLog
	}
	return bundle, nil
}
