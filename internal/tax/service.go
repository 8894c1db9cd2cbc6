// Package tax produces year-scoped transaction exports and summaries for
// tax preparation.
package tax

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mintwell/mintwell-server/internal/store"
)

// TransactionStore fetches one calendar year of transactions.
type TransactionStore interface {
	ListByUserYear(ctx context.Context, userID uuid.UUID, year int) ([]store.Transaction, error)
}

// AuditStore records export actions.
type AuditStore interface {
	Record(ctx context.Context, userID uuid.UUID, action, detail string) error
}

// Export is the JSON export payload for one tax year.
type Export struct {
	Year         int                 `json:"year"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Transactions []store.Transaction `json:"transactions"`
}

// Summary aggregates one tax year. Income is the sum of positive amounts,
// Expenses the absolute sum of negative ones.
type Summary struct {
	Year             int                `json:"year"`
	TransactionCount int                `json:"transaction_count"`
	TotalIncome      float64            `json:"total_income"`
	TotalExpenses    float64            `json:"total_expenses"`
	TotalDeductible  float64            `json:"total_deductible"`
	ByCategory       map[string]float64 `json:"by_category"`
}

// Service builds tax exports from stored transactions.
type Service struct {
	transactions TransactionStore
	audit        AuditStore
	now          func() time.Time
}

// NewService creates a tax Service.
func NewService(transactions TransactionStore, audit AuditStore) *Service {
	return &Service{transactions: transactions, audit: audit, now: time.Now}
}

var csvHeader = []string{"date", "merchant", "category", "amount", "currency", "deductible"}

// WriteCSV streams the year's transactions as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, userID uuid.UUID, year int) error {
	txns, err := s.transactions.ListByUserYear(ctx, userID, year)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range txns {
		t := &txns[i]
		row := []string{
			t.PostedAt.UTC().Format("2006-01-02"),
			t.Merchant,
			t.Category,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.Currency,
			strconv.FormatBool(t.Deductible),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return s.audit.Record(ctx, userID, store.AuditActionTaxExport, fmt.Sprintf("csv:%d", year))
}

// ExportJSON returns the year's transactions as a JSON-ready payload.
func (s *Service) ExportJSON(ctx context.Context, userID uuid.UUID, year int) (*Export, error) {
	txns, err := s.transactions.ListByUserYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, userID, store.AuditActionTaxExport, fmt.Sprintf("json:%d", year)); err != nil {
		return nil, err
	}
	return &Export{
		Year:         year,
		GeneratedAt:  s.now().UTC(),
		Transactions: txns,
	}, nil
}

// Summarize aggregates the year's transactions.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID, year int) (*Summary, error) {
	txns, err := s.transactions.ListByUserYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Year:             year,
		TransactionCount: len(txns),
		ByCategory:       make(map[string]float64),
	}
	for i := range txns {
		t := &txns[i]
		if t.Amount >= 0 {
			sum.TotalIncome += t.Amount
		} else {
			sum.TotalExpenses += -t.Amount
			if t.Deductible {
				sum.TotalDeductible += -t.Amount
			}
		}
		sum.ByCategory[t.Category] += t.Amount
	}

	sum.TotalIncome = round2(sum.TotalIncome)
	sum.TotalExpenses = round2(sum.TotalExpenses)
	sum.TotalDeductible = round2(sum.TotalDeductible)
	for k, v := range sum.ByCategory {
		sum.ByCategory[k] = round2(v)
	}
	return sum, nil
}

// Categories returns the summary's category names sorted, for stable
// rendering.
func (s *Summary) Categories() []string {
	keys := make([]string, 0, len(s.ByCategory))
	for k := range s.ByCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
