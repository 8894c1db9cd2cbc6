package sync

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SandboxClient serves deterministic sample data for development and
// demo deployments. The data is a pure function of user ID and provider
// ID, so repeated syncs are stable and idempotent upserts converge.
type SandboxClient struct {
	providerID string
	now        func() time.Time
}

// NewSandboxClient creates a sandbox client posing as providerID.
func NewSandboxClient(providerID string) *SandboxClient {
	return &SandboxClient{providerID: providerID, now: time.Now}
}

func (c *SandboxClient) ProviderID() string {
	return c.providerID
}

var sandboxAccountTypes = []string{"checking", "savings", "credit"}

// FetchAccounts returns two or three stable accounts per user.
func (c *SandboxClient) FetchAccounts(_ context.Context, userID uuid.UUID) ([]Account, error) {
	seed := c.seed(userID)
	count := 2 + int(seed%2)

	accounts := make([]Account, 0, count)
	for i := 0; i < count; i++ {
		accounts = append(accounts, Account{
			ExternalID: fmt.Sprintf("%s-acct-%d", c.providerID, i),
			Name:       fmt.Sprintf("Sandbox %s", sandboxAccountTypes[i%len(sandboxAccountTypes)]),
			Type:       sandboxAccountTypes[i%len(sandboxAccountTypes)],
			Currency:   "USD",
			Balance:    float64((seed+uint64(i)*137)%500000) / 100,
		})
	}
	return accounts, nil
}

var sandboxMerchants = []struct {
	name       string
	category   string
	deductible bool
}{
	{"Corner Grocery", "groceries", false},
	{"City Transit", "transport", false},
	{"Cloud Hosting Co", "software", true},
	{"Lunch Spot", "dining", false},
	{"Office Supply Hub", "office", true},
	{"Stream Max", "entertainment", false},
}

// FetchTransactions pages through 25 stable transactions per user. The
// cursor is the numeric offset into that feed.
func (c *SandboxClient) FetchTransactions(_ context.Context, userID uuid.UUID, cursor string, pageSize int) (*TransactionPage, error) {
	const feedSize = 25

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid sandbox cursor %q", cursor)
		}
		offset = n
	}
	if pageSize <= 0 {
		pageSize = feedSize
	}

	seed := c.seed(userID)
	end := offset + pageSize
	if end > feedSize {
		end = feedSize
	}

	txns := make([]Transaction, 0, end-offset)
	for i := offset; i < end; i++ {
		m := sandboxMerchants[(seed+uint64(i))%uint64(len(sandboxMerchants))]
		txns = append(txns, Transaction{
			ExternalAccountID: fmt.Sprintf("%s-acct-%d", c.providerID, i%2),
			ExternalID:        fmt.Sprintf("%s-txn-%d", c.providerID, i),
			PostedAt:          c.now().UTC().AddDate(0, 0, -i),
			Amount:            -float64((seed+uint64(i)*31)%20000) / 100,
			Currency:          "USD",
			Merchant:          m.name,
			Category:          m.category,
			Deductible:        m.deductible,
		})
	}

	return &TransactionPage{
		Transactions: txns,
		NextCursor:   strconv.Itoa(end),
		HasMore:      end < feedSize,
	}, nil
}

func (c *SandboxClient) seed(userID uuid.UUID) uint64 {
	h := fnv.New64a()
	h.Write(userID[:])
	h.Write([]byte(c.providerID))
	return h.Sum64()
}
