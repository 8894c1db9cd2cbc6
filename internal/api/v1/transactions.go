package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

func (rr *Routes) transactionRoutes(r chi.Router) {
	r.Get("/", rr.listTransactions)
	r.Post("/sync", rr.syncTransactionsFull)
	r.Post("/sync/incremental", rr.syncTransactionsIncremental)
	r.Get("/sync/status", rr.syncStatus)
}

// listTransactions handles GET /api/v1/transactions?limit=&offset=
func (rr *Routes) listTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", defaultTransactionLimit)
	if limit < 1 || limit > maxTransactionLimit {
		rr.writeErrorResponse(w, "limit must be between 1 and 500", http.StatusBadRequest)
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		rr.writeErrorResponse(w, "offset must not be negative", http.StatusBadRequest)
		return
	}

	txns, err := rr.cfg.Transactions.ListByUser(r.Context(), id.UserID, limit, offset)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, txns)
}

// syncTransactionsFull handles POST /api/v1/transactions/sync
func (rr *Routes) syncTransactionsFull(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	result, err := rr.cfg.Engine.SyncFull(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, result)
}

// syncTransactionsIncremental handles POST /api/v1/transactions/sync/incremental
func (rr *Routes) syncTransactionsIncremental(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	result, err := rr.cfg.Engine.SyncIncremental(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, result)
}

// syncStatus handles GET /api/v1/transactions/sync/status
func (rr *Routes) syncStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	report, err := rr.cfg.SyncHealth.GetHealth(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, report)
}

// listAccounts handles GET /api/v1/accounts
func (rr *Routes) listAccounts(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.identity(w, r)
	if !ok {
		return
	}

	accounts, err := rr.cfg.Accounts.ListByUser(r.Context(), id.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, accounts)
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent. Malformed values surface as -1 so the caller's range
// check rejects them.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
