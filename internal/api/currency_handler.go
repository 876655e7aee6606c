package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/sheepify-api/internal/api/shared"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/service"
)

const (
	// DefaultTransactionsLimit is the number of ledger entries listed when no
	// limit is given.
	DefaultTransactionsLimit = 20

	// MaxTransactionsLimit bounds the limit query parameter of Transactions.
	MaxTransactionsLimit = 100
)

// CurrencyHandler exposes balances, the ledger and spending.
type CurrencyHandler struct {
	currency service.CurrencyService
	logger   *slog.Logger
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currency service.CurrencyService, logger *slog.Logger) *CurrencyHandler {
	if currency == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("currency service cannot be nil for CurrencyHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CurrencyHandler{
		currency: currency,
		logger:   logger.With(slog.String("component", "currency_handler")),
	}
}

// Balance handles GET /currency/balance.
func (h *CurrencyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.currency.Balance(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load balance")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Collect handles POST /currency/collect, crediting one hour of passive
// income on demand.
func (h *CurrencyHandler) Collect(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.currency.Collect(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to collect currency")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Transactions handles GET /currency/transactions?limit=.
func (h *CurrencyHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	limit, err := getQueryInt(r, "limit", DefaultTransactionsLimit, 1, MaxTransactionsLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entries, err := h.currency.Transactions(r.Context(), accountID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list transactions")
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TransactionsResponse{Transactions: entries})
}

// Purchase handles POST /currency/purchase. An unaffordable purchase is
// answered with 402 and leaves the balance untouched.
func (h *CurrencyHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	accountID, ok := requireAccountID(w, r, h.logger)
	if !ok {
		return
	}

	var req PurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	balance, err := h.currency.Purchase(r.Context(), accountID, req.ItemID, req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete purchase")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("purchase completed",
		slog.String("item_id", req.ItemID),
		slog.Int64("amount", req.Amount))
	shared.RespondWithJSON(w, r, http.StatusOK, PurchaseResponse{ItemID: req.ItemID, Balance: balance})
}
