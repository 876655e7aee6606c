package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/platform/logger"
	"github.com/phrazzld/sheepify-api/internal/store"
)

// PostgresLedgerStore implements the store.LedgerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLedgerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLedgerStore creates a new PostgreSQL implementation of the LedgerStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLedgerStore(db store.DBTX, logger *slog.Logger) *PostgresLedgerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLedgerStore{
		db:     db,
		logger: logger.With(slog.String("component", "ledger_store")),
	}
}

// Ensure PostgresLedgerStore implements store.LedgerStore interface
var _ store.LedgerStore = (*PostgresLedgerStore)(nil)

// Apply implements store.LedgerStore.Apply
func (s *PostgresLedgerStore) Apply(
	ctx context.Context,
	accountID uuid.UUID,
	delta int64,
	source domain.LedgerSource,
	referenceID string,
) (*domain.LedgerEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("account_id", accountID.String()),
		slog.Int64("delta", delta),
		slog.String("source", string(source)),
	)

	entry, err := domain.NewLedgerEntry(accountID, delta, 0, source, referenceID)
	if err != nil {
		return nil, err
	}

	// One statement: the guard, the balance write and the entry insert all
	// run under the account row lock, so concurrent changes to one account
	// get seq and created_at in the order their balances were written.
	err = s.db.QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE accounts
			SET balance = balance + $2, updated_at = NOW()
			WHERE id = $1 AND balance + $2 >= 0
			RETURNING id, balance
		)
		INSERT INTO ledger_entries (id, account_id, delta, balance_after, source, reference_id, created_at)
		SELECT $3::uuid, updated.id, $2::bigint, updated.balance, $4::text, $5::text, clock_timestamp()
		FROM updated
		RETURNING balance_after, created_at
	`, accountID, delta, entry.ID, string(entry.Source), entry.ReferenceID).Scan(&entry.BalanceAfter, &entry.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to apply ledger entry", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		return nil, s.explainRefusal(ctx, log, accountID, delta)
	}

	log.Info("ledger entry applied",
		slog.String("entry_id", entry.ID.String()),
		slog.Int64("balance_after", entry.BalanceAfter))
	return entry, nil
}

// explainRefusal distinguishes a missing account from an overdraft after the
// guarded update matched no row.
func (s *PostgresLedgerStore) explainRefusal(
	ctx context.Context,
	log *slog.Logger,
	accountID uuid.UUID,
	delta int64,
) error {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("account not found for ledger entry")
			return store.ErrAccountNotFound
		}
		log.Error("failed to read balance after refused change", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("ledger entry refused: insufficient funds", slog.Int64("balance", balance))
	return &domain.InsufficientFundsError{Balance: balance, Requested: -delta}
}

// ListEntries implements store.LedgerStore.ListEntries
func (s *PostgresLedgerStore) ListEntries(
	ctx context.Context,
	accountID uuid.UUID,
	limit int,
) ([]domain.LedgerEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, delta, balance_after, source, reference_id, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		log.Error("failed to query ledger entries",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var entry domain.LedgerEntry
		var source string
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Delta,
			&entry.BalanceAfter,
			&source,
			&entry.ReferenceID,
			&entry.CreatedAt,
		); err != nil {
			log.Error("failed to scan ledger entry", slog.String("error", err.Error()))
			return nil, err
		}
		entry.Source = domain.LedgerSource(source)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning ledger entries", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

// WithTx implements store.LedgerStore.WithTx
func (s *PostgresLedgerStore) WithTx(tx *sql.Tx) store.LedgerStore {
	return &PostgresLedgerStore{db: tx, logger: s.logger}
}
