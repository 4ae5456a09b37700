package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openbasket/allocator/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerRepository handles database operations for accounts and deposits
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// GetAccount retrieves a ledger account by owner
func (r *LedgerRepository) GetAccount(ctx context.Context, ownerID int64) (*models.LedgerAccount, error) {
	query := `
		SELECT owner_id, total_deposited, available, pending, invested, created, updated
		FROM ledger_account
		WHERE owner_id = $1
	`
	a := &models.LedgerAccount{}
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&a.OwnerID, &a.TotalDeposited, &a.Available, &a.Pending, &a.Invested, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// CreditDeposit appends a deposit record and credits the account
func (r *LedgerRepository) CreditDeposit(ctx context.Context, rec *models.DepositRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := creditDepositTx(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreditDeposits applies all deposit records in one transaction
func (r *LedgerRepository) CreditDeposits(ctx context.Context, recs []*models.DepositRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, rec := range recs {
		if err := creditDepositTx(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func creditDepositTx(ctx context.Context, tx pgx.Tx, rec *models.DepositRecord) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO deposit_record (owner_id, amount, deposit_type, created)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created
	`, rec.OwnerID, rec.Amount, rec.DepositType).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}

	// Lazily creates the account on first deposit.
	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_account (owner_id, total_deposited, available, pending, invested, created, updated)
		VALUES ($1, $2, $2, 0, 0, NOW(), NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			total_deposited = ledger_account.total_deposited + EXCLUDED.total_deposited,
			available = ledger_account.available + EXCLUDED.available,
			updated = NOW()
	`, rec.OwnerID, rec.Amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	return nil
}

// Reserve moves amount available -> pending.
// The balance guard lives in the WHERE clause so an overdraw can never be
// partially applied.
func (r *LedgerRepository) Reserve(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE ledger_account
		SET available = available - $2, pending = pending + $2, updated = NOW()
		WHERE owner_id = $1 AND available >= $2
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("failed to reserve: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetAccount(ctx, ownerID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

// Commit moves amount pending -> invested
func (r *LedgerRepository) Commit(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE ledger_account
		SET pending = pending - $2, invested = invested + $2, updated = NOW()
		WHERE owner_id = $1 AND pending >= $2
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetAccount(ctx, ownerID); err != nil {
			return err
		}
		return ErrInsufficientPending
	}
	return nil
}

// Refund moves amount pending -> available
func (r *LedgerRepository) Refund(ctx context.Context, ownerID int64, amount decimal.Decimal) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE ledger_account
		SET pending = pending - $2, available = available + $2, updated = NOW()
		WHERE owner_id = $1 AND pending >= $2
	`, ownerID, amount)
	if err != nil {
		return fmt.Errorf("failed to refund: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetAccount(ctx, ownerID); err != nil {
			return err
		}
		return ErrInsufficientPending
	}
	return nil
}

// ListDeposits retrieves an owner's deposit history in insertion order
func (r *LedgerRepository) ListDeposits(ctx context.Context, ownerID int64) ([]models.DepositRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, amount, deposit_type, created
		FROM deposit_record
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.DepositRecord
	for rows.Next() {
		var d models.DepositRecord
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Amount, &d.DepositType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}
