package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/growvest/growvest_service/internal/domain/entities"
)

// WalletRepository handles wallet and transaction persistence. The stored
// balance columns are a snapshot; the transaction log is the source of truth
// and balances are re-derived from it on every read.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// RefreshSnapshot replays the transaction log under the wallet row lock,
// persists the derived snapshot and returns it together with the log, newest
// first. The row lock serializes the read with concurrent credits and
// withdrawal reservations, so a stale derivation can never overwrite a
// snapshot that moved after the log was listed. The wallet is created on
// first touch; the unique index on user_id makes concurrent first touches
// converge on a single row.
func (r *WalletRepository) RefreshSnapshot(ctx context.Context, userID uuid.UUID) (entities.Balances, []entities.Transaction, error) {
	var balances entities.Balances

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return balances, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return balances, nil, err
	}

	list := `
		SELECT id, wallet_id, kind, amount, status, plan_id, withdrawal_id, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
	`
	transactions := []entities.Transaction{}
	if err := tx.SelectContext(ctx, &transactions, list, wallet.ID); err != nil {
		return balances, nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	balances = entities.DeriveBalances(transactions)

	update := `
		UPDATE wallets
		SET total_earnings = $1, balance = $2, withdrawable = $3, updated_at = $4
		WHERE id = $5
	`
	_, err = tx.ExecContext(ctx, update,
		balances.TotalEarnings,
		balances.Balance,
		balances.Withdrawable,
		time.Now(),
		wallet.ID,
	)
	if err != nil {
		return balances, nil, fmt.Errorf("failed to update wallet snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return balances, nil, fmt.Errorf("failed to commit snapshot refresh: %w", err)
	}

	return balances, transactions, nil
}

// lockWallet takes the row lock on the user's wallet, creating an empty one
// on first touch so no credit or read ever depends on the user having opened
// their wallet before.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*entities.Wallet, error) {
	upsert := `
		INSERT INTO wallets (id, user_id, total_earnings, balance, withdrawable, created_at, updated_at)
		VALUES ($1, $2, 0, 0, 0, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, upsert, uuid.New(), userID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	lock := `
		SELECT id, user_id, total_earnings, balance, withdrawable, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`
	var wallet entities.Wallet
	if err := tx.GetContext(ctx, &wallet, lock, userID); err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	return &wallet, nil
}

// CreditInTx applies a completed credit inside an existing transaction. The
// wallet row is locked so concurrent credits serialize, and the snapshot
// columns move together with the inserted transaction row. Earning and
// referral kinds credit total earnings too; refunds only restore spendable
// balance.
func CreditInTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txn *entities.Transaction) error {
	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.WalletID = wallet.ID
	txn.Status = entities.TransactionStatusCompleted
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}

	insert := `
		INSERT INTO wallet_transactions (id, wallet_id, kind, amount, status, plan_id, withdrawal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, insert,
		txn.ID, txn.WalletID, txn.Kind, txn.Amount, txn.Status, txn.PlanID, txn.WithdrawalID, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	var update string
	if txn.Kind.IsEarningKind() {
		update = `
			UPDATE wallets
			SET total_earnings = total_earnings + $1,
				balance = balance + $1,
				withdrawable = withdrawable + $1,
				updated_at = $2
			WHERE id = $3
		`
	} else {
		update = `
			UPDATE wallets
			SET balance = balance + $1,
				withdrawable = withdrawable + $1,
				updated_at = $2
			WHERE id = $3
		`
	}
	if _, err := tx.ExecContext(ctx, update, txn.Amount, time.Now(), wallet.ID); err != nil {
		return fmt.Errorf("failed to update wallet snapshot: %w", err)
	}

	return nil
}
