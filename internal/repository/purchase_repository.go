package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
)

// DefaultFreeLikes is granted when a balance row is created on first access.
const DefaultFreeLikes = 10

type PurchaseRepository interface {
	GetByToken(ctx context.Context, purchaseToken string, userID string) (*model.Purchase, error)
	MarkPaid(ctx context.Context, purchaseID string) (bool, error)
	CreditLikes(ctx context.Context, userID string, amount int64) (int64, error)
	GetBalance(ctx context.Context, userID string) (*model.LikeBalance, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
}

type SQLPurchaseRepository struct {
	db *sqlx.DB
}

func NewPurchaseRepository(db *sqlx.DB) PurchaseRepository {
	return &SQLPurchaseRepository{
		db: db,
	}
}

func (r *SQLPurchaseRepository) GetByToken(ctx context.Context, purchaseToken string, userID string) (*model.Purchase, error) {
	var purchase model.Purchase

	query := `SELECT * FROM like_purchases WHERE purchase_token = ? AND user_id = ?`

	err := r.db.GetContext(ctx, &purchase, query, purchaseToken, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &purchase, nil
}

// MarkPaid flips a purchase from pending to paid. The status predicate makes
// this a compare-and-set: of two concurrent verifications for the same token
// exactly one sees a row affected.
func (r *SQLPurchaseRepository) MarkPaid(ctx context.Context, purchaseID string) (bool, error) {
	query := `
		UPDATE like_purchases
		SET status = 'paid', verified_at = NOW(), updated_at = NOW()
		WHERE id = ? AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, purchaseID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// CreditLikes increments balance and total_purchased in a single database
// transaction. The increment happens server-side, so concurrent credits for
// the same user cannot lose updates. Returns the balance after the credit.
func (r *SQLPurchaseRepository) CreditLikes(ctx context.Context, userID string, amount int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}

	// Free credits count toward total_purchased so the balance always equals
	// total_purchased - total_used.
	ensureQuery := `
		INSERT INTO like_balances (user_id, balance, total_purchased, total_used, created_at, updated_at)
		VALUES (?, ?, ?, 0, NOW(), NOW())
		ON DUPLICATE KEY UPDATE user_id = user_id
	`

	_, err = tx.ExecContext(ctx, ensureQuery, userID, DefaultFreeLikes, DefaultFreeLikes)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	creditQuery := `
		UPDATE like_balances
		SET balance = balance + ?, total_purchased = total_purchased + ?, updated_at = NOW()
		WHERE user_id = ?
	`

	_, err = tx.ExecContext(ctx, creditQuery, amount, amount, userID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	var balance int64
	balanceQuery := `SELECT balance FROM like_balances WHERE user_id = ?`
	if err := tx.GetContext(ctx, &balance, balanceQuery, userID); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *SQLPurchaseRepository) GetBalance(ctx context.Context, userID string) (*model.LikeBalance, error) {
	var balance model.LikeBalance

	query := `SELECT * FROM like_balances WHERE user_id = ?`

	err := r.db.GetContext(ctx, &balance, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Balances are created lazily; an absent row reads as the
			// free-credit default without writing anything.
			return &model.LikeBalance{
				UserID:         userID,
				Balance:        DefaultFreeLikes,
				TotalPurchased: DefaultFreeLikes,
			}, nil
		}
		return nil, err
	}

	return &balance, nil
}

func (r *SQLPurchaseRepository) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	txn.CreatedAt = time.Now()

	query := `
		INSERT INTO like_transactions (
			id, user_id, transaction_type, amount, currency,
			status, reference_id, metadata, created_at
		) VALUES (
			:id, :user_id, :transaction_type, :amount, :currency,
			:status, :reference_id, :metadata, :created_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, txn)
	return err
}
