package repository

import (
	"context"
	"errors"
	"fmt"

	"taste-match/internal/database"
	dbpostgres "taste-match/internal/database/postgres"

	"github.com/google/uuid"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAlreadyCharged means the match already has an unlock charge.
	ErrAlreadyCharged = errors.New("match already charged")
)

// Debit is a single charge against a user's balance tied to a match.
type Debit struct {
	UserID  uuid.UUID
	MatchID uuid.UUID
	Amount  int
	Reason  string
}

type WalletRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	// Debit joins the transaction carried by ctx when there is one.
	Debit(ctx context.Context, d Debit) error
}

type PostgresWallet struct {
	db database.DB
}

func NewPostgresWallet(db database.DB) *PostgresWallet {
	return &PostgresWallet{db: db}
}

func (w *PostgresWallet) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := database.Conn(ctx, w.db).QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1`,
		userID,
	).Scan(&balance)
	if err != nil {
		if dbpostgres.IsNoRows(err) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (w *PostgresWallet) Debit(ctx context.Context, d Debit) error {
	if d.Amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", d.Amount)
	}
	q := database.Conn(ctx, w.db)

	affected, err := q.Exec(ctx,
		`UPDATE users SET balance = balance - $2, updated_at = now()
		 WHERE id = $1 AND balance >= $2`,
		d.UserID, d.Amount,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := w.Balance(ctx, d.UserID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}

	_, err = q.Exec(ctx,
		`INSERT INTO transactions (id, user_id, match_id, amount, type)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), d.UserID, d.MatchID, d.Amount, d.Reason,
	)
	if dbpostgres.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrAlreadyCharged, d.MatchID)
	}
	return err
}
