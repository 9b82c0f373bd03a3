package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pieterjm/lnbits/internal/domain"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by PostgreSQL.
func NewPgStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) CreateAccount(ctx context.Context) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, created_at) VALUES ($1, $2)`,
		u.ID, u.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return u, nil
}

func (s *pgStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at FROM accounts WHERE id = $1`, userID,
	).Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, balance_msat, deleted, created_at, updated_at
		FROM wallets WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("select wallets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.BalanceMsat,
			&w.Deleted, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		u.Wallets = append(u.Wallets, w)
	}
	return &u, rows.Err()
}

func (s *pgStore) CreateWallet(ctx context.Context, userID, name string) (*domain.Wallet, error) {
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallets (id, user_id, name, balance_msat, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, 0, FALSE, $4, $5)`,
		w.ID, w.UserID, w.Name, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}
	return w, nil
}

func (s *pgStore) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, balance_msat, deleted, created_at, updated_at
		FROM wallets WHERE id = $1 AND NOT deleted`, walletID,
	).Scan(&w.ID, &w.UserID, &w.Name, &w.BalanceMsat,
		&w.Deleted, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return &w, nil
}

func (s *pgStore) CreditWallet(ctx context.Context, walletID string, amountMsat int64) error {
	if amountMsat <= 0 {
		return domain.ErrInvalidAmount
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE wallets SET balance_msat = balance_msat + $1, updated_at = now()
		WHERE id = $2 AND NOT deleted`, amountMsat, walletID)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func (s *pgStore) DebitWallet(ctx context.Context, walletID string, amountMsat int64) error {
	if amountMsat <= 0 {
		return domain.ErrInvalidAmount
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE wallets SET balance_msat = balance_msat - $1, updated_at = now()
		WHERE id = $2 AND NOT deleted AND balance_msat >= $1`, amountMsat, walletID)
	if err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func (s *pgStore) SaveBalanceCheck(ctx context.Context, walletID, service, url string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO balance_check (wallet_id, service, url, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (wallet_id, service)
		DO UPDATE SET url = EXCLUDED.url, updated_at = now()`,
		walletID, service, url,
	)
	if err != nil {
		return fmt.Errorf("upsert balance check: %w", err)
	}
	return nil
}

func (s *pgStore) GetBalanceCheck(ctx context.Context, walletID, service string) (*domain.BalanceCheck, error) {
	var bc domain.BalanceCheck
	err := s.pool.QueryRow(ctx, `
		SELECT wallet_id, service, url, updated_at
		FROM balance_check WHERE wallet_id = $1 AND service = $2`,
		walletID, service,
	).Scan(&bc.WalletID, &bc.Service, &bc.URL, &bc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select balance check: %w", err)
	}
	return &bc, nil
}

func (s *pgStore) BalanceChecksForWallet(ctx context.Context, walletID string) ([]domain.BalanceCheck, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT wallet_id, service, url, updated_at
		FROM balance_check WHERE wallet_id = $1`, walletID)
	if err != nil {
		return nil, fmt.Errorf("select balance checks: %w", err)
	}
	defer rows.Close()

	var checks []domain.BalanceCheck
	for rows.Next() {
		var bc domain.BalanceCheck
		if err := rows.Scan(&bc.WalletID, &bc.Service, &bc.URL, &bc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance check: %w", err)
		}
		checks = append(checks, bc)
	}
	return checks, rows.Err()
}

// compile-time check
var _ Store = (*pgStore)(nil)
