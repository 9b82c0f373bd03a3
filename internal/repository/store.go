package repository

import (
	"context"

	"github.com/pieterjm/lnbits/internal/domain"
)

// Store defines all persistence operations for accounts, wallets, and
// balance-check subscriptions. The pgx implementation is in pg_store.go.
// Tests use a hand-written in-memory mock (mock_store.go).
type Store interface {
	CreateAccount(ctx context.Context) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	CreateWallet(ctx context.Context, userID, name string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
	CreditWallet(ctx context.Context, walletID string, amountMsat int64) error
	DebitWallet(ctx context.Context, walletID string, amountMsat int64) error

	// SaveBalanceCheck upserts the subscription for (walletID, service);
	// a newer URL for the same pair overwrites the older one.
	SaveBalanceCheck(ctx context.Context, walletID, service, url string) error
	// GetBalanceCheck returns (nil, nil) when no subscription exists --
	// an absent subscription is an expected condition, not an error.
	GetBalanceCheck(ctx context.Context, walletID, service string) (*domain.BalanceCheck, error)
	BalanceChecksForWallet(ctx context.Context, walletID string) ([]domain.BalanceCheck, error)
}
