package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/repository"
)

// AccountService creates accounts and their wallets. It exists mainly for
// the voucher-funded onboarding flow, where a brand-new user and wallet are
// minted in one step.
type AccountService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewAccountService(store repository.Store, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, logger: logger}
}

// CreateUserWithWallet mints a fresh account and one wallet under it.
func (s *AccountService) CreateUserWithWallet(ctx context.Context, walletName string) (*domain.User, *domain.Wallet, error) {
	user, err := s.store.CreateAccount(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create account: %w", err)
	}
	wallet, err := s.store.CreateWallet(ctx, user.ID, walletName)
	if err != nil {
		return nil, nil, fmt.Errorf("create wallet: %w", err)
	}
	s.logger.Info("account created",
		zap.String("user_id", user.ID), zap.String("wallet_id", wallet.ID))
	return user, wallet, nil
}
