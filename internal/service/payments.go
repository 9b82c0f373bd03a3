package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/events"
	"github.com/pieterjm/lnbits/internal/repository"
)

// PaymentService applies incoming payments to wallet balances and spreads
// the news: live listeners get the serialized event through the registry,
// and withdraw services holding a balance-notify subscription get their
// URL pinged so they can poll the new withdrawable balance.
type PaymentService struct {
	store      repository.Store
	registry   *events.Registry
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPaymentService(
	store repository.Store,
	registry *events.Registry,
	notifyTimeout time.Duration,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		store:      store,
		registry:   registry,
		httpClient: &http.Client{Timeout: notifyTimeout},
		logger:     logger,
	}
}

// Receive credits the wallet, fans the payment event out to the wallet's
// listeners, and pings balance-notify subscribers in the background. The
// credit is the only step whose failure is surfaced; everything after it is
// best-effort.
func (s *PaymentService) Receive(ctx context.Context, walletID string, amountMsat int64, memo string) (*domain.Wallet, error) {
	if err := s.store.CreditWallet(ctx, walletID, amountMsat); err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	wallet, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("reload wallet: %w", err)
	}

	event := domain.PaymentEvent{
		Type:       "payment-received",
		WalletID:   walletID,
		AmountMsat: amountMsat,
		Memo:       memo,
		CreatedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		// Listeners miss one event; the balance is already correct.
		s.logger.Error("failed to serialize payment event", zap.Error(err))
	} else {
		s.registry.Dispatch(walletID, string(payload))
	}

	go s.pingBalanceNotify(walletID)

	return wallet, nil
}

// pingBalanceNotify GETs every balance-notify URL registered for the
// wallet. Failures are logged and dropped: the subscriber will catch up on
// the next balance change or its own polling.
func (s *PaymentService) pingBalanceNotify(walletID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
	defer cancel()

	checks, err := s.store.BalanceChecksForWallet(ctx, walletID)
	if err != nil {
		s.logger.Warn("balance check listing failed",
			zap.String("wallet_id", walletID), zap.Error(err))
		return
	}

	for _, bc := range checks {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.URL, nil)
		if err != nil {
			s.logger.Debug("bad balance-notify URL",
				zap.String("service", bc.Service), zap.Error(err))
			continue
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.logger.Debug("balance-notify ping failed",
				zap.String("service", bc.Service), zap.Error(err))
			continue
		}
		resp.Body.Close()
	}
}
