package lnurl

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/provider"
	"github.com/pieterjm/lnbits/internal/repository"
)

// Scheduler is the delayed-redemption collaborator the Notify step hands
// off to. Implemented by redeem.Scheduler.
type Scheduler interface {
	Schedule(walletID, withdrawURL, description string, tags map[string]string, delay int)
}

// WithdrawService drives the LNURL-withdraw protocol: the session request,
// the signed callback, and the proactive balance-notify trigger. All
// protocol failures come back as {status:"ERROR", reason} values; nothing
// here surfaces an error to the transport.
type WithdrawService struct {
	store     repository.Store
	payer     provider.Payer
	scheduler Scheduler
	baseURL   string
	siteTitle string
	minMsat   int64
	logger    *zap.Logger

	onSession  func()
	onCallback func(ok bool)
}

func NewWithdrawService(
	store repository.Store,
	payer provider.Payer,
	scheduler Scheduler,
	baseURL, siteTitle string,
	minWithdrawableMsat int64,
	logger *zap.Logger,
) *WithdrawService {
	return &WithdrawService{
		store:      store,
		payer:      payer,
		scheduler:  scheduler,
		baseURL:    baseURL,
		siteTitle:  siteTitle,
		minMsat:    minWithdrawableMsat,
		logger:     logger,
		onSession:  func() {},
		onCallback: func(bool) {},
	}
}

// SetHooks installs metric callbacks. Must be called before the service is
// shared.
func (s *WithdrawService) SetHooks(onSession func(), onCallback func(ok bool)) {
	if onSession != nil {
		s.onSession = onSession
	}
	if onCallback != nil {
		s.onCallback = onCallback
	}
}

// resolveWallet runs the shared validation chain. First failure wins:
// usr present -> user exists -> wal present -> wallet exists under user.
func (s *WithdrawService) resolveWallet(ctx context.Context, usr, wal string) (*domain.Wallet, *domain.LNURLResponse) {
	if usr == "" {
		return nil, errResponse(domain.ReasonUsrMissing)
	}
	user, err := s.store.GetUser(ctx, usr)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error("user lookup failed", zap.String("user_id", usr), zap.Error(err))
		}
		return nil, errResponse(domain.ReasonUserNotFound)
	}
	if wal == "" {
		return nil, errResponse(domain.ReasonWalMissing)
	}
	wallet := user.Wallet(wal)
	if wallet == nil {
		return nil, errResponse(domain.ReasonWalletMissing)
	}
	return wallet, nil
}

// Session builds the withdrawRequest capability advertisement for the
// wallet's current withdrawable balance. Parameters are derived fresh on
// every call and never persisted.
func (s *WithdrawService) Session(ctx context.Context, usr, wal string) (*domain.WithdrawSession, *domain.LNURLResponse) {
	wallet, errResp := s.resolveWallet(ctx, usr, wal)
	if errResp != nil {
		return nil, errResp
	}

	withdrawable := wallet.WithdrawableMsat()
	min := s.minMsat
	if withdrawable == 0 {
		min = 0
	}

	s.onSession()
	return &domain.WithdrawSession{
		Tag:      "withdrawRequest",
		Callback: s.urlFor("/withdraw/cb", usr, wal),
		// k1 is a static literal, not a per-session nonce. Deployed
		// balance-check services pin this exact shape, so changing it
		// breaks them; known weak point.
		K1:                 "0",
		MinWithdrawable:    min,
		MaxWithdrawable:    withdrawable,
		DefaultDescription: fmt.Sprintf("%s balance withdraw from %s", s.siteTitle, shortID(wallet.ID)),
		BalanceCheck:       s.urlFor("/withdraw", usr, wal),
	}, nil
}

// Callback consumes the withdraw callback: it validates, hands the payment
// request to the payer as a fire-and-forget background task, and persists
// the balance-notify subscription if one was offered. Submission, not
// settlement, is the success condition: the OK response never waits on the
// payment outcome.
func (s *WithdrawService) Callback(ctx context.Context, usr, wal, pr, balanceNotify string) domain.LNURLResponse {
	wallet, errResp := s.resolveWallet(ctx, usr, wal)
	if errResp != nil {
		s.onCallback(false)
		return *errResp
	}
	if pr == "" {
		s.onCallback(false)
		return domain.LNURLError(domain.ReasonPrMissing)
	}

	walletID := wallet.ID
	go func() {
		// Detached from the request context: the caller's response
		// must not be tied to submission, and submission must outlive
		// the request.
		if err := s.payer.PayInvoice(context.Background(), walletID, pr); err != nil {
			s.logger.Debug("background withdraw payment failed",
				zap.String("wallet_id", walletID), zap.Error(err))
		}
	}()

	if balanceNotify != "" {
		s.saveSubscription(ctx, walletID, balanceNotify)
	}

	s.onCallback(true)
	return domain.LNURLOk()
}

func (s *WithdrawService) saveSubscription(ctx context.Context, walletID, notifyURL string) {
	service, err := domain.ServiceKey(notifyURL)
	if err != nil {
		// The withdraw itself already succeeded; a bad notify URL only
		// costs the service its recurring subscription.
		s.logger.Warn("ignoring unparsable balanceNotify URL",
			zap.String("wallet_id", walletID), zap.String("url", notifyURL))
		return
	}
	if err := s.store.SaveBalanceCheck(ctx, walletID, service, notifyURL); err != nil {
		s.logger.Error("failed to save balance check",
			zap.String("wallet_id", walletID), zap.String("service", service), zap.Error(err))
	}
}

// Notify is the proactive recurring trigger: if a subscription exists for
// (wal, service), the stored withdraw URL is scheduled for immediate
// redemption. An unknown subscription is a silent no-op.
func (s *WithdrawService) Notify(ctx context.Context, service, wal string) error {
	bc, err := s.store.GetBalanceCheck(ctx, wal, service)
	if err != nil {
		return fmt.Errorf("balance check lookup: %w", err)
	}
	if bc == nil {
		return nil
	}
	s.scheduler.Schedule(bc.WalletID, bc.URL, "", nil, 0)
	return nil
}

func (s *WithdrawService) urlFor(path, usr, wal string) string {
	q := url.Values{}
	q.Set("usr", usr)
	q.Set("wal", wal)
	return s.baseURL + path + "?" + q.Encode()
}

func shortID(id string) string {
	if len(id) > 5 {
		return id[:5]
	}
	return id
}

func errResponse(reason string) *domain.LNURLResponse {
	r := domain.LNURLError(reason)
	return &r
}
