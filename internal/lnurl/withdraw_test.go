package lnurl_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/lnurl"
	"github.com/pieterjm/lnbits/internal/repository"
)

// blockingPayer lets tests prove the callback response does not wait on
// payment submission.
type blockingPayer struct {
	mu      sync.Mutex
	calls   []string
	err     error
	started chan struct{}
	release chan struct{}
}

func newBlockingPayer(err error) *blockingPayer {
	return &blockingPayer{
		err:     err,
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (p *blockingPayer) PayInvoice(_ context.Context, walletID, pr string) error {
	p.mu.Lock()
	p.calls = append(p.calls, walletID+"/"+pr)
	p.mu.Unlock()
	p.started <- struct{}{}
	<-p.release
	return p.err
}

func (p *blockingPayer) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduledCall
}

type scheduledCall struct {
	walletID string
	url      string
	delay    int
}

func (r *recordingScheduler) Schedule(walletID, withdrawURL, description string, tags map[string]string, delay int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, scheduledCall{walletID, withdrawURL, delay})
}

func (r *recordingScheduler) scheduled() []scheduledCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scheduledCall(nil), r.calls...)
}

type fixture struct {
	svc       *lnurl.WithdrawService
	store     *repository.MockStore
	payer     *blockingPayer
	scheduler *recordingScheduler
	user      *domain.User
	wallet    *domain.Wallet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMockStore()
	payer := newBlockingPayer(nil)
	scheduler := &recordingScheduler{}

	user, err := store.CreateAccount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	wallet, err := store.CreateWallet(context.Background(), user.ID, "main")
	if err != nil {
		t.Fatal(err)
	}

	svc := lnurl.NewWithdrawService(
		store, payer, scheduler,
		"https://ln.example", "LNbits", 1000,
		zap.NewNop(),
	)
	t.Cleanup(func() { close(payer.release) })
	return &fixture{svc: svc, store: store, payer: payer, scheduler: scheduler, user: user, wallet: wallet}
}

func TestWithdrawService_SessionValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		usr    string
		wal    string
		reason string
	}{
		{"missing usr", "", f.wallet.ID, domain.ReasonUsrMissing},
		{"unknown usr checked before wal", "nobody", "", domain.ReasonUserNotFound},
		{"missing wal after usr resolves", f.user.ID, "", domain.ReasonWalMissing},
		{"unknown wal", f.user.ID, "other-wallet", domain.ReasonWalletMissing},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session, errResp := f.svc.Session(ctx, tc.usr, tc.wal)
			if session != nil {
				t.Fatal("expected no session on validation failure")
			}
			if errResp == nil || errResp.Status != "ERROR" {
				t.Fatalf("expected ERROR response, got %+v", errResp)
			}
			if errResp.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, errResp.Reason)
			}
		})
	}
}

func TestWithdrawService_SessionAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.SetBalance(f.wallet.ID, 5000)
	session, errResp := f.svc.Session(ctx, f.user.ID, f.wallet.ID)
	if errResp != nil {
		t.Fatalf("unexpected error: %+v", errResp)
	}
	if session.MinWithdrawable != 1000 || session.MaxWithdrawable != 5000 {
		t.Fatalf("balance 5000: got min=%d max=%d", session.MinWithdrawable, session.MaxWithdrawable)
	}

	empty, err := f.store.CreateWallet(ctx, f.user.ID, "empty")
	if err != nil {
		t.Fatal(err)
	}
	session, errResp = f.svc.Session(ctx, f.user.ID, empty.ID)
	if errResp != nil {
		t.Fatalf("unexpected error: %+v", errResp)
	}
	if session.MinWithdrawable != 0 || session.MaxWithdrawable != 0 {
		t.Fatalf("balance 0: got min=%d max=%d", session.MinWithdrawable, session.MaxWithdrawable)
	}
}

func TestWithdrawService_SessionShape(t *testing.T) {
	f := newFixture(t)

	f.store.SetBalance(f.wallet.ID, 5000)
	session, errResp := f.svc.Session(context.Background(), f.user.ID, f.wallet.ID)
	if errResp != nil {
		t.Fatalf("unexpected error: %+v", errResp)
	}

	if session.Tag != "withdrawRequest" {
		t.Fatalf("unexpected tag %q", session.Tag)
	}
	if session.K1 != "0" {
		t.Fatalf("k1 must stay the literal \"0\", got %q", session.K1)
	}
	if !strings.Contains(session.Callback, "/withdraw/cb?") ||
		!strings.Contains(session.Callback, "usr="+f.user.ID) ||
		!strings.Contains(session.Callback, "wal="+f.wallet.ID) {
		t.Fatalf("callback URL malformed: %s", session.Callback)
	}
	if !strings.Contains(session.BalanceCheck, "/withdraw?") {
		t.Fatalf("balanceCheck URL malformed: %s", session.BalanceCheck)
	}
	wantDesc := "LNbits balance withdraw from " + f.wallet.ID[:5]
	if session.DefaultDescription != wantDesc {
		t.Fatalf("expected description %q, got %q", wantDesc, session.DefaultDescription)
	}
}

// TestWithdrawService_CallbackReturnsOKImmediately proves the OK response
// does not depend on payment submission or settlement: the payer is still
// blocked when the callback returns.
func TestWithdrawService_CallbackReturnsOKImmediately(t *testing.T) {
	f := newFixture(t)

	resp := f.svc.Callback(context.Background(), f.user.ID, f.wallet.ID, "lnbc1invoice", "")
	if resp.Status != "OK" {
		t.Fatalf("expected OK, got %+v", resp)
	}

	// The background payment was handed off but has not completed.
	select {
	case <-f.payer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("payment was never submitted")
	}
	if n := f.payer.callCount(); n != 1 {
		t.Fatalf("expected exactly 1 submission, got %d", n)
	}
}

// TestWithdrawService_CallbackOKWhenPayerFails proves a failing payer does
// not change the response: submission is the success condition.
func TestWithdrawService_CallbackOKWhenPayerFails(t *testing.T) {
	f := newFixture(t)
	f.payer.err = errors.New("no route")

	resp := f.svc.Callback(context.Background(), f.user.ID, f.wallet.ID, "lnbc1invoice", "")
	if resp.Status != "OK" {
		t.Fatalf("expected OK despite payer failure, got %+v", resp)
	}
}

func TestWithdrawService_CallbackValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.svc.Callback(ctx, f.user.ID, f.wallet.ID, "", "")
	if resp.Status != "ERROR" || resp.Reason != domain.ReasonPrMissing {
		t.Fatalf("expected missing-pr error, got %+v", resp)
	}
	if n := f.payer.callCount(); n != 0 {
		t.Fatalf("payer must not be invoked on validation failure, got %d calls", n)
	}
}

func TestWithdrawService_CallbackStoresBalanceNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notifyURL := "https://svc.example/withdraw/notify/abc?wal=" + f.wallet.ID
	resp := f.svc.Callback(ctx, f.user.ID, f.wallet.ID, "lnbc1invoice", notifyURL)
	if resp.Status != "OK" {
		t.Fatalf("expected OK, got %+v", resp)
	}

	bc, err := f.store.GetBalanceCheck(ctx, f.wallet.ID, "svc.example")
	if err != nil {
		t.Fatal(err)
	}
	if bc == nil || bc.URL != notifyURL {
		t.Fatalf("subscription not stored, got %+v", bc)
	}
}

func TestWithdrawService_CallbackOverwritesSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := "https://svc.example/notify/one"
	second := "https://svc.example/notify/two"
	f.svc.Callback(ctx, f.user.ID, f.wallet.ID, "lnbc1a", first)
	f.svc.Callback(ctx, f.user.ID, f.wallet.ID, "lnbc1b", second)

	bc, err := f.store.GetBalanceCheck(ctx, f.wallet.ID, "svc.example")
	if err != nil {
		t.Fatal(err)
	}
	if bc == nil || bc.URL != second {
		t.Fatalf("expected newest URL %q, got %+v", second, bc)
	}
}

func TestWithdrawService_NotifyTriggersRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notifyURL := "https://svc.example/withdraw/notify/abc"
	f.svc.Callback(ctx, f.user.ID, f.wallet.ID, "lnbc1invoice", notifyURL)

	if err := f.svc.Notify(ctx, "svc.example", f.wallet.ID); err != nil {
		t.Fatal(err)
	}

	calls := f.scheduler.scheduled()
	if len(calls) != 1 {
		t.Fatalf("expected 1 scheduled redemption, got %d", len(calls))
	}
	if calls[0].walletID != f.wallet.ID || calls[0].url != notifyURL || calls[0].delay != 0 {
		t.Fatalf("unexpected schedule %+v", calls[0])
	}
}

// TestWithdrawService_NotifyUnknownIsSilentNoop: an absent subscription is
// an expected condition, not an error, and schedules nothing.
func TestWithdrawService_NotifyUnknownIsSilentNoop(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Notify(context.Background(), "never-seen.example", f.wallet.ID); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if calls := f.scheduler.scheduled(); len(calls) != 0 {
		t.Fatalf("expected nothing scheduled, got %d", len(calls))
	}
}
