package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pieterjm/lnbits/internal/domain"
)

type bcKey struct {
	walletID string
	service  string
}

// MockStore is an in-memory Store used by unit tests. Safe for concurrent
// use.
type MockStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	wallets  map[string]*domain.Wallet
	balances map[bcKey]domain.BalanceCheck
}

func NewMockStore() *MockStore {
	return &MockStore{
		users:    make(map[string]*domain.User),
		wallets:  make(map[string]*domain.Wallet),
		balances: make(map[bcKey]domain.BalanceCheck),
	}
}

func (m *MockStore) CreateAccount(_ context.Context) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	return &domain.User{ID: u.ID, CreatedAt: u.CreatedAt}, nil
}

func (m *MockStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := &domain.User{ID: u.ID, CreatedAt: u.CreatedAt}
	for _, w := range m.wallets {
		if w.UserID == userID {
			out.Wallets = append(out.Wallets, *w)
		}
	}
	return out, nil
}

func (m *MockStore) CreateWallet(_ context.Context, userID, name string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID: uuid.NewString(), UserID: userID, Name: name,
		CreatedAt: now, UpdatedAt: now,
	}
	m.wallets[w.ID] = w
	cp := *w
	return &cp, nil
}

func (m *MockStore) GetWallet(_ context.Context, walletID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok || w.Deleted {
		return nil, domain.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MockStore) CreditWallet(_ context.Context, walletID string, amountMsat int64) error {
	if amountMsat <= 0 {
		return domain.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok || w.Deleted {
		return domain.ErrWalletNotFound
	}
	w.BalanceMsat += amountMsat
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockStore) DebitWallet(_ context.Context, walletID string, amountMsat int64) error {
	if amountMsat <= 0 {
		return domain.ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok || w.Deleted || w.BalanceMsat < amountMsat {
		return domain.ErrWalletNotFound
	}
	w.BalanceMsat -= amountMsat
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockStore) SaveBalanceCheck(_ context.Context, walletID, service, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[bcKey{walletID, service}] = domain.BalanceCheck{
		WalletID: walletID, Service: service, URL: url,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *MockStore) GetBalanceCheck(_ context.Context, walletID, service string) (*domain.BalanceCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bc, ok := m.balances[bcKey{walletID, service}]
	if !ok {
		return nil, nil
	}
	cp := bc
	return &cp, nil
}

func (m *MockStore) BalanceChecksForWallet(_ context.Context, walletID string) ([]domain.BalanceCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BalanceCheck
	for k, bc := range m.balances {
		if k.walletID == walletID {
			out = append(out, bc)
		}
	}
	return out, nil
}

// SetBalance overwrites a wallet's balance directly; test helper only.
func (m *MockStore) SetBalance(walletID string, balanceMsat int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[walletID]; ok {
		w.BalanceMsat = balanceMsat
	}
}

var _ Store = (*MockStore)(nil)
