package domain

import (
	"net/url"
	"time"
)

// User is an account holder. A user owns zero or more wallets.
type User struct {
	ID        string    `json:"id"`
	Wallets   []Wallet  `json:"wallets"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet returns the user's wallet with the given ID, or nil if the user
// does not own it (or it has been deleted).
func (u *User) Wallet(walletID string) *Wallet {
	for i := range u.Wallets {
		if u.Wallets[i].ID == walletID && !u.Wallets[i].Deleted {
			return &u.Wallets[i]
		}
	}
	return nil
}

// Wallet is an addressable balance-holding entity. Balances are tracked in
// millisatoshis.
type Wallet struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	BalanceMsat int64     `json:"balance_msat"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithdrawableMsat is the amount an external LNURL-withdraw service may
// pull right now. Negative balances (should not happen, but the ledger is
// external) report zero.
func (w *Wallet) WithdrawableMsat() int64 {
	if w.BalanceMsat < 0 {
		return 0
	}
	return w.BalanceMsat
}

// BalanceCheck is a recurring-withdraw subscription: the issuing service
// registered URL will be redeemed against whenever the wallet wants to
// proactively offer its withdrawable balance. At most one URL per
// (wallet, service) pair; a newer subscription overwrites the older one.
type BalanceCheck struct {
	WalletID  string    `json:"wallet_id"`
	Service   string    `json:"service"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceKey derives the balance-check service identifier from a
// balanceNotify URL. The host is the identity the issuing service is
// addressed by on the notify endpoint.
func ServiceKey(notifyURL string) (string, error) {
	u, err := url.Parse(notifyURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", ErrBadNotifyURL
	}
	return u.Host, nil
}

// PaymentEvent is the payload fanned out to wallet listeners when a
// balance-changing payment lands.
type PaymentEvent struct {
	Type       string    `json:"type"`
	WalletID   string    `json:"wallet_id"`
	AmountMsat int64     `json:"amount_msat"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
