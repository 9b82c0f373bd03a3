package domain

import "errors"

// Sentinel errors used throughout the application.
// The LNURL endpoints translate the validation ones into the
// {status:"ERROR", reason} wire shape; they never escape as transport
// faults.
var (
	ErrUserNotFound   = errors.New("user does not exist")
	ErrWalletNotFound = errors.New("wallet does not exist")
	ErrBadNotifyURL   = errors.New("balanceNotify URL has no host")
	ErrInvalidAmount  = errors.New("amount must be positive")
)
