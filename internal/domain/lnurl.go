package domain

// LNURL protocol response shapes. Field names and error reasons are part of
// the wire contract consumed by external LNURL-withdraw services, so the
// exact strings matter.

// WithdrawSession is the "withdrawRequest" capability advertisement.
// Ephemeral: derived from the wallet's current withdrawable balance on
// every request, never persisted.
type WithdrawSession struct {
	Tag                string `json:"tag"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MinWithdrawable    int64  `json:"minWithdrawable"`
	MaxWithdrawable    int64  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
	BalanceCheck       string `json:"balanceCheck"`
}

// LNURLResponse is the status-only success/error shape shared by the
// withdraw callback and every validation failure.
type LNURLResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func LNURLOk() LNURLResponse {
	return LNURLResponse{Status: "OK"}
}

func LNURLError(reason string) LNURLResponse {
	return LNURLResponse{Status: "ERROR", Reason: reason}
}

// Validation reasons, kept byte-for-byte stable for clients that match on
// them.
const (
	ReasonUsrMissing    = "usr parameter not provided."
	ReasonUserNotFound  = "User does not exist."
	ReasonWalMissing    = "wal parameter not provided."
	ReasonWalletMissing = "Wallet does not exist."
	ReasonPrMissing     = "payment_request not provided."
)
