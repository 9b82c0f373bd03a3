package provider

import "context"

// Payer submits a bolt11 payment request for settlement from a wallet's
// funds. Settlement is owned by the node gateway; callers that must not
// block on it run PayInvoice in a background task and swallow the error.
type Payer interface {
	PayInvoice(ctx context.Context, walletID, paymentRequest string) error
}

// Invoicer creates an incoming payment request credited to a wallet once
// paid. Used by the LNURL client when it redeems a withdraw link: the
// issuing service needs an invoice to pay into.
type Invoicer interface {
	CreateInvoice(ctx context.Context, walletID string, amountMsat int64, memo string) (string, error)
}
