package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway talks to the external Lightning node gateway over HTTP. The base
// URL is injected from config so tests can point to a local mock.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type payRequest struct {
	WalletID       string `json:"wallet_id"`
	PaymentRequest string `json:"payment_request"`
}

type invoiceRequest struct {
	WalletID   string `json:"wallet_id"`
	AmountMsat int64  `json:"amount_msat"`
	Memo       string `json:"memo,omitempty"`
}

type invoiceResponse struct {
	PaymentRequest string `json:"payment_request"`
}

// PayInvoice posts the payment request to the gateway's /pay endpoint and
// treats 202 Accepted as submission success. Settlement is asynchronous on
// the gateway side.
func (g *Gateway) PayInvoice(ctx context.Context, walletID, paymentRequest string) error {
	body, err := json.Marshal(payRequest{WalletID: walletID, PaymentRequest: paymentRequest})
	if err != nil {
		return fmt.Errorf("marshal pay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/pay", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create pay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected gateway status: %d", resp.StatusCode)
	}
	return nil
}

// CreateInvoice asks the gateway for a bolt11 invoice crediting walletID.
func (g *Gateway) CreateInvoice(ctx context.Context, walletID string, amountMsat int64, memo string) (string, error) {
	body, err := json.Marshal(invoiceRequest{WalletID: walletID, AmountMsat: amountMsat, Memo: memo})
	if err != nil {
		return "", fmt.Errorf("marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/invoice", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create invoice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request invoice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected gateway status: %d", resp.StatusCode)
	}

	var ir invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return "", fmt.Errorf("decode invoice response: %w", err)
	}
	return ir.PaymentRequest, nil
}

// compile-time checks
var (
	_ Payer    = (*Gateway)(nil)
	_ Invoicer = (*Gateway)(nil)
)
