package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pieterjm/lnbits/internal/provider"
)

// withdrawParams is the withdrawRequest document an issuing service serves
// at its LNURL endpoint.
type withdrawParams struct {
	Tag                string `json:"tag"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MinWithdrawable    int64  `json:"minWithdrawable"`
	MaxWithdrawable    int64  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
}

type callbackResult struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Client performs the consumer side of LNURL-withdraw: fetch the withdraw
// parameters from the issuing service, obtain an invoice for the maximum
// withdrawable amount, and present it on the callback. Outbound calls are
// rate limited so a burst of balance events cannot hammer an external
// service.
type Client struct {
	invoicer   provider.Invoicer
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(invoicer provider.Invoicer, timeout time.Duration, ratePerSec int, logger *zap.Logger) *Client {
	return &Client{
		invoicer:   invoicer,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		logger:     logger,
	}
}

// Redeem walks one full withdraw round against withdrawURL for walletID.
// Exactly one attempt: any failure is returned to the caller (the
// scheduler, which swallows it) and never retried here.
func (c *Client) Redeem(ctx context.Context, walletID, withdrawURL, description string, tags map[string]string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params, err := c.fetchParams(ctx, withdrawURL)
	if err != nil {
		return err
	}
	if params.Tag != "withdrawRequest" {
		return fmt.Errorf("unexpected lnurl tag %q", params.Tag)
	}
	if params.MaxWithdrawable <= 0 {
		return fmt.Errorf("nothing withdrawable at %s", withdrawURL)
	}

	memo := description
	if memo == "" {
		memo = params.DefaultDescription
	}
	pr, err := c.invoicer.CreateInvoice(ctx, walletID, params.MaxWithdrawable, memo)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	if err := c.callBack(ctx, params.Callback, params.K1, pr); err != nil {
		return err
	}

	c.logger.Info("withdraw link redeemed",
		zap.String("wallet_id", walletID),
		zap.Int64("amount_msat", params.MaxWithdrawable),
		zap.Any("tags", tags),
	)
	return nil
}

func (c *Client) fetchParams(ctx context.Context, rawURL string) (*withdrawParams, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create params request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch withdraw params: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("withdraw params status %d", resp.StatusCode)
	}

	var params withdrawParams
	if err := json.NewDecoder(resp.Body).Decode(&params); err != nil {
		return nil, fmt.Errorf("decode withdraw params: %w", err)
	}
	return &params, nil
}

func (c *Client) callBack(ctx context.Context, callback, k1, pr string) error {
	u, err := url.Parse(callback)
	if err != nil {
		return fmt.Errorf("parse callback URL: %w", err)
	}
	q := u.Query()
	q.Set("k1", k1)
	q.Set("pr", pr)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create callback request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call withdraw callback: %w", err)
	}
	defer resp.Body.Close()

	var result callbackResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode callback result: %w", err)
	}
	if result.Status != "OK" {
		return fmt.Errorf("withdraw callback rejected: %s", result.Reason)
	}
	return nil
}
