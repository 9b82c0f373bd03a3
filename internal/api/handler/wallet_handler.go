package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/redeem"
	"github.com/pieterjm/lnbits/internal/service"
)

// WalletHandler covers account onboarding and the node-facing payment
// intake.
type WalletHandler struct {
	accounts  *service.AccountService
	payments  *service.PaymentService
	scheduler *redeem.Scheduler
	// Seconds to wait before redeeming a funding voucher, giving the
	// issuing service time to finish its own bookkeeping first.
	fundingDelay int
	logger       *zap.Logger
}

func NewWalletHandler(
	accounts *service.AccountService,
	payments *service.PaymentService,
	scheduler *redeem.Scheduler,
	fundingDelaySeconds int,
	logger *zap.Logger,
) *WalletHandler {
	return &WalletHandler{
		accounts:     accounts,
		payments:     payments,
		scheduler:    scheduler,
		fundingDelay: fundingDelaySeconds,
		logger:       logger,
	}
}

// LnurlWallet handles GET /lnurlwallet?lightning=<withdraw link>
//
// Mints a fresh account plus wallet, schedules the voucher redemption as a
// delayed background task, and redirects to the wallet page. The redirect
// never waits on the redemption: the new wallet starts empty and fills up
// when (if) the voucher pays out.
func (h *WalletHandler) LnurlWallet(w http.ResponseWriter, r *http.Request) {
	lightning := r.URL.Query().Get("lightning")
	if lightning == "" {
		respondLNURL(w, domain.LNURLError("lightning parameter not provided."))
		return
	}

	user, wallet, err := h.accounts.CreateUserWithWallet(r.Context(), "")
	if err != nil {
		h.logger.Error("lnurlwallet onboarding failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not create wallet")
		return
	}

	h.scheduler.Schedule(wallet.ID, lightning,
		"LNbits initial funding: voucher redeem.",
		map[string]string{"tag": "lnurlwallet"},
		h.fundingDelay,
	)

	http.Redirect(w, r,
		fmt.Sprintf("/wallet?usr=%s&wal=%s", user.ID, wallet.ID),
		http.StatusTemporaryRedirect,
	)
}

type receivePaymentRequest struct {
	WalletID   string `json:"wallet_id"`
	AmountMsat int64  `json:"amount_msat"`
	Memo       string `json:"memo"`
}

// ReceivePayment handles POST /api/v1/payments — the node gateway calls
// this when an invoice credited to one of our wallets settles.
func (h *WalletHandler) ReceivePayment(w http.ResponseWriter, r *http.Request) {
	var req receivePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WalletID == "" || req.AmountMsat <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "wallet_id and positive amount_msat required")
		return
	}

	wallet, err := h.payments.Receive(r.Context(), req.WalletID, req.AmountMsat, req.Memo)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			respondError(w, http.StatusNotFound, "wallet does not exist")
			return
		}
		h.logger.Error("payment intake failed",
			zap.String("wallet_id", req.WalletID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "could not apply payment")
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}
