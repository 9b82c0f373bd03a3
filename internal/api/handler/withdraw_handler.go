package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/domain"
	"github.com/pieterjm/lnbits/internal/lnurl"
)

// WithdrawHandler exposes the LNURL-withdraw protocol endpoints. All three
// are GETs because LNURL services drive them from wallet-scanned URLs.
type WithdrawHandler struct {
	svc    *lnurl.WithdrawService
	logger *zap.Logger
}

func NewWithdrawHandler(svc *lnurl.WithdrawService, logger *zap.Logger) *WithdrawHandler {
	return &WithdrawHandler{svc: svc, logger: logger}
}

// Session handles GET /withdraw?usr=&wal=
func (h *WithdrawHandler) Session(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	session, errResp := h.svc.Session(r.Context(), q.Get("usr"), q.Get("wal"))
	if errResp != nil {
		respondLNURL(w, *errResp)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// Callback handles GET /withdraw/cb?usr=&wal=&pr=&balanceNotify=
func (h *WithdrawHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := h.svc.Callback(r.Context(),
		q.Get("usr"), q.Get("wal"), q.Get("pr"), q.Get("balanceNotify"))
	respondLNURL(w, resp)
}

// Notify handles GET /withdraw/notify/{service}?wal=
// Both a triggered redemption and an unknown subscription answer OK; only
// a missing wal parameter or a store failure is an error.
func (h *WithdrawHandler) Notify(w http.ResponseWriter, r *http.Request) {
	wal := r.URL.Query().Get("wal")
	if wal == "" {
		respondLNURL(w, domain.LNURLError(domain.ReasonWalMissing))
		return
	}
	service := chi.URLParam(r, "service")

	if err := h.svc.Notify(r.Context(), service, wal); err != nil {
		h.logger.Error("balance notify failed",
			zap.String("service", service), zap.String("wallet_id", wal), zap.Error(err))
		respondLNURL(w, domain.LNURLError("could not process balance notify."))
		return
	}
	respondLNURL(w, domain.LNURLOk())
}
