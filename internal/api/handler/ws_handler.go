package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pieterjm/lnbits/internal/ws"
)

// WSHandler upgrades GET /api/v1/ws/{walletID} to a wallet event stream.
type WSHandler struct {
	adapter *ws.Adapter
}

func NewWSHandler(adapter *ws.Adapter) *WSHandler {
	return &WSHandler{adapter: adapter}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletID")
	if walletID == "" {
		respondError(w, http.StatusBadRequest, "wallet ID required")
		return
	}
	h.adapter.Serve(w, r, walletID)
}
