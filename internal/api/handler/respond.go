package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pieterjm/lnbits/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondLNURL writes an LNURL protocol response. The LNURL convention is
// HTTP 200 for both OK and ERROR shapes; clients read the status field,
// not the HTTP code.
func respondLNURL(w http.ResponseWriter, resp domain.LNURLResponse) {
	respondJSON(w, http.StatusOK, resp)
}
