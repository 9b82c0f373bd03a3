package lnurl_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/lnurl"
)

type stubInvoicer struct {
	pr       string
	requests []int64
}

func (s *stubInvoicer) CreateInvoice(_ context.Context, _ string, amountMsat int64, _ string) (string, error) {
	s.requests = append(s.requests, amountMsat)
	return s.pr, nil
}

func TestClient_RedeemHappyPath(t *testing.T) {
	var gotK1, gotPr string

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/withdraw", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tag":             "withdrawRequest",
			"callback":        srv.URL + "/withdraw/cb",
			"k1":              "0",
			"minWithdrawable": 1000,
			"maxWithdrawable": 5000,
		})
	})
	mux.HandleFunc("/withdraw/cb", func(w http.ResponseWriter, r *http.Request) {
		gotK1 = r.URL.Query().Get("k1")
		gotPr = r.URL.Query().Get("pr")
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	})

	inv := &stubInvoicer{pr: "lnbc1signedinvoice"}
	c := lnurl.NewClient(inv, 2*time.Second, 100, zap.NewNop())

	if err := c.Redeem(context.Background(), "w1", srv.URL+"/withdraw", "memo", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inv.requests) != 1 || inv.requests[0] != 5000 {
		t.Fatalf("expected one invoice for maxWithdrawable 5000, got %v", inv.requests)
	}
	if gotK1 != "0" || gotPr != "lnbc1signedinvoice" {
		t.Fatalf("callback received k1=%q pr=%q", gotK1, gotPr)
	}
}

func TestClient_RedeemRejectsWrongTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"tag": "payRequest"})
	}))
	defer srv.Close()

	c := lnurl.NewClient(&stubInvoicer{pr: "x"}, 2*time.Second, 100, zap.NewNop())
	if err := c.Redeem(context.Background(), "w1", srv.URL, "", nil); err == nil {
		t.Fatal("expected error for non-withdraw tag")
	}
}

func TestClient_RedeemRejectsEmptyBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tag":             "withdrawRequest",
			"callback":        "https://irrelevant.example/cb",
			"maxWithdrawable": 0,
		})
	}))
	defer srv.Close()

	inv := &stubInvoicer{pr: "x"}
	c := lnurl.NewClient(inv, 2*time.Second, 100, zap.NewNop())
	if err := c.Redeem(context.Background(), "w1", srv.URL, "", nil); err == nil {
		t.Fatal("expected error for zero withdrawable")
	}
	if len(inv.requests) != 0 {
		t.Fatal("no invoice should be created when nothing is withdrawable")
	}
}

func TestClient_RedeemSurfacesCallbackError(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/withdraw", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tag":             "withdrawRequest",
			"callback":        srv.URL + "/withdraw/cb",
			"k1":              "0",
			"maxWithdrawable": 2000,
		})
	})
	mux.HandleFunc("/withdraw/cb", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ERROR", "reason": "expired"})
	})

	c := lnurl.NewClient(&stubInvoicer{pr: "lnbc1x"}, 2*time.Second, 100, zap.NewNop())
	if err := c.Redeem(context.Background(), "w1", srv.URL+"/withdraw", "", nil); err == nil {
		t.Fatal("expected callback rejection to surface")
	}
}
