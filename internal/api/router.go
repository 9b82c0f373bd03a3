package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pieterjm/lnbits/internal/api/handler"
	apimw "github.com/pieterjm/lnbits/internal/api/middleware"
	"github.com/pieterjm/lnbits/internal/lnurl"
	"github.com/pieterjm/lnbits/internal/redeem"
	"github.com/pieterjm/lnbits/internal/service"
	"github.com/pieterjm/lnbits/internal/ws"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	withdrawSvc *lnurl.WithdrawService,
	accounts *service.AccountService,
	payments *service.PaymentService,
	scheduler *redeem.Scheduler,
	adapter *ws.Adapter,
	fundingDelaySeconds int,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	wh := handler.NewWithdrawHandler(withdrawSvc, logger)
	wlh := handler.NewWalletHandler(accounts, payments, scheduler, fundingDelaySeconds, logger)
	wsh := handler.NewWSHandler(adapter)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// LNURL-withdraw protocol surface. Paths are part of the wire
	// contract: external services store and re-fetch them verbatim.
	r.Get("/withdraw", wh.Session)
	r.Get("/withdraw/cb", wh.Callback)
	r.Get("/withdraw/notify/{service}", wh.Notify)
	r.Get("/lnurlwallet", wlh.LnurlWallet)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws/{walletID}", wsh.Serve)
		r.Post("/payments", wlh.ReceivePayment)
	})

	return r
}
