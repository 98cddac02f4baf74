package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"paylab/internal/checkout"
	"paylab/internal/client"
	"paylab/internal/faucet"
	"paylab/internal/flow"
	"paylab/internal/handler"
	"paylab/internal/history"
	"paylab/internal/metrics"
	"paylab/internal/model"
	"paylab/internal/refresh"
	"paylab/internal/session"
	"paylab/internal/store"
)

// Deps carries the wired services the routes are built from.
type Deps struct {
	Store     *store.Store
	Refresher *refresh.Service
	Executor  *flow.Executor
	Flows     map[model.DemoKind]flow.Flow
	Registry  *session.Registry
	Checkout  *checkout.Service
	Faucet    handler.Dripper
	Limiter   *faucet.Limiter
	History   *history.Store
	Prices    *client.PriceClient
}

// SetupRouter sets up the mux with all handlers.
func SetupRouter(d Deps) http.Handler {
	wallets := handler.NewWalletHandler(d.Store, d.Refresher, d.Faucet, d.Limiter)
	sessions := handler.NewSessionHandler(d.Registry, d.Executor, d.Flows)
	checkouts := handler.NewCheckoutHandler(d.Registry, d.Executor, d.Flows, d.Checkout, d.Store)
	pub := handler.NewFaucetHandler(d.Faucet)
	hist := handler.NewHistoryHandler(d.History)
	rates := handler.NewRatesHandler(d.Prices)

	mux := http.NewServeMux()

	// Swagger UI and metrics
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)
	mux.Handle("/metrics", promhttp.Handler())

	// Wallet endpoints
	mux.HandleFunc("/api/wallets", count("wallets", wallets.List))
	mux.HandleFunc("/api/wallets/create", count("wallets_create", wallets.Create))
	mux.HandleFunc("/api/wallets/select", count("wallets_select", wallets.Select))
	mux.HandleFunc("/api/wallets/refresh", count("wallets_refresh", wallets.Refresh))
	mux.HandleFunc("/api/wallets/airdrop", count("wallets_airdrop", wallets.Airdrop))

	// Session endpoints
	mux.HandleFunc("/api/sessions/create", count("sessions_create", sessions.Create))
	mux.HandleFunc("/api/sessions/get", count("sessions_get", sessions.Get))
	mux.HandleFunc("/api/sessions/advance", count("sessions_advance", sessions.Advance))
	mux.HandleFunc("/api/sessions/submit", count("sessions_submit", sessions.Submit))
	mux.HandleFunc("/api/sessions/reset", count("sessions_reset", sessions.Reset))

	// Checkout endpoints
	mux.HandleFunc("/api/checkout/qr", count("checkout_qr", checkouts.GenerateQR))
	mux.HandleFunc("/api/checkout/qr.png", count("checkout_qr_png", checkouts.Image))
	mux.HandleFunc("/api/checkout/watch", checkouts.Watch)

	// Public faucet and the rest
	mux.HandleFunc("/api/faucet", count("faucet", pub.Drip))
	mux.HandleFunc("/api/history", count("history", hist.List))
	mux.HandleFunc("/api/rates", count("rates", rates.Get))

	return mux
}

// count wraps a handler with the per-endpoint request counter.
func count(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.RequestsCount.WithLabelValues(r.Method, endpoint).Inc()
		next(w, r)
	}
}
