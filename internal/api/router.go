package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcengine/currency/internal/services/ledger"
)

// NewRouter constructs the router with all currency endpoints registered.
func NewRouter(svc *ledger.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/players/{playerID}", func(r chi.Router) {
		r.Post("/account", h.InitAccountHandler)
		r.Get("/balances", h.GetBalancesHandler)
		r.Get("/balances/{currency}", h.GetBalanceHandler)
		r.Post("/credit", h.CreditHandler)
		r.Post("/debit", h.DebitHandler)
		r.Get("/transactions", h.HistoryHandler)
	})

	r.Post("/transfers", h.TransferHandler)

	return r
}
