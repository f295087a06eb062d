package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcengine/currency/internal/currency"
	"github.com/mcengine/currency/internal/infra/sqlutils"
	"github.com/mcengine/currency/internal/repos/accounts"
	"github.com/mcengine/currency/internal/repos/transactions"
	"github.com/mcengine/currency/internal/services/ledger"
)

// HandlerProvider wraps the ledger service and exposes HTTP handlers.
type HandlerProvider struct {
	svc *ledger.Service
}

// NewHandler returns a new handler provider.
func NewHandler(svc *ledger.Service) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps ledger errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, currency.ErrInvalidCurrency):
		writeError(w, http.StatusBadRequest, "invalid currency type")
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, ledger.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, "sender and receiver must differ")
	case errors.Is(err, accounts.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, accounts.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, sqlutils.ErrStorageBusy):
		writeError(w, http.StatusServiceUnavailable, "storage busy, try again")
	default:
		slog.Error("unhandled ledger error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parsePlayerID reads `{playerID}` from the route and normalizes it to the
// canonical lowercase UUID form stored in the ledger.
func parsePlayerID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "playerID")
	if raw == "" {
		return "", fmt.Errorf("missing playerID")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid playerID: %w", err)
	}

	return id.String(), nil
}

func parseUUIDField(name, raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", name, err)
	}

	return id.String(), nil
}

// parseAmount accepts a decimal string with at most 2 fractional digits.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount")
	}

	if amount.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount supports up to 2 decimals")
	}

	return amount, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

func renderBalances(b accounts.Balances) map[string]any {
	return map[string]any{
		"playerId": b.PlayerID,
		"balances": map[string]string{
			"coin":   b.Coin.StringFixed(2),
			"copper": b.Copper.StringFixed(2),
			"silver": b.Silver.StringFixed(2),
			"gold":   b.Gold.StringFixed(2),
		},
	}
}

func renderRecord(rec transactions.Record) map[string]any {
	return map[string]any{
		"transactionId": rec.ID,
		"senderId":      rec.SenderID,
		"receiverId":    rec.ReceiverID,
		"currency":      rec.Currency.String(),
		"type":          rec.Type.String(),
		"amount":        rec.Amount.StringFixed(2),
		"timestamp":     rec.Timestamp.UTC().Format(time.RFC3339),
		"notes":         rec.Notes,
	}
}

type adjustRequest struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type transferRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	Note       string `json:"note"`
}

// --- Handlers ---

// InitAccountHandler handles POST /players/{playerID}/account.
// Idempotent: re-initializing an existing account changes nothing.
func (h *HandlerProvider) InitAccountHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	err = h.svc.InitAccount(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"playerId": playerID, "status": "ok"})
}

// GetBalanceHandler handles GET /players/{playerID}/balances/{currency}.
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	curType, err := currency.Parse(chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), playerID, curType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"playerId": playerID,
		"currency": curType.String(),
		"balance":  balance.StringFixed(2),
	})
}

// GetBalancesHandler handles GET /players/{playerID}/balances.
func (h *HandlerProvider) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	balances, err := h.svc.GetBalances(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderBalances(balances))
}

// CreditHandler handles POST /players/{playerID}/credit.
func (h *HandlerProvider) CreditHandler(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Credit)
}

// DebitHandler handles POST /players/{playerID}/debit.
func (h *HandlerProvider) DebitHandler(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.svc.Debit)
}

func (h *HandlerProvider) adjust(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, playerID string, t currency.Type, amount decimal.Decimal) error) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	var req adjustRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	curType, err := currency.Parse(req.Currency)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = op(r.Context(), playerID, curType, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TransferHandler handles POST /transfers.
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	senderID, err := parseUUIDField("senderId", req.SenderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receiverID, err := parseUUIDField("receiverId", req.ReceiverID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	curType, err := currency.Parse(req.Currency)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.Transfer(r.Context(), senderID, receiverID, curType, amount, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HistoryHandler handles GET /players/{playerID}/transactions?limit=N.
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerID in path")
		return
	}

	limit := 0

	rawLimit := r.URL.Query().Get("limit")
	if rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	records, err := h.svc.History(r.Context(), playerID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rendered := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rendered = append(rendered, renderRecord(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playerId":     playerID,
		"transactions": rendered,
	})
}
