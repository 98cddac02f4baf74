package handler

import (
	"net/http"
	"strconv"
	"time"

	"paylab/internal/history"
	"paylab/internal/model"
)

// HistoryHandler serves the persisted payment ledger.
type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

type historyResponse struct {
	Payments []history.Payment `json:"payments"`
}

// List handles GET /api/history
// @Summary      List recorded payments
// @Description  Returns completed payments, newest first, optionally
// @Description  filtered by demo kind, currency and time range
// @Tags         history
// @Produce      json
// @Param        kind      query  string  false  "Demo kind"
// @Param        currency  query  string  false  "SOL or USDC"
// @Param        since     query  string  false  "RFC3339 lower bound"
// @Param        limit     query  int     false  "Max rows"
// @Success      200  {object}  historyResponse
// @Router       /api/history [get]
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Kind:     q.Get("kind"),
		Currency: q.Get("currency"),
	}
	if s := q.Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, model.Validationf("invalid since timestamp"))
			return
		}
		filter.From = &ts
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, model.Validationf("invalid limit"))
			return
		}
		filter.Limit = n
	}

	payments, err := h.store.GetPayments(filter)
	if err != nil {
		writeError(w, model.Validationf("%v", err))
		return
	}
	if payments == nil {
		payments = []history.Payment{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Payments: payments})
}
