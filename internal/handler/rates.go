package handler

import (
	"net/http"

	"paylab/internal/client"
)

// RatesHandler serves USD display rates for the UI.
type RatesHandler struct {
	prices *client.PriceClient
}

func NewRatesHandler(prices *client.PriceClient) *RatesHandler {
	return &RatesHandler{prices: prices}
}

type ratesResponse struct {
	SOLUSD  string `json:"solUsd"`
	USDCUSD string `json:"usdcUsd"`
}

// Get handles GET /api/rates
// @Summary      USD display rates
// @Description  Returns SOL/USD and USDC/USD, with fixed fallbacks when the
// @Description  price API is unreachable
// @Tags         rates
// @Produce      json
// @Success      200  {object}  ratesResponse
// @Router       /api/rates [get]
func (h *RatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sol, usdc := h.prices.USDRates()
	writeJSON(w, http.StatusOK, ratesResponse{SOLUSD: sol, USDCUSD: usdc})
}
