package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"paylab/internal/model"
)

// Dripper pays out one faucet drip. Satisfied by *faucet.Service; fakes
// stand in for it in tests.
type Dripper interface {
	Drip(ctx context.Context, recipient string, tokenType model.TokenType) (*model.FaucetResponse, *model.PayError)
}

// FaucetHandler serves the public faucet endpoint. Unlike the rest of the
// API it is meant to be called cross-origin, so it answers preflights and
// sets permissive CORS headers on every response.
type FaucetHandler struct {
	dripper Dripper
}

func NewFaucetHandler(dripper Dripper) *FaucetHandler {
	return &FaucetHandler{dripper: dripper}
}

// Drip handles POST /api/faucet
// @Summary      Public devnet faucet
// @Description  Sends a fixed drip of SOL or USDC to any devnet address
// @Tags         faucet
// @Accept       json
// @Produce      json
// @Param        request  body      model.FaucetRequest  true  "Recipient and token"
// @Success      200      {object}  model.FaucetResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /api/faucet [post]
func (h *FaucetHandler) Drip(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req model.FaucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   string(model.ErrValidation),
			Message: "invalid request body",
		})
		return
	}

	resp, perr := h.dripper.Drip(r.Context(), req.RecipientPublicKey, req.TokenType)
	if perr != nil {
		status := http.StatusInternalServerError
		switch perr.Kind {
		case model.ErrValidation:
			status = http.StatusBadRequest
		case model.ErrInsufficientFunds:
			// Out of funds is the faucet being unavailable, not a
			// client mistake.
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, model.ErrorResponse{
			Error:   string(perr.Kind),
			Message: perr.Msg,
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
