package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/faucet"
	"paylab/internal/model"
	"paylab/internal/refresh"
	"paylab/internal/store"
)

// WalletHandler serves the practice wallet endpoints.
type WalletHandler struct {
	store     *store.Store
	refresher *refresh.Service
	dripper   Dripper
	limiter   *faucet.Limiter
}

func NewWalletHandler(st *store.Store, refresher *refresh.Service, dripper Dripper, limiter *faucet.Limiter) *WalletHandler {
	return &WalletHandler{store: st, refresher: refresher, dripper: dripper, limiter: limiter}
}

type walletListResponse struct {
	Wallets    []model.WalletView `json:"wallets"`
	CanAdd     bool               `json:"canAdd"`
	SelectedID int                `json:"selectedId,omitempty"`
}

func (h *WalletHandler) list() walletListResponse {
	selected := h.store.SelectedID()
	wallets := h.store.Wallets()
	views := make([]model.WalletView, len(wallets))
	for i, w := range wallets {
		views[i] = w.View(w.ID == selected)
	}
	return walletListResponse{
		Wallets:    views,
		CanAdd:     h.store.CanAddWallet(),
		SelectedID: selected,
	}
}

// List handles GET /api/wallets
// @Summary      List practice wallets
// @Description  Returns all local wallets with cached balances
// @Tags         wallets
// @Produce      json
// @Success      200  {object}  walletListResponse
// @Router       /api/wallets [get]
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.list())
}

// Create handles POST /api/wallets/create
// @Summary      Create a practice wallet
// @Description  Generates a throwaway devnet keypair and stores it locally
// @Tags         wallets
// @Produce      json
// @Success      200  {object}  model.WalletView
// @Failure      409  {object}  model.ErrorResponse
// @Router       /api/wallets/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	wallet, err := h.store.AddWallet(solana.NewWallet().PrivateKey)
	if err != nil {
		if errors.Is(err, store.ErrWalletLimit) {
			writeJSON(w, http.StatusConflict, model.ErrorResponse{
				Error:   "wallet_limit",
				Message: err.Error(),
			})
			return
		}
		writeError(w, model.Configurationf(err, "failed to store wallet"))
		return
	}

	writeJSON(w, http.StatusOK, wallet.View(true))
}

// Select handles POST /api/wallets/select
// @Summary      Select the active wallet
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      handler.selectRequest  true  "Wallet id"
// @Success      200      {object}  walletListResponse
// @Router       /api/wallets/select [post]
func (h *WalletHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}
	if err := h.store.Select(req.ID); err != nil {
		writeError(w, model.Validationf("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, h.list())
}

type selectRequest struct {
	ID int `json:"id"`
}

// Refresh handles POST /api/wallets/refresh
// @Summary      Refresh balances from chain
// @Description  Re-queries SOL and USDC balances for every wallet
// @Tags         wallets
// @Produce      json
// @Success      200  {object}  walletListResponse
// @Router       /api/wallets/refresh [post]
func (h *WalletHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	h.refresher.RefreshAll(r.Context())
	writeJSON(w, http.StatusOK, h.list())
}

// Airdrop handles POST /api/wallets/airdrop
// @Summary      Drip devnet funds to a wallet
// @Description  Sends a small faucet payout to one of the practice wallets,
// @Description  subject to a rolling quota
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.AirdropRequest  true  "Target wallet and token"
// @Success      200      {object}  model.AirdropResponse
// @Failure      429      {object}  model.ErrorResponse
// @Router       /api/wallets/airdrop [post]
func (h *WalletHandler) Airdrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req model.AirdropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}
	wallet, ok := h.store.Wallet(req.WalletID)
	if !ok {
		writeError(w, model.Validationf("wallet %d not found", req.WalletID))
		return
	}

	remaining, err := h.limiter.Take()
	if err != nil {
		writeJSON(w, http.StatusTooManyRequests, model.ErrorResponse{
			Error:   "rate_limited",
			Message: err.Error(),
		})
		return
	}

	resp, perr := h.dripper.Drip(r.Context(), wallet.PublicKey, model.TokenType(req.TokenType))
	if perr != nil {
		writeError(w, perr)
		return
	}

	h.refresher.RefreshWallets(r.Context(), wallet.ID)
	writeJSON(w, http.StatusOK, model.AirdropResponse{
		Success:   resp.Success,
		Signature: resp.Signature,
		Amount:    resp.Amount,
		TokenType: resp.TokenType,
		Remaining: remaining,
	})
}
