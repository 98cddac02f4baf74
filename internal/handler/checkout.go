package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"

	"paylab/internal/checkout"
	"paylab/internal/flow"
	"paylab/internal/model"
	"paylab/internal/session"
	"paylab/internal/store"
)

// watchTimeout bounds how long one websocket watcher polls for payment.
const watchTimeout = 5 * time.Minute

// CheckoutHandler serves the QR checkout demo: request generation, the QR
// image itself, and a websocket that fires when the payment lands.
type CheckoutHandler struct {
	registry *session.Registry
	executor *flow.Executor
	flows    map[model.DemoKind]flow.Flow
	service  *checkout.Service
	store    *store.Store
	upgrader websocket.Upgrader
}

func NewCheckoutHandler(registry *session.Registry, executor *flow.Executor, flows map[model.DemoKind]flow.Flow, svc *checkout.Service, st *store.Store) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		executor: executor,
		flows:    flows,
		service:  svc,
		store:    st,
		upgrader: websocket.Upgrader{
			// The demo UI is served from a different origin in dev
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *CheckoutHandler) checkoutSession(id string) (*session.Session, *model.PayError) {
	sess, err := h.registry.Get(id)
	if err != nil {
		return nil, model.Validationf("session not found")
	}
	if sess.Kind != model.DemoCheckout {
		return nil, model.Validationf("session %q is not a checkout session", id)
	}
	return sess, nil
}

// GenerateQR handles POST /api/checkout/qr
// @Summary      Generate a Solana Pay request
// @Description  Creates the reference key, pay URL and QR image for a
// @Description  checkout session and advances it to qrGenerated
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request  body      handler.sessionRequest  true  "Session id"
// @Success      200      {object}  model.SessionView
// @Router       /api/checkout/qr [post]
func (h *CheckoutHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}
	sess, perr := h.checkoutSession(req.SessionID)
	if perr != nil {
		writeError(w, perr)
		return
	}
	merchant, ok := h.store.Wallet(sess.Input.RecipientID)
	if !ok {
		writeError(w, model.Validationf("merchant wallet %d not found", sess.Input.RecipientID))
		return
	}

	sess.Lock()
	if sess.Machine.Current() != session.StepInput {
		sess.Unlock()
		writeError(w, model.Validationf("QR can only be generated from the input step"))
		return
	}
	perr = h.service.Prepare(sess, merchant)
	sess.Unlock()
	if perr != nil {
		writeError(w, perr)
		return
	}

	if err := h.executor.Advance(sess, h.flows[model.DemoCheckout]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

// Image handles GET /api/checkout/qr.png
// @Summary      Serve the session's QR code
// @Tags         checkout
// @Produce      png
// @Param        id   query  string  true  "Session id"
// @Success      200  {file}  binary
// @Router       /api/checkout/qr.png [get]
func (h *CheckoutHandler) Image(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, perr := h.checkoutSession(r.URL.Query().Get("id"))
	if perr != nil {
		writeError(w, perr)
		return
	}

	sess.Lock()
	png := sess.QRPNG
	sess.Unlock()
	if len(png) == 0 {
		http.Error(w, "QR not generated yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

type watchEvent struct {
	Found     bool   `json:"found"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Watch handles GET /api/checkout/watch
// @Summary      Wait for the checkout payment
// @Description  Upgrades to a websocket and emits one event when a
// @Description  transaction carrying the session's reference key appears
// @Tags         checkout
// @Param        id  query  string  true  "Session id"
// @Router       /api/checkout/watch [get]
func (h *CheckoutHandler) Watch(w http.ResponseWriter, r *http.Request) {
	sess, perr := h.checkoutSession(r.URL.Query().Get("id"))
	if perr != nil {
		writeError(w, perr)
		return
	}

	sess.Lock()
	refStr := sess.Reference
	sess.Unlock()
	if refStr == "" {
		writeError(w, model.Validationf("session has no reference; generate the QR first"))
		return
	}
	reference, err := solana.PublicKeyFromBase58(refStr)
	if err != nil {
		writeError(w, model.Configurationf(err, "stored reference is unusable"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("checkout: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(r.Context(), watchTimeout)
	defer cancel()

	sig, err := h.service.AwaitPayment(ctx, reference)
	if err != nil {
		conn.WriteJSON(watchEvent{Found: false, Error: "no payment observed"})
		return
	}
	conn.WriteJSON(watchEvent{Found: true, Signature: sig.String()})
}
