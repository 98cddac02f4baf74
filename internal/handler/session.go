package handler

import (
	"encoding/json"
	"net/http"

	"paylab/internal/flow"
	"paylab/internal/model"
	"paylab/internal/session"
)

// SessionHandler serves the payment session lifecycle: create, inspect,
// advance, submit, reset.
type SessionHandler struct {
	registry *session.Registry
	executor *flow.Executor
	flows    map[model.DemoKind]flow.Flow
}

func NewSessionHandler(registry *session.Registry, executor *flow.Executor, flows map[model.DemoKind]flow.Flow) *SessionHandler {
	return &SessionHandler{registry: registry, executor: executor, flows: flows}
}

type createSessionRequest struct {
	Demo  model.DemoKind     `json:"demo"`
	Input model.SessionInput `json:"input"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *SessionHandler) resolve(w http.ResponseWriter, r *http.Request) (*session.Session, flow.Flow, bool) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return nil, nil, false
	}
	sess, err := h.registry.Get(req.SessionID)
	if err != nil {
		writeError(w, model.Validationf("session %q not found", req.SessionID))
		return nil, nil, false
	}
	f, ok := h.flows[sess.Kind]
	if !ok {
		writeError(w, model.Configurationf(nil, "no flow registered for %q", sess.Kind))
		return nil, nil, false
	}
	return sess, f, true
}

func view(sess *session.Session) model.SessionView {
	sess.Lock()
	defer sess.Unlock()
	return sess.View()
}

// Create handles POST /api/sessions/create
// @Summary      Start a payment session
// @Description  Creates an in-memory session for one demo kind
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      handler.createSessionRequest  true  "Demo kind and input"
// @Success      200      {object}  model.SessionView
// @Router       /api/sessions/create [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}
	f, ok := h.flows[req.Demo]
	if !ok {
		writeError(w, model.Validationf("unknown demo %q", req.Demo))
		return
	}

	sess := h.registry.Create(req.Demo, f.Steps(), req.Input)
	writeJSON(w, http.StatusOK, view(sess))
}

// Get handles GET /api/sessions/get
// @Summary      Inspect a session
// @Tags         sessions
// @Produce      json
// @Param        id   query     string  true  "Session id"
// @Success      200  {object}  model.SessionView
// @Router       /api/sessions/get [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, err := h.registry.Get(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, model.Validationf("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

// Advance handles POST /api/sessions/advance
// @Summary      Advance a session one interactive step
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      handler.sessionRequest  true  "Session id"
// @Success      200      {object}  model.SessionView
// @Router       /api/sessions/advance [post]
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, f, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.executor.Advance(sess, f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

// Submit handles POST /api/sessions/submit
// @Summary      Run a session's processing phase
// @Description  Builds, signs, submits and confirms the transaction; on
// @Description  failure the session snaps back to its last interactive step
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      handler.sessionRequest  true  "Session id"
// @Success      200      {object}  model.SessionView
// @Router       /api/sessions/submit [post]
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, f, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.executor.Submit(r.Context(), sess, f); err != nil {
		// The session view carries the structured error; clients read
		// it from there alongside the status.
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}

// Reset handles POST /api/sessions/reset
// @Summary      Reset a session to its first step
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      handler.sessionRequest  true  "Session id"
// @Success      200      {object}  model.SessionView
// @Router       /api/sessions/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, _, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := h.executor.Reset(sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess))
}
