package session

import (
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"paylab/internal/model"
)

// ErrNoSession is returned when no session matches the requested id.
var ErrNoSession = errors.New("session not found")

// Session is one transient per-demo payment session. Sessions live in
// memory only; restarting the service discards them.
type Session struct {
	mu sync.Mutex

	ID      string
	Kind    model.DemoKind
	Machine *Machine
	Input   model.SessionInput

	TxSignature string
	Err         *model.PayError

	// Checkout-only fields
	PayURL    string
	Reference string
	QRPNG     []byte
}

// Lock serializes access to the session across handlers and the
// checkout watcher.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Fail records a structured error and snaps the machine back one step.
// Caller holds the lock.
func (s *Session) Fail(err *model.PayError) {
	s.Err = err
	s.Machine.Retreat()
}

// ClearError drops the last error. Caller holds the lock.
func (s *Session) ClearError() { s.Err = nil }

// Reset re-initializes session fields to defaults, keeping id and kind.
// Caller holds the lock.
func (s *Session) Reset() {
	s.Machine.Reset()
	s.TxSignature = ""
	s.Err = nil
	s.PayURL = ""
	s.Reference = ""
	s.QRPNG = nil
}

// View builds the API representation. Caller holds the lock.
func (s *Session) View() model.SessionView {
	order := s.Machine.Order()
	steps := make([]string, len(order))
	for i, st := range order {
		steps[i] = string(st)
	}

	v := model.SessionView{
		ID:          s.ID,
		Kind:        s.Kind,
		Step:        string(s.Machine.Current()),
		Steps:       steps,
		Input:       s.Input,
		TxSignature: s.TxSignature,
		PayURL:      s.PayURL,
		Reference:   s.Reference,
	}
	if s.Err != nil {
		v.Error = s.Err.Msg
		v.ErrorKind = string(s.Err.Kind)
	}
	return v
}

// Registry holds live sessions keyed by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session at the first step of order.
func (r *Registry) Create(kind model.DemoKind, order []Step, in model.SessionInput) *Session {
	s := &Session{
		ID:      ulid.Make().String(),
		Kind:    kind,
		Machine: NewMachine(order),
		Input:   in,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
