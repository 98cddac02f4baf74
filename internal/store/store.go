package store

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/model"
)

var (
	// ErrWalletLimit is returned by AddWallet once the hard cap is reached;
	// the store is left untouched.
	ErrWalletLimit = fmt.Errorf("wallet limit reached (%d)", model.MaxWallets)

	// ErrNoWallet is returned when no wallet matches the requested id.
	ErrNoWallet = errors.New("wallet not found")
)

// fileState is persisted as a whole on every mutation. nextId is an explicit
// monotonically increasing counter kept independent of the slice length, so
// ids are never reused even if single-wallet deletion is added later.
type fileState struct {
	Wallets    []model.LocalWallet `json:"wallets"`
	NextID     int                 `json:"nextId"`
	SelectedID int                 `json:"selectedId"`
}

// Store owns the persisted wallet collection and the selected-wallet
// pointer. All mutations are synchronous full-collection writes; the system
// is single-user by construction, so last writer wins.
type Store struct {
	mu    sync.Mutex
	path  string
	state fileState
}

// Open loads the wallet collection from path, creating the parent directory
// if needed. A missing file starts an empty store.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Store{path: path, state: fileState{NextID: 1}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read wallet store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet store: %w", err)
	}

	// Older files may predate the explicit counter
	if s.state.NextID < 1 {
		s.state.NextID = 1
		for _, w := range s.state.Wallets {
			if w.ID >= s.state.NextID {
				s.state.NextID = w.ID + 1
			}
		}
	}
	return s, nil
}

// persist writes the full collection. Caller holds the lock. If the write
// fails the in-memory state keeps the mutation; the divergence heals on the
// next successful write.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write wallet store: %w", err)
	}
	return nil
}

// AddWallet stores a freshly generated keypair with zero balances, assigns
// the next id and auto-selects the new wallet. Returns ErrWalletLimit once
// the cap is reached.
func (s *Store) AddWallet(key solana.PrivateKey) (model.LocalWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Wallets) >= model.MaxWallets {
		return model.LocalWallet{}, ErrWalletLimit
	}
	if len(key) != 64 {
		return model.LocalWallet{}, fmt.Errorf("invalid private key length: expected 64 bytes")
	}

	id := s.state.NextID
	w := model.LocalWallet{
		ID:        id,
		Name:      strconv.Itoa(id),
		PublicKey: key.PublicKey().String(),
		SecretKey: hex.EncodeToString(key),
	}

	s.state.Wallets = append(s.state.Wallets, w)
	s.state.NextID = id + 1
	s.state.SelectedID = id

	if err := s.persist(); err != nil {
		return model.LocalWallet{}, err
	}
	return w, nil
}

// UpdateBalance overwrites the cached native balance for the matching id.
// Unknown ids are a no-op; the full collection persists afterward.
func (s *Store) UpdateBalance(id int, lamports uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Wallets {
		if s.state.Wallets[i].ID == id {
			s.state.Wallets[i].Lamports = lamports
			break
		}
	}
	return s.persist()
}

// UpdateUSDCBalance overwrites the cached token balance for the matching id.
// Unknown ids are a no-op; the full collection persists afterward.
func (s *Store) UpdateUSDCBalance(id int, micro uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Wallets {
		if s.state.Wallets[i].ID == id {
			s.state.Wallets[i].USDCMicro = micro
			break
		}
	}
	return s.persist()
}

// Wallets returns a copy of the collection.
func (s *Store) Wallets() []model.LocalWallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.LocalWallet, len(s.state.Wallets))
	copy(out, s.state.Wallets)
	return out
}

// Wallet returns the wallet with the given id.
func (s *Store) Wallet(id int) (model.LocalWallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.state.Wallets {
		if w.ID == id {
			return w, true
		}
	}
	return model.LocalWallet{}, false
}

// SelectedWallet returns the wallet the selection pointer names, if any.
func (s *Store) SelectedWallet() (model.LocalWallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.state.Wallets {
		if w.ID == s.state.SelectedID {
			return w, true
		}
	}
	return model.LocalWallet{}, false
}

// SelectedID returns the current selection pointer (0 when nothing is selected).
func (s *Store) SelectedID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SelectedID
}

// Select moves the selection pointer to an existing wallet.
func (s *Store) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.state.Wallets {
		if w.ID == id {
			s.state.SelectedID = id
			return s.persist()
		}
	}
	return ErrNoWallet
}

// CanAddWallet reports whether the cap leaves room for another wallet.
func (s *Store) CanAddWallet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Wallets) < model.MaxWallets
}
