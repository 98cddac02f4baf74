package handler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/flow"
	"paylab/internal/refresh"
	"paylab/internal/session"
	"paylab/internal/store"
)

// fakeChain backs handler tests with map-based balances.
type fakeChain struct {
	mu     sync.Mutex
	native map[string]uint64
	token  map[string]uint64
}

func (f *fakeChain) Mint() solana.PublicKey { return solana.PublicKey{} }

func (f *fakeChain) NativeBalance(_ context.Context, owner solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.native[owner.String()], nil
}

func (f *fakeChain) TokenBalance(_ context.Context, owner solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token[owner.String()], nil
}

func (f *fakeChain) AccountExists(context.Context, solana.PublicKey) (bool, error) {
	return true, nil
}

func (f *fakeChain) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *fakeChain) Send(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{1}, nil
}

func (f *fakeChain) Confirm(context.Context, solana.Signature) error { return nil }

func (f *fakeChain) SignaturesFor(context.Context, solana.PublicKey, int) ([]solana.Signature, error) {
	return nil, nil
}

func newTestEnv(t *testing.T) (*fakeChain, *store.Store, *session.Registry, *flow.Executor) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "wallets.json"))
	if err != nil {
		t.Fatal(err)
	}
	chain := &fakeChain{native: map[string]uint64{}, token: map[string]uint64{}}
	refresher := refresh.NewService(chain, st)
	executor := flow.NewExecutor(chain, st, refresher, nil, time.Second)
	return chain, st, session.NewRegistry(), executor
}
