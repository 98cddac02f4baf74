package refresh

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"paylab/internal/client"
	"paylab/internal/store"
)

// Service pulls live balances for stored wallets. Queries for independent
// wallets run concurrently; a per-wallet failure leaves that wallet's cached
// balances unchanged and never aborts the batch. Last writer wins — the
// submit pipeline re-checks the balance right before sending, so a stale
// cache can delay a user but never over-spend.
type Service struct {
	chain client.Chain
	store *store.Store
}

// NewService creates a refresh service over the given chain and store.
func NewService(chain client.Chain, st *store.Store) *Service {
	return &Service{chain: chain, store: st}
}

// RefreshAll refreshes every stored wallet.
func (s *Service) RefreshAll(ctx context.Context) {
	wallets := s.store.Wallets()
	ids := make([]int, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
	}
	s.RefreshWallets(ctx, ids...)
}

// RefreshWallets refreshes the wallets with the given ids.
func (s *Service) RefreshWallets(ctx context.Context, ids ...int) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			s.refreshOne(ctx, id)
			// Failures are logged per wallet, never propagated
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) refreshOne(ctx context.Context, id int) {
	w, ok := s.store.Wallet(id)
	if !ok {
		return
	}
	owner, err := w.Pubkey()
	if err != nil {
		log.Printf("refresh: wallet %d has invalid public key: %v", id, err)
		return
	}

	lamports, err := s.chain.NativeBalance(ctx, owner)
	if err != nil {
		log.Printf("refresh: failed to fetch SOL balance for wallet %d: %v", id, err)
	} else if err := s.store.UpdateBalance(id, lamports); err != nil {
		log.Printf("refresh: failed to persist SOL balance for wallet %d: %v", id, err)
	}

	micro, err := s.chain.TokenBalance(ctx, owner)
	if err != nil {
		log.Printf("refresh: failed to fetch USDC balance for wallet %d: %v", id, err)
	} else if err := s.store.UpdateUSDCBalance(id, micro); err != nil {
		log.Printf("refresh: failed to persist USDC balance for wallet %d: %v", id, err)
	}
}
