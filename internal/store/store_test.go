package store

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "wallets.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAddWalletAssignsSequentialIDs(t *testing.T) {
	s := openTestStore(t)

	for want := 1; want <= model.MaxWallets; want++ {
		w, err := s.AddWallet(solana.NewWallet().PrivateKey)
		if err != nil {
			t.Fatalf("wallet %d: %v", want, err)
		}
		if w.ID != want {
			t.Errorf("wallet id = %d, want %d", w.ID, want)
		}
		if w.Name != strconv.Itoa(want) {
			t.Errorf("wallet name = %q, want %q", w.Name, strconv.Itoa(want))
		}
		if w.Lamports != 0 || w.USDCMicro != 0 {
			t.Errorf("new wallet balances = %d/%d, want zero", w.Lamports, w.USDCMicro)
		}
		if got := s.SelectedID(); got != want {
			t.Errorf("selected id = %d, want auto-selected %d", got, want)
		}
	}
}

func TestAddWalletBeyondCapIsNoOp(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < model.MaxWallets; i++ {
		if _, err := s.AddWallet(solana.NewWallet().PrivateKey); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.AddWallet(solana.NewWallet().PrivateKey); err != ErrWalletLimit {
		t.Fatalf("expected ErrWalletLimit, got %v", err)
	}
	if got := len(s.Wallets()); got != model.MaxWallets {
		t.Errorf("store size = %d, want %d", got, model.MaxWallets)
	}
	// The failed add must not move the selection or burn an id
	if got := s.SelectedID(); got != model.MaxWallets {
		t.Errorf("selected id = %d, want %d", got, model.MaxWallets)
	}
}

func TestSecretKeyDerivesPublicKey(t *testing.T) {
	s := openTestStore(t)

	key := solana.NewWallet().PrivateKey
	w, err := s.AddWallet(key)
	if err != nil {
		t.Fatal(err)
	}

	recovered, err := w.PrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	if recovered.PublicKey().String() != w.PublicKey {
		t.Error("stored publicKey does not match key derived from stored secretKey")
	}
}

func TestUpdateBalancePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	w, err := s.AddWallet(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateBalance(w.ID, 1_000_000); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateUSDCBalance(w.ID, 50_000); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reloaded.Wallet(w.ID)
	if !ok {
		t.Fatal("wallet missing after reload")
	}
	if got.Lamports != 1_000_000 || got.USDCMicro != 50_000 {
		t.Errorf("balances = %d/%d after reload", got.Lamports, got.USDCMicro)
	}
	if reloaded.SelectedID() != w.ID {
		t.Errorf("selected id = %d after reload", reloaded.SelectedID())
	}
}

func TestUpdateBalanceUnknownIDIsNoOp(t *testing.T) {
	s := openTestStore(t)

	w, err := s.AddWallet(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateBalance(99, 123); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Wallet(w.ID)
	if got.Lamports != 0 {
		t.Errorf("unrelated wallet balance changed to %d", got.Lamports)
	}
}

func TestSelectUnknownWallet(t *testing.T) {
	s := openTestStore(t)
	if err := s.Select(5); err != ErrNoWallet {
		t.Fatalf("expected ErrNoWallet, got %v", err)
	}
}

func TestSelectedWalletEmptyStore(t *testing.T) {
	s := openTestStore(t)
	if _, ok := s.SelectedWallet(); ok {
		t.Error("empty store should have no selected wallet")
	}
}
