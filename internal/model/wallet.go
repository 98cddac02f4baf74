package model

import (
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/common"
)

// MaxWallets is the hard cap on live practice wallets.
const MaxWallets = 3

// LocalWallet is a locally generated throwaway devnet keypair with cached
// balances. Balances are caches of on-chain state, kept in base units
// (lamports / USDC micro) and re-checked immediately before any spend.
type LocalWallet struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"` // base58
	SecretKey string `json:"secretKey"` // hex-encoded 64-byte private key
	Lamports  uint64 `json:"lamports"`
	USDCMicro uint64 `json:"usdcMicro"`
}

// PrivateKey decodes the stored secret and verifies it still derives the
// stored public key. The two are written atomically together; a mismatch
// means the store was corrupted.
func (w LocalWallet) PrivateKey() (solana.PrivateKey, error) {
	raw, err := hex.DecodeString(w.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("invalid secret key length: expected 64 bytes, got %d", len(raw))
	}
	key := solana.PrivateKey(raw)
	if key.PublicKey().String() != w.PublicKey {
		return nil, fmt.Errorf("secret key does not derive stored public key")
	}
	return key, nil
}

// Pubkey parses the stored base58 public key.
func (w LocalWallet) Pubkey() (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(w.PublicKey)
}

// WalletView is the API representation of a wallet: base units plus display
// strings, secret key omitted unless explicitly exported.
type WalletView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
	SOL       string `json:"sol"`
	USDC      string `json:"usdc"`
	Lamports  uint64 `json:"lamports"`
	USDCMicro uint64 `json:"usdcMicro"`
	Selected  bool   `json:"selected"`
}

// View builds the API representation.
func (w LocalWallet) View(selected bool) WalletView {
	return WalletView{
		ID:        w.ID,
		Name:      w.Name,
		PublicKey: w.PublicKey,
		SOL:       common.LamportsToSOL(w.Lamports),
		USDC:      common.MicroToUSDC(w.USDCMicro),
		Lamports:  w.Lamports,
		USDCMicro: w.USDCMicro,
		Selected:  selected,
	}
}
