package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Chain is the on-chain surface the rest of the service consumes. Kept
// small so handlers and flows can be tested against a fake.
type Chain interface {
	Mint() solana.PublicKey
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	// TokenBalance returns the associated-token-account balance for the
	// configured mint, or 0 if the account does not exist.
	TokenBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Confirm(ctx context.Context, sig solana.Signature) error
	// SignaturesFor lists recent transaction signatures touching account,
	// newest first. Used by the checkout watcher to find a reference key.
	SignaturesFor(ctx context.Context, account solana.PublicKey, limit int) ([]solana.Signature, error)
}

// SolanaClient is the rpc-backed Chain implementation.
type SolanaClient struct {
	rpcClient *rpc.Client
	mint      solana.PublicKey
}

// NewSolanaClient creates a client for the given RPC endpoint and SPL mint.
func NewSolanaClient(rpcURL, mintAddress string) (*SolanaClient, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		mint:      mint,
	}, nil
}

// Mint returns the configured SPL token mint.
func (c *SolanaClient) Mint() solana.PublicKey { return c.mint }

// NativeBalance gets the SOL balance in lamports.
func (c *SolanaClient) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	balance, err := c.rpcClient.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// TokenBalance gets the token balance in base units for the configured mint.
// A missing associated token account reads as zero.
func (c *SolanaClient) TokenBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, c.mint)
	if err != nil {
		return 0, fmt.Errorf("failed to find associated token account address: %w", err)
	}

	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		if isAccountNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}
	if balance.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance amount: %w", err)
	}
	return amount, nil
}

// AccountExists reports whether the account has been created on-chain.
func (c *SolanaClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := c.rpcClient.GetAccountInfo(ctx, account)
	if err != nil {
		if isAccountNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get account info: %w", err)
	}
	return info != nil && info.Value != nil, nil
}

// LatestBlockhash fetches the blockhash a new transaction must reference.
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// Send submits a fully signed transaction with preflight checks enabled.
func (c *SolanaClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentFinalized,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// Confirm polls signature status until the cluster reports the transaction
// confirmed or finalized, or ctx expires. A transaction that landed with an
// on-chain error is reported as failed, not confirmed.
func (c *SolanaClient) Confirm(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation wait aborted: %w", ctx.Err())
		case <-ticker.C:
		}

		statuses, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			// Transient RPC failures are retried until the deadline
			continue
		}
		if len(statuses.Value) == 0 || statuses.Value[0] == nil {
			continue
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return fmt.Errorf("transaction failed on-chain: %v", status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}

// SignaturesFor lists recent signatures for an address, newest first.
func (c *SolanaClient) SignaturesFor(ctx context.Context, account solana.PublicKey, limit int) ([]solana.Signature, error) {
	sigs, err := c.rpcClient.GetSignaturesForAddressWithOpts(
		ctx,
		account,
		&rpc.GetSignaturesForAddressOpts{
			Limit: &limit,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures for address: %w", err)
	}

	out := make([]solana.Signature, 0, len(sigs))
	for _, s := range sigs {
		// Skip transactions that landed but failed
		if s.Err != nil {
			continue
		}
		out = append(out, s.Signature)
	}
	return out, nil
}

// isAccountNotFoundError checks if the error indicates a missing account
func isAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "could not find account") ||
		strings.Contains(errStr, "not found")
}
