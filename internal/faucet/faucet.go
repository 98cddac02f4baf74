// Package faucet drips small devnet amounts of SOL and USDC from a funded
// master wallet so the practice wallets have something to send.
package faucet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/builder"
	"paylab/internal/client"
	"paylab/internal/common"
	"paylab/internal/metrics"
	"paylab/internal/model"
)

const (
	// feeLamports budgets the single signature fee per drip.
	feeLamports = 5_000

	// ataRentLamports is the rent-exempt minimum for a token account the
	// faucet may need to create for a first-time USDC recipient.
	ataRentLamports = 2_039_280
)

// Service pays out drips from the funding wallet.
type Service struct {
	chain          client.Chain
	key            solana.PrivateKey
	solLamports    uint64
	usdcMicro      uint64
	confirmTimeout time.Duration
}

// NewService parses the configured drip amounts. solAmount and usdcAmount
// are decimal strings, e.g. "0.01".
func NewService(chain client.Chain, key solana.PrivateKey, solAmount, usdcAmount string, confirmTimeout time.Duration) (*Service, error) {
	lamports, err := common.SOLToLamports(solAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid faucet SOL amount %q: %w", solAmount, err)
	}
	micro, err := common.USDCToMicro(usdcAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid faucet USDC amount %q: %w", usdcAmount, err)
	}
	return &Service{
		chain:          chain,
		key:            key,
		solLamports:    lamports,
		usdcMicro:      micro,
		confirmTimeout: confirmTimeout,
	}, nil
}

// Drip sends one faucet payout to recipient. Validation failures come back
// as ErrValidation, an underfunded faucet as ErrInsufficientFunds, so the
// handler can map them to 400 and 503.
func (s *Service) Drip(ctx context.Context, recipient string, tokenType model.TokenType) (*model.FaucetResponse, *model.PayError) {
	dest, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, model.Validationf("invalid recipient public key")
	}
	if !tokenType.Valid() {
		return nil, model.Validationf("tokenType must be sol or usdc")
	}
	if len(s.key) == 0 {
		return nil, model.Configurationf(nil, "faucet funding wallet is not configured")
	}
	funder := s.key.PublicKey()

	var (
		instrs []solana.Instruction
		amount string
	)
	switch tokenType {
	case model.TokenSOL:
		amount = common.LamportsToSOL(s.solLamports)
		if perr := s.checkSOLFunding(ctx, funder, s.solLamports+feeLamports); perr != nil {
			return nil, perr
		}
		instrs = []solana.Instruction{builder.NativeTransfer(s.solLamports, funder, dest)}

	case model.TokenUSDC:
		amount = common.MicroToUSDC(s.usdcMicro)
		var perr *model.PayError
		instrs, perr = s.usdcInstructions(ctx, funder, dest)
		if perr != nil {
			return nil, perr
		}
	}

	sig, perr := s.submit(ctx, funder, instrs)
	if perr != nil {
		metrics.FaucetDripsCount.WithLabelValues(string(tokenType), "failure").Inc()
		return nil, perr
	}

	metrics.FaucetDripsCount.WithLabelValues(string(tokenType), "success").Inc()
	return &model.FaucetResponse{
		Success:   true,
		Signature: sig.String(),
		Amount:    amount,
		TokenType: string(tokenType),
		Recipient: dest.String(),
	}, nil
}

func (s *Service) checkSOLFunding(ctx context.Context, funder solana.PublicKey, need uint64) *model.PayError {
	balance, err := s.chain.NativeBalance(ctx, funder)
	if err != nil {
		return model.Networkf(err, "failed to check faucet balance")
	}
	if balance < need {
		return model.InsufficientFundsf("faucet wallet is out of SOL")
	}
	return nil
}

func (s *Service) usdcInstructions(ctx context.Context, funder, dest solana.PublicKey) ([]solana.Instruction, *model.PayError) {
	tokenBalance, err := s.chain.TokenBalance(ctx, funder)
	if err != nil {
		return nil, model.Networkf(err, "failed to check faucet USDC balance")
	}
	if tokenBalance < s.usdcMicro {
		return nil, model.InsufficientFundsf("faucet wallet is out of USDC")
	}

	mint := s.chain.Mint()
	destATA, _, err := solana.FindAssociatedTokenAddress(dest, mint)
	if err != nil {
		return nil, model.Networkf(err, "failed to derive token account")
	}
	exists, err := s.chain.AccountExists(ctx, destATA)
	if err != nil {
		return nil, model.Networkf(err, "failed to check recipient token account")
	}

	solNeed := uint64(feeLamports)
	var instrs []solana.Instruction
	if !exists {
		solNeed += ataRentLamports
		instrs = append(instrs, builder.CreateATA(funder, dest, mint))
	}
	if perr := s.checkSOLFunding(ctx, funder, solNeed); perr != nil {
		return nil, perr
	}

	transfer, err := builder.TokenTransfer(s.usdcMicro, mint, funder, dest)
	if err != nil {
		return nil, model.Networkf(err, "failed to build token transfer")
	}
	return append(instrs, transfer), nil
}

func (s *Service) submit(ctx context.Context, funder solana.PublicKey, instrs []solana.Instruction) (solana.Signature, *model.PayError) {
	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, model.Networkf(err, "failed to fetch blockhash")
	}
	tx, err := solana.NewTransaction(instrs, blockhash, solana.TransactionPayer(funder))
	if err != nil {
		return solana.Signature{}, model.Networkf(err, "failed to create transaction")
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if s.key.PublicKey().Equals(key) {
			return &s.key
		}
		return nil
	}); err != nil {
		return solana.Signature{}, model.Networkf(err, "failed to sign transaction")
	}

	sig, err := s.chain.Send(ctx, tx)
	if err != nil {
		return solana.Signature{}, model.Networkf(err, "failed to send transaction")
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	if err := s.chain.Confirm(confirmCtx, sig); err != nil {
		return solana.Signature{}, model.Networkf(err, "transaction was not confirmed")
	}
	return sig, nil
}

// ParseFundingKey decodes a 64-byte private key given as comma-separated
// bytes, the format wallet tooling exports keypairs in.
func ParseFundingKey(secret string) (solana.PrivateKey, error) {
	parts := strings.Split(strings.TrimSpace(secret), ",")
	if len(parts) != 64 {
		return nil, fmt.Errorf("funding key must be 64 comma-separated bytes, got %d", len(parts))
	}
	raw := make([]byte, 64)
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("funding key byte %d: %w", i, err)
		}
		raw[i] = byte(n)
	}
	return solana.PrivateKey(raw), nil
}
