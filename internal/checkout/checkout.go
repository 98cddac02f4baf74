// Package checkout implements the merchant side of the QR demo: a Solana
// Pay request URL rendered as a QR code, and a watcher that polls the chain
// for a transaction carrying the request's reference key.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	qrcode "github.com/skip2/go-qrcode"

	"paylab/internal/client"
	"paylab/internal/common"
	"paylab/internal/model"
	"paylab/internal/session"
)

const (
	qrSize = 512

	// pollInterval between reference lookups while waiting for payment.
	pollInterval = 2 * time.Second

	// signatureLookback bounds each reference query.
	signatureLookback = 10
)

// Service prepares payment requests and watches for their settlement.
type Service struct {
	chain    client.Chain
	interval time.Duration
}

func NewService(chain client.Chain) *Service {
	return &Service{chain: chain, interval: pollInterval}
}

// PayURL renders a Solana Pay transfer request URL. The reference key is a
// throwaway public key embedded in the eventual transaction so the merchant
// can locate it.
func PayURL(recipient solana.PublicKey, amount string, tokenType model.TokenType, mint, reference solana.PublicKey, label, message string) string {
	q := url.Values{}
	q.Set("amount", amount)
	if tokenType == model.TokenUSDC {
		q.Set("spl-token", mint.String())
	}
	q.Set("reference", reference.String())
	if label != "" {
		q.Set("label", label)
	}
	if message != "" {
		q.Set("message", message)
	}
	return fmt.Sprintf("solana:%s?%s", recipient, q.Encode())
}

// Prepare generates a fresh reference key, the pay URL and its QR PNG, and
// stores all three on the session. The caller holds the session lock.
func (s *Service) Prepare(sess *session.Session, merchant model.LocalWallet) *model.PayError {
	in := sess.Input
	if !in.TokenType.Valid() {
		return model.Validationf("tokenType must be sol or usdc")
	}
	decimals := common.SOLDecimals
	if in.TokenType == model.TokenUSDC {
		decimals = common.USDCDecimals
	}
	if !common.IsPositiveAmount(in.Amount, decimals) {
		return model.Validationf("invalid amount %q", in.Amount)
	}

	merchantPub, err := merchant.Pubkey()
	if err != nil {
		return model.Configurationf(err, "merchant public key is unusable")
	}

	reference := solana.NewWallet().PublicKey()
	payURL := PayURL(merchantPub, in.Amount, in.TokenType, s.chain.Mint(), reference, in.Label, in.Message)

	png, err := qrcode.Encode(payURL, qrcode.Medium, qrSize)
	if err != nil {
		return model.Configurationf(err, "failed to render QR code")
	}

	sess.Reference = reference.String()
	sess.PayURL = payURL
	sess.QRPNG = png
	return nil
}

// AwaitPayment polls for a transaction that includes the reference key and
// returns its signature, or the context error on timeout/cancel.
func (s *Service) AwaitPayment(ctx context.Context, reference solana.PublicKey) (solana.Signature, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		sigs, err := s.chain.SignaturesFor(ctx, reference, signatureLookback)
		if err == nil && len(sigs) > 0 {
			return sigs[0], nil
		}

		select {
		case <-ctx.Done():
			return solana.Signature{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
