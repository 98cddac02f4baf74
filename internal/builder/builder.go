// Package builder assembles instruction lists for the demo payment
// patterns. Builders are pure: they never talk to the network, so callers
// decide separately whether an ATA-creation instruction is needed.
package builder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// USDCDecimals is fixed by the mint; USDC always has 6 decimals.
const USDCDecimals = 6

// MemoProgramID is the Memo v2 program.
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// NativeTransfer builds a system-program SOL transfer.
func NativeTransfer(lamports uint64, from, to solana.PublicKey) solana.Instruction {
	return system.NewTransferInstruction(lamports, from, to).Build()
}

// TokenTransfer builds a checked SPL transfer between the owners'
// associated token accounts for the given mint.
func TokenTransfer(micro uint64, mint, fromOwner, toOwner solana.PublicKey) (solana.Instruction, error) {
	sourceATA, _, err := solana.FindAssociatedTokenAddress(fromOwner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find source token account address: %w", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(toOwner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find destination token account address: %w", err)
	}

	return token.NewTransferCheckedInstruction(
		micro,
		USDCDecimals,
		sourceATA,
		mint,
		destATA,
		fromOwner,
		[]solana.PublicKey{},
	).Build(), nil
}

// CreateATA builds an associated-token-account creation instruction,
// rent paid by payer.
func CreateATA(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// Memo builds a Memo-program instruction recording text on-chain, signed
// by the payer so the memo is attributable.
func Memo(text string, signer solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		MemoProgramID,
		solana.AccountMetaSlice{solana.Meta(signer).SIGNER()},
		[]byte(text),
	)
}

// WithReference re-emits an instruction with extra read-only, non-signer
// reference keys appended, the Solana Pay convention for locating a payment
// afterwards.
func WithReference(ix solana.Instruction, refs ...solana.PublicKey) (solana.Instruction, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction data: %w", err)
	}

	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts())+len(refs))
	accounts = append(accounts, ix.Accounts()...)
	for _, ref := range refs {
		accounts = append(accounts, solana.Meta(ref))
	}

	return solana.NewInstruction(ix.ProgramID(), accounts, data), nil
}
