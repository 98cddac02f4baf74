// Package flow orchestrates the demo payment pipelines. Each demo is a
// Flow strategy that validates inputs and assembles instructions; the
// Executor drives a session's state machine through the shared
// submit-and-confirm pipeline.
package flow

import (
	"context"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/client"
	"paylab/internal/history"
	"paylab/internal/metrics"
	"paylab/internal/model"
	"paylab/internal/refresh"
	"paylab/internal/session"
	"paylab/internal/store"
)

const (
	// minReserveLamports keeps wallets rent-exempt with a fee buffer
	// (~0.00089 SOL rent plus margin).
	minReserveLamports = 1_000_000

	// feeLamports is the flat signature fee budgeted per transaction.
	feeLamports = 5_000
)

// WalletLookup resolves a stored wallet by id.
type WalletLookup func(id int) (model.LocalWallet, bool)

// BuildResult is everything the executor needs to sign, submit and record
// one transaction.
type BuildResult struct {
	Instructions []solana.Instruction
	Signers      []solana.PrivateKey
	FeePayer     solana.PublicKey

	// Touched lists wallet ids whose balances must be re-queried after
	// the transaction confirms.
	Touched []int

	// History fields
	From     string
	To       string
	Amount   string
	Currency string
}

// Flow is one demo's strategy: which steps it has, what valid input looks
// like, and how to build its transaction(s).
type Flow interface {
	Kind() model.DemoKind
	Steps() []session.Step

	// Validate guards the first interactive advance: required wallets
	// selected and the amount syntactically valid and positive.
	Validate(sess *session.Session, lookup WalletLookup) *model.PayError

	// CheckFunds re-validates live balances against the required amount
	// plus the fixed reserve, immediately before submission. at is the
	// processing step being entered (flows with two submit phases care).
	CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, at session.Step) *model.PayError

	// Build assembles the instruction list and signers for the phase
	// entered at the given processing step.
	Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, at session.Step) (*BuildResult, *model.PayError)
}

// processing-like steps are entered by Submit only, never by Advance.
func isProcessingStep(s session.Step) bool {
	return s == session.StepProcessing || s == session.StepSpending
}

// Executor runs sessions through their machines against the chain.
type Executor struct {
	chain          client.Chain
	store          *store.Store
	refresher      *refresh.Service
	history        *history.Store
	confirmTimeout time.Duration
}

// NewExecutor wires the executor. history may be nil in tests.
func NewExecutor(chain client.Chain, st *store.Store, refresher *refresh.Service, hist *history.Store, confirmTimeout time.Duration) *Executor {
	return &Executor{
		chain:          chain,
		store:          st,
		refresher:      refresher,
		history:        hist,
		confirmTimeout: confirmTimeout,
	}
}

// Advance moves a session one interactive step forward. The first advance
// runs the flow's input validation; processing steps are rejected (those go
// through Submit).
func (e *Executor) Advance(sess *session.Session, f Flow) error {
	sess.Lock()
	defer sess.Unlock()

	if isProcessingStep(sess.Machine.Current()) {
		return model.Validationf("session is processing")
	}

	next, ok := sess.Machine.Next()
	if !ok {
		return model.Validationf("session already completed")
	}
	if isProcessingStep(next) {
		return model.Validationf("next step %q requires submit", next)
	}

	if sess.Machine.Current() == f.Steps()[0] {
		if err := f.Validate(sess, e.store.Wallet); err != nil {
			return err
		}
	}

	sess.ClearError()
	if err := sess.Machine.Advance(next); err != nil {
		return model.Validationf("%v", err)
	}
	return nil
}

// Submit drives one processing phase: (a) re-check balances, (b) build
// instructions, (c) fetch a fresh blockhash, (d) sign, (e) submit,
// (f) await confirmation, (g) refresh touched wallets, (h) record the
// signature, (i) advance past the processing step. Any failure in (a)-(g)
// snaps the session back to its last interactive step; the ledger operation
// is atomic, so no partial application can occur.
func (e *Executor) Submit(ctx context.Context, sess *session.Session, f Flow) error {
	sess.Lock()
	at, ok := sess.Machine.Next()
	if !ok || !isProcessingStep(at) {
		current := sess.Machine.Current()
		sess.Unlock()
		return model.Validationf("session is not ready to submit (at %q)", current)
	}

	sess.ClearError()
	if err := sess.Machine.Advance(at); err != nil {
		sess.Unlock()
		return model.Validationf("%v", err)
	}
	sess.Unlock()

	// The lock is dropped while the pipeline talks to the chain so the
	// session stays readable mid-flight. The machine sitting at the
	// processing step is what keeps concurrent Advance/Submit/Reset out;
	// only this call moves it again.
	sig, res, perr := e.run(ctx, sess, f, at)

	sess.Lock()
	defer sess.Unlock()

	if perr != nil {
		sess.Fail(perr)
		metrics.PaymentsCount.WithLabelValues(string(f.Kind()), "failure").Inc()
		log.Printf("flow %s: submit failed at %q: %v", f.Kind(), at, perr)
		return perr
	}

	sess.TxSignature = sig.String()
	done, _ := sess.Machine.Next()
	if err := sess.Machine.Advance(done); err != nil {
		// Order bugs only; the transfer itself already confirmed
		return model.Validationf("%v", err)
	}

	e.record(f.Kind(), sig, res)
	e.refresher.RefreshWallets(ctx, res.Touched...)
	metrics.PaymentsCount.WithLabelValues(string(f.Kind()), "success").Inc()
	return nil
}

// run performs pipeline stages (a)-(f) and returns the confirmed signature.
func (e *Executor) run(ctx context.Context, sess *session.Session, f Flow, at session.Step) (solana.Signature, *BuildResult, *model.PayError) {
	if perr := f.CheckFunds(ctx, e.chain, sess, e.store.Wallet, at); perr != nil {
		return solana.Signature{}, nil, perr
	}

	res, perr := f.Build(ctx, e.chain, sess, e.store.Wallet, at)
	if perr != nil {
		return solana.Signature{}, nil, perr
	}

	blockhash, err := e.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, nil, model.Networkf(err, "failed to fetch blockhash")
	}

	tx, err := solana.NewTransaction(
		res.Instructions,
		blockhash,
		solana.TransactionPayer(res.FeePayer),
	)
	if err != nil {
		return solana.Signature{}, nil, model.Networkf(err, "failed to create transaction")
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range res.Signers {
			if res.Signers[i].PublicKey().Equals(key) {
				return &res.Signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, nil, model.Networkf(err, "failed to sign transaction")
	}

	sig, err := e.chain.Send(ctx, tx)
	if err != nil {
		return solana.Signature{}, nil, model.Networkf(err, "failed to send transaction")
	}

	confirmCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()
	if err := e.chain.Confirm(confirmCtx, sig); err != nil {
		return solana.Signature{}, nil, model.Networkf(err, "transaction was not confirmed")
	}

	return sig, res, nil
}

// Reset re-initializes a session from its terminal or an interactive step.
func (e *Executor) Reset(sess *session.Session) error {
	sess.Lock()
	defer sess.Unlock()

	if isProcessingStep(sess.Machine.Current()) {
		return model.Validationf("cannot reset while processing")
	}
	sess.Reset()
	return nil
}

func (e *Executor) record(kind model.DemoKind, sig solana.Signature, res *BuildResult) {
	if e.history == nil {
		return
	}
	err := e.history.SavePayment(history.Payment{
		Kind:      string(kind),
		Signature: sig.String(),
		From:      res.From,
		To:        res.To,
		Amount:    res.Amount,
		Currency:  res.Currency,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("history: failed to record payment %s: %v", sig, err)
	}
}
