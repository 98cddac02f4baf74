package flow

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/builder"
	"paylab/internal/model"
	"paylab/internal/refresh"
	"paylab/internal/session"
	"paylab/internal/store"
)

// fakeChain serves balances from maps keyed by base58 public key and counts
// submissions, so tests can assert that nothing was sent.
type fakeChain struct {
	mu     sync.Mutex
	native map[string]uint64
	token  map[string]uint64

	sendErr    error
	confirmErr error
	sends      int

	// confirmGate, when set, blocks Confirm until closed.
	confirmGate chan struct{}
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
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sends++
	return solana.Signature{1}, nil
}

func (f *fakeChain) Confirm(ctx context.Context, _ solana.Signature) error {
	if f.confirmGate != nil {
		select {
		case <-f.confirmGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.confirmErr
}

func (f *fakeChain) SignaturesFor(context.Context, solana.PublicKey, int) ([]solana.Signature, error) {
	return nil, nil
}

func (f *fakeChain) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func testStore(t *testing.T, n int) (*store.Store, []model.LocalWallet) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "wallets.json"))
	if err != nil {
		t.Fatal(err)
	}
	wallets := make([]model.LocalWallet, 0, n)
	for i := 0; i < n; i++ {
		w, err := st.AddWallet(solana.NewWallet().PrivateKey)
		if err != nil {
			t.Fatal(err)
		}
		wallets = append(wallets, w)
	}
	return st, wallets
}

func testExecutor(chain *fakeChain, st *store.Store) *Executor {
	return NewExecutor(chain, st, refresh.NewService(chain, st), nil, time.Second)
}

func TestBasicFlowCompletes(t *testing.T) {
	st, ws := testStore(t, 2)
	chain := &fakeChain{native: map[string]uint64{
		ws[0].PublicKey: 2_000_000_000,
	}}
	exec := testExecutor(chain, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.5",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})

	if err := exec.Advance(sess, f); err != nil {
		t.Fatalf("advance to confirm: %v", err)
	}
	if err := exec.Submit(context.Background(), sess, f); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got := sess.Machine.Current(); got != session.StepCompleted {
		t.Errorf("current step = %q, want %q", got, session.StepCompleted)
	}
	if sess.TxSignature == "" {
		t.Error("no signature recorded on session")
	}
	if chain.sendCount() != 1 {
		t.Errorf("sends = %d, want 1", chain.sendCount())
	}
}

func TestInsufficientBalanceBlocksBeforeSend(t *testing.T) {
	st, ws := testStore(t, 2)
	// Enough for the amount but not the reserve
	chain := &fakeChain{native: map[string]uint64{
		ws[0].PublicKey: 500_000_000,
	}}
	exec := testExecutor(chain, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.5",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})

	if err := exec.Advance(sess, f); err != nil {
		t.Fatal(err)
	}
	err := exec.Submit(context.Background(), sess, f)
	if model.KindOf(err) != model.ErrInsufficientFunds {
		t.Fatalf("error kind = %v, want insufficient funds (err: %v)", model.KindOf(err), err)
	}
	if chain.sendCount() != 0 {
		t.Errorf("transaction was sent despite failed funds check")
	}
	// Snapped back to the last interactive step, never terminal
	if got := sess.Machine.Current(); got != session.StepConfirm {
		t.Errorf("current step = %q, want %q", got, session.StepConfirm)
	}
	if sess.Err == nil {
		t.Error("session error not recorded")
	}
}

func TestFailedSendSnapsBackAndRetries(t *testing.T) {
	st, ws := testStore(t, 2)
	chain := &fakeChain{
		native:  map[string]uint64{ws[0].PublicKey: 2_000_000_000},
		sendErr: errors.New("rpc unavailable"),
	}
	exec := testExecutor(chain, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	if err := exec.Advance(sess, f); err != nil {
		t.Fatal(err)
	}

	if err := exec.Submit(context.Background(), sess, f); model.KindOf(err) != model.ErrNetwork {
		t.Fatalf("error kind = %v, want network", model.KindOf(err))
	}
	if got := sess.Machine.Current(); got != session.StepConfirm {
		t.Fatalf("current step = %q, want %q", got, session.StepConfirm)
	}

	// Clearing the fault lets the same session go again
	chain.sendErr = nil
	if err := exec.Submit(context.Background(), sess, f); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if got := sess.Machine.Current(); got != session.StepCompleted {
		t.Errorf("current step after retry = %q, want %q", got, session.StepCompleted)
	}
}

func TestAdvanceValidatesOnFirstStep(t *testing.T) {
	st, ws := testStore(t, 1)
	exec := testExecutor(&fakeChain{}, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.5",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[0].ID,
	})

	err := exec.Advance(sess, f)
	if model.KindOf(err) != model.ErrValidation {
		t.Fatalf("error kind = %v, want validation", model.KindOf(err))
	}
	if got := sess.Machine.Current(); got != session.StepInput {
		t.Errorf("machine moved on invalid input: at %q", got)
	}
}

func TestAdvanceRejectsProcessingStep(t *testing.T) {
	st, ws := testStore(t, 2)
	exec := testExecutor(&fakeChain{native: map[string]uint64{ws[0].PublicKey: 2_000_000_000}}, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.5",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	if err := exec.Advance(sess, f); err != nil {
		t.Fatal(err)
	}
	if err := exec.Advance(sess, f); model.KindOf(err) != model.ErrValidation {
		t.Errorf("advancing into processing should fail, got %v", err)
	}
}

func TestMemoFlowAppendsMemoInstruction(t *testing.T) {
	st, ws := testStore(t, 2)
	chain := &fakeChain{native: map[string]uint64{ws[0].PublicKey: 2_000_000_000}}

	f := &memoFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		Memo:        "thanks for lunch",
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})

	res, perr := f.Build(context.Background(), chain, sess, st.Wallet, session.StepProcessing)
	if perr != nil {
		t.Fatal(perr)
	}
	last := res.Instructions[len(res.Instructions)-1]
	if !last.ProgramID().Equals(builder.MemoProgramID) {
		t.Errorf("last instruction program = %s, want memo program", last.ProgramID())
	}
	data, err := last.Data()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "thanks for lunch" {
		t.Errorf("memo payload = %q", data)
	}
}

func TestMemoFlowRequiresText(t *testing.T) {
	st, ws := testStore(t, 2)
	f := &memoFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	if err := f.Validate(sess, st.Wallet); model.KindOf(err) != model.ErrValidation {
		t.Errorf("empty memo accepted: %v", err)
	}
}

func TestBatchFlowRecipientBounds(t *testing.T) {
	st, ws := testStore(t, 3)
	f := &batchFlow{}

	cases := []struct {
		name       string
		recipients []model.BatchRecipient
		wantErr    bool
	}{
		{"one recipient", []model.BatchRecipient{
			{WalletID: ws[1].ID, Amount: "0.1"},
		}, true},
		{"two recipients", []model.BatchRecipient{
			{WalletID: ws[1].ID, Amount: "0.1"},
			{WalletID: ws[2].ID, Amount: "0.2"},
		}, false},
		{"five recipients", []model.BatchRecipient{
			{WalletID: ws[1].ID, Amount: "0.1"},
			{WalletID: ws[2].ID, Amount: "0.1"},
			{WalletID: ws[1].ID, Amount: "0.1"},
			{WalletID: ws[2].ID, Amount: "0.1"},
			{WalletID: ws[1].ID, Amount: "0.1"},
		}, true},
		{"sender among recipients", []model.BatchRecipient{
			{WalletID: ws[0].ID, Amount: "0.1"},
			{WalletID: ws[1].ID, Amount: "0.1"},
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
				TokenType:  model.TokenSOL,
				SenderID:   ws[0].ID,
				Recipients: tc.recipients,
			})
			err := f.Validate(sess, st.Wallet)
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBatchFlowBuildsOneTransaction(t *testing.T) {
	st, ws := testStore(t, 3)
	chain := &fakeChain{native: map[string]uint64{ws[0].PublicKey: 5_000_000_000}}
	exec := testExecutor(chain, st)

	f := All()[model.DemoBatch]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		TokenType: model.TokenSOL,
		SenderID:  ws[0].ID,
		Recipients: []model.BatchRecipient{
			{WalletID: ws[1].ID, Amount: "0.25"},
			{WalletID: ws[2].ID, Amount: "0.75"},
		},
	})

	if err := exec.Advance(sess, f); err != nil {
		t.Fatal(err)
	}
	if err := exec.Submit(context.Background(), sess, f); err != nil {
		t.Fatal(err)
	}
	if chain.sendCount() != 1 {
		t.Errorf("sends = %d, want a single batched transaction", chain.sendCount())
	}
}

func TestSponsorFlowSignersAndFeePayer(t *testing.T) {
	st, ws := testStore(t, 3)
	chain := &fakeChain{}

	f := &sponsorFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SponsorID:   ws[0].ID,
		SenderID:    ws[1].ID,
		RecipientID: ws[2].ID,
	})

	res, perr := f.Build(context.Background(), chain, sess, st.Wallet, session.StepProcessing)
	if perr != nil {
		t.Fatal(perr)
	}
	if len(res.Signers) != 2 {
		t.Fatalf("signers = %d, want sponsor and sender", len(res.Signers))
	}
	if res.FeePayer.String() != ws[0].PublicKey {
		t.Errorf("fee payer = %s, want sponsor %s", res.FeePayer, ws[0].PublicKey)
	}
	if res.Signers[0].PublicKey().String() != ws[0].PublicKey {
		t.Errorf("first signer is not the sponsor")
	}
}

func TestSponsorFlowRejectsSelfSponsorship(t *testing.T) {
	st, ws := testStore(t, 2)
	f := &sponsorFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SponsorID:   ws[0].ID,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	if err := f.Validate(sess, st.Wallet); model.KindOf(err) != model.ErrValidation {
		t.Errorf("sponsor == sender accepted: %v", err)
	}
}

func TestSponsorFlowChecksSponsorFee(t *testing.T) {
	st, ws := testStore(t, 3)
	// Sender is funded, sponsor holds nothing.
	chain := &fakeChain{native: map[string]uint64{ws[1].PublicKey: 2_000_000_000}}

	f := &sponsorFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SponsorID:   ws[0].ID,
		SenderID:    ws[1].ID,
		RecipientID: ws[2].ID,
	})
	err := f.CheckFunds(context.Background(), chain, sess, st.Wallet, session.StepProcessing)
	if model.KindOf(err) != model.ErrInsufficientFunds {
		t.Errorf("broke sponsor accepted: %v", err)
	}
}

func TestCheckoutFlowRequiresReference(t *testing.T) {
	st, ws := testStore(t, 2)
	chain := &fakeChain{native: map[string]uint64{ws[0].PublicKey: 2_000_000_000}}

	f := &checkoutFlow{}
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})

	if _, perr := f.Build(context.Background(), chain, sess, st.Wallet, session.StepProcessing); perr == nil {
		t.Fatal("build succeeded without a reference key")
	}

	ref := solana.NewWallet().PublicKey()
	sess.Reference = ref.String()
	res, perr := f.Build(context.Background(), chain, sess, st.Wallet, session.StepProcessing)
	if perr != nil {
		t.Fatal(perr)
	}

	last := res.Instructions[len(res.Instructions)-1]
	var found bool
	for _, acc := range last.Accounts() {
		if acc.PublicKey.Equals(ref) {
			found = true
			if acc.IsSigner || acc.IsWritable {
				t.Error("reference must be a read-only non-signer")
			}
		}
	}
	if !found {
		t.Error("reference key not attached to the transfer instruction")
	}
}

func TestPrepaidFlowTwoPhases(t *testing.T) {
	st, ws := testStore(t, 2)
	chain := &fakeChain{native: map[string]uint64{
		ws[0].PublicKey: 2_000_000_000,
		ws[1].PublicKey: 2_000_000_000,
	}}
	exec := testExecutor(chain, st)

	f := All()[model.DemoPrepaid]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.2",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})

	// Deposit phase: idle -> depositing is interactive, then submit
	if err := exec.Advance(sess, f); err != nil {
		t.Fatalf("advance to depositing: %v", err)
	}
	if err := exec.Submit(context.Background(), sess, f); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := sess.Machine.Current(); got != session.StepCharged {
		t.Fatalf("after deposit at %q, want %q", got, session.StepCharged)
	}

	// Spend phase
	if err := exec.Submit(context.Background(), sess, f); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if got := sess.Machine.Current(); got != session.StepSpent {
		t.Fatalf("after spend at %q, want %q", got, session.StepSpent)
	}
	if chain.sendCount() != 2 {
		t.Errorf("sends = %d, want one per phase", chain.sendCount())
	}
}

func TestSessionReadableWhileSubmitInFlight(t *testing.T) {
	st, ws := testStore(t, 2)
	gate := make(chan struct{})
	chain := &fakeChain{
		native:      map[string]uint64{ws[0].PublicKey: 2_000_000_000},
		confirmGate: gate,
	}
	exec := testExecutor(chain, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	if err := exec.Advance(sess, f); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- exec.Submit(context.Background(), sess, f) }()

	// While confirmation is pending, readers must not block and must see
	// the processing step.
	observed := false
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sess.Lock()
		current := sess.Machine.Current()
		sess.Unlock()
		if current == session.StepProcessing {
			observed = true
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !observed {
		close(gate)
		<-done
		t.Fatal("processing step never observable during submit")
	}

	// Mid-flight the session rejects competing operations.
	if err := exec.Advance(sess, f); model.KindOf(err) != model.ErrValidation {
		t.Errorf("concurrent advance: got %v, want validation error", err)
	}
	if err := exec.Submit(context.Background(), sess, f); model.KindOf(err) != model.ErrValidation {
		t.Errorf("concurrent submit: got %v, want validation error", err)
	}
	if err := exec.Reset(sess); err == nil {
		t.Error("concurrent reset allowed mid-flight")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	sess.Lock()
	defer sess.Unlock()
	if got := sess.Machine.Current(); got != session.StepCompleted {
		t.Errorf("final step = %q, want %q", got, session.StepCompleted)
	}
}

func TestResetRejectedWhileProcessing(t *testing.T) {
	st, ws := testStore(t, 2)
	exec := testExecutor(&fakeChain{}, st)

	f := All()[model.DemoBasic]
	sess := session.NewRegistry().Create(f.Kind(), f.Steps(), model.SessionInput{
		Amount:      "0.1",
		TokenType:   model.TokenSOL,
		SenderID:    ws[0].ID,
		RecipientID: ws[1].ID,
	})
	sess.Machine.Advance(session.StepConfirm)
	sess.Machine.Advance(session.StepProcessing)

	if err := exec.Reset(sess); err == nil {
		t.Error("reset allowed mid-processing")
	}
}
