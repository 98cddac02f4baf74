package flow

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"paylab/internal/builder"
	"paylab/internal/client"
	"paylab/internal/common"
	"paylab/internal/model"
	"paylab/internal/session"
)

// spendDestination receives prepaid-card spends (the demo "coffee shop").
var spendDestination = solana.MustPublicKeyFromBase58("CV1J4GMmgvnNrpJr3m87C8pGTm7xndJd9qdrT2mtMtaz")

// maxBatchRecipients caps one batch transaction.
const maxBatchRecipients = 4

// maxMemoBytes is the Memo program's payload limit.
const maxMemoBytes = 566

// All returns every demo flow keyed by kind.
func All() map[model.DemoKind]Flow {
	flows := []Flow{
		&basicFlow{},
		&usdcFlow{},
		&memoFlow{},
		&batchFlow{},
		&sponsorFlow{},
		&checkoutFlow{},
		&prepaidFlow{},
	}
	m := make(map[model.DemoKind]Flow, len(flows))
	for _, f := range flows {
		m[f.Kind()] = f
	}
	return m
}

// ---- shared helpers ----

func requireWallet(lookup WalletLookup, id int, role string) (model.LocalWallet, *model.PayError) {
	if id == 0 {
		return model.LocalWallet{}, model.Validationf("no %s wallet selected", role)
	}
	w, ok := lookup(id)
	if !ok {
		return model.LocalWallet{}, model.Validationf("%s wallet %d not found", role, id)
	}
	return w, nil
}

func requireKey(w model.LocalWallet) (solana.PrivateKey, *model.PayError) {
	key, err := w.PrivateKey()
	if err != nil {
		return nil, model.Configurationf(err, "wallet %d secret key is unusable", w.ID)
	}
	return key, nil
}

func parseAmount(amount string, tokenType model.TokenType) (uint64, *model.PayError) {
	var (
		n   uint64
		err error
	)
	switch tokenType {
	case model.TokenSOL:
		n, err = common.SOLToLamports(amount)
	case model.TokenUSDC:
		n, err = common.USDCToMicro(amount)
	default:
		return 0, model.Validationf("tokenType must be sol or usdc")
	}
	if err != nil {
		return 0, model.Validationf("invalid amount %q", amount)
	}
	if n == 0 {
		return 0, model.Validationf("amount must be positive")
	}
	return n, nil
}

// checkNativeFunds verifies that owner's live balance covers amount plus the
// rent/fee reserve.
func checkNativeFunds(ctx context.Context, chain client.Chain, w model.LocalWallet, lamports uint64) *model.PayError {
	owner, err := w.Pubkey()
	if err != nil {
		return model.Configurationf(err, "wallet %d public key is unusable", w.ID)
	}
	balance, err := chain.NativeBalance(ctx, owner)
	if err != nil {
		return model.Networkf(err, "failed to check balance")
	}
	if balance < lamports+minReserveLamports {
		return model.InsufficientFundsf(
			"insufficient SOL balance: have %s, need %s plus %s reserve",
			common.LamportsToSOL(balance),
			common.LamportsToSOL(lamports),
			common.LamportsToSOL(minReserveLamports),
		)
	}
	return nil
}

// checkTokenFunds verifies the live USDC balance covers micro, and that the
// wallet holds enough SOL for the fee.
func checkTokenFunds(ctx context.Context, chain client.Chain, w model.LocalWallet, micro uint64) *model.PayError {
	owner, err := w.Pubkey()
	if err != nil {
		return model.Configurationf(err, "wallet %d public key is unusable", w.ID)
	}
	tokenBalance, err := chain.TokenBalance(ctx, owner)
	if err != nil {
		return model.Networkf(err, "failed to check USDC balance")
	}
	if tokenBalance < micro {
		return model.InsufficientFundsf(
			"insufficient USDC balance: have %s, need %s",
			common.MicroToUSDC(tokenBalance),
			common.MicroToUSDC(micro),
		)
	}
	solBalance, err := chain.NativeBalance(ctx, owner)
	if err != nil {
		return model.Networkf(err, "failed to check SOL balance")
	}
	if solBalance < feeLamports {
		return model.InsufficientFundsf(
			"insufficient SOL for transaction fee (fee: %s SOL)",
			common.LamportsToSOL(feeLamports),
		)
	}
	return nil
}

// transferInstructions builds a SOL or USDC transfer from sender to
// recipient, prepending ATA creation (paid by ataPayer) when the recipient
// has no token account yet.
func transferInstructions(ctx context.Context, chain client.Chain, tokenType model.TokenType, amount uint64, sender, recipient, ataPayer solana.PublicKey) ([]solana.Instruction, *model.PayError) {
	if tokenType == model.TokenSOL {
		return []solana.Instruction{builder.NativeTransfer(amount, sender, recipient)}, nil
	}

	mint := chain.Mint()
	var instrs []solana.Instruction

	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, model.Networkf(err, "failed to derive token account")
	}
	exists, err := chain.AccountExists(ctx, destATA)
	if err != nil {
		return nil, model.Networkf(err, "failed to check recipient token account")
	}
	if !exists {
		instrs = append(instrs, builder.CreateATA(ataPayer, recipient, mint))
	}

	transfer, err := builder.TokenTransfer(amount, mint, sender, recipient)
	if err != nil {
		return nil, model.Networkf(err, "failed to build token transfer")
	}
	return append(instrs, transfer), nil
}

func currencyOf(tokenType model.TokenType) string {
	if tokenType == model.TokenUSDC {
		return "USDC"
	}
	return "SOL"
}

// singleTransfer covers the classic sender→recipient demos (basic, usdc,
// memo): shared validation, funds check and build.
type singleTransfer struct{}

func (singleTransfer) validate(sess *session.Session, lookup WalletLookup, tokenType model.TokenType) *model.PayError {
	in := sess.Input
	if _, err := requireWallet(lookup, in.SenderID, "sender"); err != nil {
		return err
	}
	if _, err := requireWallet(lookup, in.RecipientID, "recipient"); err != nil {
		return err
	}
	if in.SenderID == in.RecipientID {
		return model.Validationf("sender and recipient must differ")
	}
	if _, err := parseAmount(in.Amount, tokenType); err != nil {
		return err
	}
	return nil
}

func (singleTransfer) checkFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, tokenType model.TokenType) *model.PayError {
	sender, perr := requireWallet(lookup, sess.Input.SenderID, "sender")
	if perr != nil {
		return perr
	}
	amount, perr := parseAmount(sess.Input.Amount, tokenType)
	if perr != nil {
		return perr
	}
	if tokenType == model.TokenSOL {
		return checkNativeFunds(ctx, chain, sender, amount)
	}
	return checkTokenFunds(ctx, chain, sender, amount)
}

func (singleTransfer) build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, tokenType model.TokenType) (*BuildResult, *model.PayError) {
	in := sess.Input
	sender, perr := requireWallet(lookup, in.SenderID, "sender")
	if perr != nil {
		return nil, perr
	}
	recipient, perr := requireWallet(lookup, in.RecipientID, "recipient")
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount(in.Amount, tokenType)
	if perr != nil {
		return nil, perr
	}
	senderKey, perr := requireKey(sender)
	if perr != nil {
		return nil, perr
	}
	senderPub := senderKey.PublicKey()
	recipientPub, err := recipient.Pubkey()
	if err != nil {
		return nil, model.Configurationf(err, "recipient public key is unusable")
	}

	instrs, perr := transferInstructions(ctx, chain, tokenType, amount, senderPub, recipientPub, senderPub)
	if perr != nil {
		return nil, perr
	}

	return &BuildResult{
		Instructions: instrs,
		Signers:      []solana.PrivateKey{senderKey},
		FeePayer:     senderPub,
		Touched:      []int{sender.ID, recipient.ID},
		From:         sender.PublicKey,
		To:           recipient.PublicKey,
		Amount:       in.Amount,
		Currency:     currencyOf(tokenType),
	}, nil
}

// ---- basic SOL transfer ----

type basicFlow struct{ singleTransfer }

func (basicFlow) Kind() model.DemoKind { return model.DemoBasic }

func (basicFlow) Steps() []session.Step {
	return []session.Step{session.StepInput, session.StepConfirm, session.StepProcessing, session.StepCompleted}
}

func (f *basicFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	return f.validate(sess, lookup, model.TokenSOL)
}

func (f *basicFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	return f.checkFunds(ctx, chain, sess, lookup, model.TokenSOL)
}

func (f *basicFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	return f.build(ctx, chain, sess, lookup, model.TokenSOL)
}

// ---- SPL token transfer ----

type usdcFlow struct{ singleTransfer }

func (usdcFlow) Kind() model.DemoKind { return model.DemoUSDC }

func (usdcFlow) Steps() []session.Step {
	return []session.Step{session.StepInput, session.StepConfirm, session.StepProcessing, session.StepCompleted}
}

func (f *usdcFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	return f.validate(sess, lookup, model.TokenUSDC)
}

func (f *usdcFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	return f.checkFunds(ctx, chain, sess, lookup, model.TokenUSDC)
}

func (f *usdcFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	return f.build(ctx, chain, sess, lookup, model.TokenUSDC)
}

// ---- memo-tagged payment ----

type memoFlow struct{ singleTransfer }

func (memoFlow) Kind() model.DemoKind { return model.DemoMemo }

func (memoFlow) Steps() []session.Step {
	return []session.Step{session.StepInput, session.StepConfirm, session.StepProcessing, session.StepCompleted}
}

func (f *memoFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	if sess.Input.Memo == "" {
		return model.Validationf("memo text is required")
	}
	if len(sess.Input.Memo) > maxMemoBytes {
		return model.Validationf("memo exceeds %d bytes", maxMemoBytes)
	}
	return f.validate(sess, lookup, model.TokenSOL)
}

func (f *memoFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	return f.checkFunds(ctx, chain, sess, lookup, model.TokenSOL)
}

func (f *memoFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	res, perr := f.build(ctx, chain, sess, lookup, model.TokenSOL)
	if perr != nil {
		return nil, perr
	}
	res.Instructions = append(res.Instructions, builder.Memo(sess.Input.Memo, res.FeePayer))
	return res, nil
}

// ---- batch payment ----

type batchFlow struct{}

func (batchFlow) Kind() model.DemoKind { return model.DemoBatch }

func (batchFlow) Steps() []session.Step {
	return []session.Step{session.StepInput, session.StepConfirm, session.StepProcessing, session.StepCompleted}
}

func (batchFlow) total(in model.SessionInput) (uint64, *model.PayError) {
	var total uint64
	for _, r := range in.Recipients {
		n, perr := parseAmount(r.Amount, in.TokenType)
		if perr != nil {
			return 0, perr
		}
		total += n
	}
	return total, nil
}

func (f *batchFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	in := sess.Input
	if !in.TokenType.Valid() {
		return model.Validationf("tokenType must be sol or usdc")
	}
	if _, err := requireWallet(lookup, in.SenderID, "sender"); err != nil {
		return err
	}
	if len(in.Recipients) < 2 || len(in.Recipients) > maxBatchRecipients {
		return model.Validationf("batch needs 2 to %d recipients", maxBatchRecipients)
	}
	for _, r := range in.Recipients {
		if _, err := requireWallet(lookup, r.WalletID, "recipient"); err != nil {
			return err
		}
		if r.WalletID == in.SenderID {
			return model.Validationf("sender cannot be a batch recipient")
		}
	}
	_, perr := f.total(in)
	return perr
}

func (f *batchFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	sender, perr := requireWallet(lookup, sess.Input.SenderID, "sender")
	if perr != nil {
		return perr
	}
	total, perr := f.total(sess.Input)
	if perr != nil {
		return perr
	}
	if sess.Input.TokenType == model.TokenSOL {
		return checkNativeFunds(ctx, chain, sender, total)
	}
	return checkTokenFunds(ctx, chain, sender, total)
}

func (f *batchFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	in := sess.Input
	sender, perr := requireWallet(lookup, in.SenderID, "sender")
	if perr != nil {
		return nil, perr
	}
	senderKey, perr := requireKey(sender)
	if perr != nil {
		return nil, perr
	}
	senderPub := senderKey.PublicKey()

	var instrs []solana.Instruction
	touched := []int{sender.ID}

	for _, r := range in.Recipients {
		recipient, perr := requireWallet(lookup, r.WalletID, "recipient")
		if perr != nil {
			return nil, perr
		}
		recipientPub, err := recipient.Pubkey()
		if err != nil {
			return nil, model.Configurationf(err, "recipient public key is unusable")
		}
		amount, perr := parseAmount(r.Amount, in.TokenType)
		if perr != nil {
			return nil, perr
		}

		legs, perr := transferInstructions(ctx, chain, in.TokenType, amount, senderPub, recipientPub, senderPub)
		if perr != nil {
			return nil, perr
		}
		instrs = append(instrs, legs...)
		touched = append(touched, recipient.ID)
	}

	total, perr := f.total(in)
	if perr != nil {
		return nil, perr
	}
	var totalStr string
	if in.TokenType == model.TokenSOL {
		totalStr = common.LamportsToSOL(total)
	} else {
		totalStr = common.MicroToUSDC(total)
	}

	return &BuildResult{
		Instructions: instrs,
		Signers:      []solana.PrivateKey{senderKey},
		FeePayer:     senderPub,
		Touched:      touched,
		From:         sender.PublicKey,
		To:           "batch",
		Amount:       totalStr,
		Currency:     currencyOf(in.TokenType),
	}, nil
}

// ---- fee sponsorship ----

type sponsorFlow struct{}

func (sponsorFlow) Kind() model.DemoKind { return model.DemoSponsor }

func (sponsorFlow) Steps() []session.Step {
	return []session.Step{session.StepInput, session.StepConfirm, session.StepSponsorSign, session.StepProcessing, session.StepCompleted}
}

func (f *sponsorFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	in := sess.Input
	if !in.TokenType.Valid() {
		return model.Validationf("tokenType must be sol or usdc")
	}
	if _, err := requireWallet(lookup, in.SponsorID, "sponsor"); err != nil {
		return err
	}
	if _, err := requireWallet(lookup, in.SenderID, "sender"); err != nil {
		return err
	}
	if _, err := requireWallet(lookup, in.RecipientID, "recipient"); err != nil {
		return err
	}
	if in.SponsorID == in.SenderID {
		return model.Validationf("sponsor and sender must differ, that is the point of the demo")
	}
	if _, err := parseAmount(in.Amount, in.TokenType); err != nil {
		return err
	}
	return nil
}

func (f *sponsorFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	in := sess.Input
	sender, perr := requireWallet(lookup, in.SenderID, "sender")
	if perr != nil {
		return perr
	}
	sponsor, perr := requireWallet(lookup, in.SponsorID, "sponsor")
	if perr != nil {
		return perr
	}
	amount, perr := parseAmount(in.Amount, in.TokenType)
	if perr != nil {
		return perr
	}

	// The sender authorizes value; the sponsor pays fees (and rent for a
	// missing recipient token account).
	if in.TokenType == model.TokenSOL {
		if perr := checkNativeFunds(ctx, chain, sender, amount); perr != nil {
			return perr
		}
	} else {
		owner, err := sender.Pubkey()
		if err != nil {
			return model.Configurationf(err, "sender public key is unusable")
		}
		tokenBalance, err := chain.TokenBalance(ctx, owner)
		if err != nil {
			return model.Networkf(err, "failed to check USDC balance")
		}
		if tokenBalance < amount {
			return model.InsufficientFundsf("insufficient USDC balance")
		}
	}

	sponsorPub, err := sponsor.Pubkey()
	if err != nil {
		return model.Configurationf(err, "sponsor public key is unusable")
	}
	sponsorBalance, err := chain.NativeBalance(ctx, sponsorPub)
	if err != nil {
		return model.Networkf(err, "failed to check sponsor balance")
	}
	if sponsorBalance < feeLamports {
		return model.InsufficientFundsf("sponsor has insufficient SOL for the fee")
	}
	return nil
}

func (f *sponsorFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	in := sess.Input
	sponsor, perr := requireWallet(lookup, in.SponsorID, "sponsor")
	if perr != nil {
		return nil, perr
	}
	sender, perr := requireWallet(lookup, in.SenderID, "sender")
	if perr != nil {
		return nil, perr
	}
	recipient, perr := requireWallet(lookup, in.RecipientID, "recipient")
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount(in.Amount, in.TokenType)
	if perr != nil {
		return nil, perr
	}

	sponsorKey, perr := requireKey(sponsor)
	if perr != nil {
		return nil, perr
	}
	senderKey, perr := requireKey(sender)
	if perr != nil {
		return nil, perr
	}
	recipientPub, err := recipient.Pubkey()
	if err != nil {
		return nil, model.Configurationf(err, "recipient public key is unusable")
	}

	// ATA creation rent, like the fee, is sponsored
	instrs, perr := transferInstructions(ctx, chain, in.TokenType, amount, senderKey.PublicKey(), recipientPub, sponsorKey.PublicKey())
	if perr != nil {
		return nil, perr
	}

	return &BuildResult{
		Instructions: instrs,
		Signers:      []solana.PrivateKey{sponsorKey, senderKey},
		FeePayer:     sponsorKey.PublicKey(),
		Touched:      []int{sponsor.ID, sender.ID, recipient.ID},
		From:         sender.PublicKey,
		To:           recipient.PublicKey,
		Amount:       in.Amount,
		Currency:     currencyOf(in.TokenType),
	}, nil
}

// ---- Solana Pay QR checkout ----

type checkoutFlow struct{ singleTransfer }

func (checkoutFlow) Kind() model.DemoKind { return model.DemoCheckout }

func (checkoutFlow) Steps() []session.Step {
	return []session.Step{
		session.StepInput, session.StepQRGenerated, session.StepScanning,
		session.StepConfirming, session.StepProcessing, session.StepCompleted,
	}
}

func (f *checkoutFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	if !sess.Input.TokenType.Valid() {
		return model.Validationf("tokenType must be sol or usdc")
	}
	// Recipient is the merchant; sender plays the scanning phone
	return f.validate(sess, lookup, sess.Input.TokenType)
}

func (f *checkoutFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) *model.PayError {
	return f.checkFunds(ctx, chain, sess, lookup, sess.Input.TokenType)
}

func (f *checkoutFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, _ session.Step) (*BuildResult, *model.PayError) {
	res, perr := f.build(ctx, chain, sess, lookup, sess.Input.TokenType)
	if perr != nil {
		return nil, perr
	}
	if sess.Reference == "" {
		return nil, model.Validationf("checkout session has no reference; generate the QR first")
	}
	ref, err := solana.PublicKeyFromBase58(sess.Reference)
	if err != nil {
		return nil, model.Configurationf(err, "checkout reference is unusable")
	}

	// Tag the transfer leg with the reference key so the merchant side can
	// find the payment afterwards.
	last := len(res.Instructions) - 1
	tagged, err := builder.WithReference(res.Instructions[last], ref)
	if err != nil {
		return nil, model.Networkf(err, "failed to attach reference")
	}
	res.Instructions[last] = tagged
	return res, nil
}

// ---- prepaid card top-up and spend ----

type prepaidFlow struct{}

func (prepaidFlow) Kind() model.DemoKind { return model.DemoPrepaid }

func (prepaidFlow) Steps() []session.Step {
	return []session.Step{
		session.StepIdle, session.StepDepositing, session.StepProcessing,
		session.StepCharged, session.StepSpending, session.StepSpent,
	}
}

func (f *prepaidFlow) Validate(sess *session.Session, lookup WalletLookup) *model.PayError {
	in := sess.Input
	if !in.TokenType.Valid() {
		return model.Validationf("tokenType must be sol or usdc")
	}
	if _, err := requireWallet(lookup, in.SenderID, "user"); err != nil {
		return err
	}
	if _, err := requireWallet(lookup, in.RecipientID, "card operator"); err != nil {
		return err
	}
	if in.SenderID == in.RecipientID {
		return model.Validationf("user and card operator must differ")
	}
	_, perr := parseAmount(in.Amount, in.TokenType)
	return perr
}

func (f *prepaidFlow) CheckFunds(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, at session.Step) *model.PayError {
	in := sess.Input
	amount, perr := parseAmount(in.Amount, in.TokenType)
	if perr != nil {
		return perr
	}

	// Deposit draws on the user wallet, spend on the operator wallet.
	role, id := "user", in.SenderID
	if at == session.StepSpending {
		role, id = "card operator", in.RecipientID
	}
	w, perr := requireWallet(lookup, id, role)
	if perr != nil {
		return perr
	}
	if in.TokenType == model.TokenSOL {
		return checkNativeFunds(ctx, chain, w, amount)
	}
	return checkTokenFunds(ctx, chain, w, amount)
}

func (f *prepaidFlow) Build(ctx context.Context, chain client.Chain, sess *session.Session, lookup WalletLookup, at session.Step) (*BuildResult, *model.PayError) {
	in := sess.Input
	user, perr := requireWallet(lookup, in.SenderID, "user")
	if perr != nil {
		return nil, perr
	}
	operator, perr := requireWallet(lookup, in.RecipientID, "card operator")
	if perr != nil {
		return nil, perr
	}
	amount, perr := parseAmount(in.Amount, in.TokenType)
	if perr != nil {
		return nil, perr
	}

	if at == session.StepSpending {
		// Spend the full card balance from the operator to the fixed
		// merchant destination.
		operatorKey, perr := requireKey(operator)
		if perr != nil {
			return nil, perr
		}
		instrs, perr := transferInstructions(ctx, chain, in.TokenType, amount, operatorKey.PublicKey(), spendDestination, operatorKey.PublicKey())
		if perr != nil {
			return nil, perr
		}
		return &BuildResult{
			Instructions: instrs,
			Signers:      []solana.PrivateKey{operatorKey},
			FeePayer:     operatorKey.PublicKey(),
			Touched:      []int{operator.ID},
			From:         operator.PublicKey,
			To:           spendDestination.String(),
			Amount:       in.Amount,
			Currency:     currencyOf(in.TokenType),
		}, nil
	}

	// Deposit: user tops up the card operator wallet
	userKey, perr := requireKey(user)
	if perr != nil {
		return nil, perr
	}
	operatorPub, err := operator.Pubkey()
	if err != nil {
		return nil, model.Configurationf(err, "card operator public key is unusable")
	}
	instrs, perr := transferInstructions(ctx, chain, in.TokenType, amount, userKey.PublicKey(), operatorPub, userKey.PublicKey())
	if perr != nil {
		return nil, perr
	}
	return &BuildResult{
		Instructions: instrs,
		Signers:      []solana.PrivateKey{userKey},
		FeePayer:     userKey.PublicKey(),
		Touched:      []int{user.ID, operator.ID},
		From:         user.PublicKey,
		To:           operator.PublicKey,
		Amount:       in.Amount,
		Currency:     currencyOf(in.TokenType),
	}, nil
}
