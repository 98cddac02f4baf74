package model

// TokenType selects which asset a demo moves.
type TokenType string

const (
	TokenSOL  TokenType = "sol"
	TokenUSDC TokenType = "usdc"
)

// Valid reports whether t is one of the two allowed literals.
func (t TokenType) Valid() bool {
	return t == TokenSOL || t == TokenUSDC
}

// DemoKind names the payment pattern a session demonstrates.
type DemoKind string

const (
	DemoBasic    DemoKind = "basic"    // native SOL transfer
	DemoUSDC     DemoKind = "usdc"     // SPL token transfer
	DemoMemo     DemoKind = "memo"     // memo-tagged payment
	DemoBatch    DemoKind = "batch"    // one transaction, multiple recipients
	DemoSponsor  DemoKind = "sponsor"  // fee sponsorship, two signers
	DemoCheckout DemoKind = "checkout" // Solana Pay QR checkout
	DemoPrepaid  DemoKind = "prepaid"  // prepaid card top-up and spend
)

// BatchRecipient is one leg of a batch payment.
type BatchRecipient struct {
	WalletID int    `json:"walletId"`
	Amount   string `json:"amount"`
}

// SessionInput holds the user-supplied fields of a payment session. Amounts
// stay decimal strings until they are converted to base units inside a
// builder; which fields matter depends on the demo kind.
type SessionInput struct {
	Amount      string           `json:"amount,omitempty"`
	TokenType   TokenType        `json:"tokenType,omitempty"`
	Memo        string           `json:"memo,omitempty"`
	SenderID    int              `json:"senderId,omitempty"`
	RecipientID int              `json:"recipientId,omitempty"`
	SponsorID   int              `json:"sponsorId,omitempty"`
	Recipients  []BatchRecipient `json:"recipients,omitempty"`
	Label       string           `json:"label,omitempty"`
	Message     string           `json:"message,omitempty"`
}

// SessionView is the API representation of a payment session.
type SessionView struct {
	ID          string       `json:"id"`
	Kind        DemoKind     `json:"kind"`
	Step        string       `json:"step"`
	Steps       []string     `json:"steps"`
	Input       SessionInput `json:"input"`
	TxSignature string       `json:"txSignature,omitempty"`
	PayURL      string       `json:"payUrl,omitempty"`
	Reference   string       `json:"reference,omitempty"`
	Error       string       `json:"error,omitempty"`
	ErrorKind   string       `json:"errorKind,omitempty"`
}
