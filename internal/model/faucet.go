package model

// FaucetRequest is the body of POST /api/faucet.
type FaucetRequest struct {
	RecipientPublicKey string    `json:"recipientPublicKey"`
	TokenType          TokenType `json:"tokenType"`
}

// FaucetResponse is the success body of POST /api/faucet.
type FaucetResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature"`
	Amount    string `json:"amount"`
	TokenType string `json:"tokenType"`
	Recipient string `json:"recipient"`
}

// AirdropRequest asks the wallet API to drip funds to a stored wallet.
type AirdropRequest struct {
	WalletID  int       `json:"walletId"`
	TokenType TokenType `json:"tokenType"`
}

// AirdropResponse reports a drip plus the caller-side quota that remains.
type AirdropResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature"`
	Amount    string `json:"amount"`
	TokenType string `json:"tokenType"`
	Remaining int    `json:"remaining"`
}
