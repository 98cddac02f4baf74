// Generates a faucet funding keypair and stores it in an encrypted
// keystore. The public key must be funded on devnet before the faucet can
// drip. Usage: go run ./cmd/fundingkey <path/to/funding.keystore>
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/term"

	"paylab/internal/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: fundingkey <path/to/funding.keystore>")
		os.Exit(1)
	}
	path := os.Args[1]

	passphrase, err := readPassphrase()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(passphrase)

	wallet := solana.NewWallet()
	privateKey := []byte(wallet.PrivateKey)
	defer clear(privateKey)

	if err := crypto.WriteKeystore(path, wallet.PublicKey().String(), privateKey, passphrase); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("public key: %s\n", wallet.PublicKey())
	fmt.Printf("keystore:   %s\n", path)
	fmt.Printf("env form:   MASTER_WALLET_SECRET=%s\n", commaBytes(privateKey))
	fmt.Println("fund the public key at https://faucet.solana.com before first use")
}

func readPassphrase() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	fmt.Fprint(os.Stderr, "Repeat passphrase: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

func commaBytes(key []byte) string {
	parts := make([]string, len(key))
	for i, b := range key {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return strings.Join(parts, ",")
}
