// Payment patterns lab: a local playground for Solana payment flows.
//
// @title        PayLab API
// @version      1.0
// @description  Practice wallets, payment pattern demos and a devnet faucet
// @BasePath     /
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/term"

	_ "paylab/docs"
	"paylab/internal/api"
	"paylab/internal/checkout"
	"paylab/internal/client"
	"paylab/internal/config"
	"paylab/internal/crypto"
	"paylab/internal/faucet"
	"paylab/internal/flow"
	"paylab/internal/history"
	"paylab/internal/refresh"
	"paylab/internal/session"
	"paylab/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	chain, err := client.NewSolanaClient(cfg.SolanaRPCURL, cfg.USDCMint)
	if err != nil {
		return fmt.Errorf("failed to create RPC client: %w", err)
	}

	st, err := store.Open(config.WalletStorePath())
	if err != nil {
		return fmt.Errorf("failed to open wallet store: %w", err)
	}
	hist, err := history.Open(config.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open history db: %w", err)
	}
	defer hist.Close()

	limiter, err := faucet.OpenLimiter(config.RateLimitPath(), cfg.FaucetMaxDrips)
	if err != nil {
		return fmt.Errorf("failed to open rate limit state: %w", err)
	}

	fundingKey, err := loadFundingKey(cfg)
	if err != nil {
		return err
	}

	confirmTimeout := time.Duration(cfg.ConfirmTimeoutSec) * time.Second
	dripper, err := faucet.NewService(chain, fundingKey, cfg.FaucetSOLAmount, cfg.FaucetUSDCAmount, confirmTimeout)
	if err != nil {
		return err
	}

	refresher := refresh.NewService(chain, st)
	executor := flow.NewExecutor(chain, st, refresher, hist, confirmTimeout)

	// Warm the balance caches before serving
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	refresher.RefreshAll(startupCtx)
	cancel()

	router := api.SetupRouter(api.Deps{
		Store:     st,
		Refresher: refresher,
		Executor:  executor,
		Flows:     flow.All(),
		Registry:  session.NewRegistry(),
		Checkout:  checkout.NewService(chain),
		Faucet:    dripper,
		Limiter:   limiter,
		History:   hist,
		Prices:    client.NewPriceClient(),
	})

	log.Printf("listening on :%s (rpc %s)", cfg.Port, cfg.SolanaRPCURL)
	return http.ListenAndServe(":"+cfg.Port, router)
}

// loadFundingKey resolves the faucet funding key: a raw secret from the
// environment wins, otherwise an encrypted keystore is unlocked with a
// passphrase read from the terminal. The faucet runs unfunded when neither
// is configured.
func loadFundingKey(cfg *config.Config) (solana.PrivateKey, error) {
	if cfg.MasterWalletSecret != "" {
		key, err := faucet.ParseFundingKey(cfg.MasterWalletSecret)
		if err != nil {
			return nil, fmt.Errorf("MASTER_WALLET_SECRET: %w", err)
		}
		return key, nil
	}

	if cfg.FundingKeystorePath != "" {
		fmt.Fprint(os.Stderr, "Keystore passphrase: ")
		passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		defer clear(passphrase)

		publicKey, raw, err := crypto.ReadKeystore(cfg.FundingKeystorePath, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock keystore: %w", err)
		}
		key := solana.PrivateKey(raw)
		if key.PublicKey().String() != publicKey {
			return nil, fmt.Errorf("keystore key does not derive its stored public key")
		}
		log.Printf("faucet funded by %s", publicKey)
		return key, nil
	}

	log.Print("no funding key configured; faucet endpoints will refuse drips")
	return nil, nil
}
