package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the service.
// The faucet funding key comes either from MASTER_WALLET_SECRET (raw byte
// array as a comma-separated string) or from an encrypted keystore file.
type Config struct {
	Port                string `envconfig:"PORT" default:"8080"`
	SolanaRPCURL        string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	USDCMint            string `envconfig:"USDC_MINT" default:"4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"`
	DataDir             string `envconfig:"DATA_DIR" default:"paylab-data"`
	MasterWalletSecret  string `envconfig:"MASTER_WALLET_SECRET"`
	FundingKeystorePath string `envconfig:"FUNDING_KEYSTORE_PATH"`
	FaucetSOLAmount     string `envconfig:"FAUCET_SOL_AMOUNT" default:"0.01"`
	FaucetUSDCAmount    string `envconfig:"FAUCET_USDC_AMOUNT" default:"0.05"`
	FaucetMaxDrips      int    `envconfig:"FAUCET_MAX_DRIPS" default:"10"`
	ConfirmTimeoutSec   int    `envconfig:"CONFIRM_TIMEOUT_SECONDS" default:"90"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns the listen port from configuration
func GetPort() string {
	return Get().Port
}

// GetSolanaRPCURL returns the Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetUSDCMint returns the devnet USDC mint address from configuration
func GetUSDCMint() string {
	return Get().USDCMint
}

// GetDataDir returns the directory holding persisted local state
func GetDataDir() string {
	return Get().DataDir
}

// WalletStorePath returns the wallet collection file path
func WalletStorePath() string {
	return filepath.Join(Get().DataDir, "wallets.json")
}

// RateLimitPath returns the faucet usage counter file path
func RateLimitPath() string {
	return filepath.Join(Get().DataDir, "faucet-usage.json")
}

// HistoryDBPath returns the payment history database file path
func HistoryDBPath() string {
	return filepath.Join(Get().DataDir, "history.db")
}
