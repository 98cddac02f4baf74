package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"

	// Fallback rates when the price API is unreachable. The prepaid card
	// dollar figure is display-only, so a stale rate is acceptable.
	fallbackSOLUSD = 200.0
	fallbackUSDC   = 1.0
)

// PriceClient fetches USD rates for the card-balance display.
type PriceClient struct {
	baseURL string
	client  *http.Client
}

// NewPriceClient creates a new CoinGecko-backed price client.
func NewPriceClient() *PriceClient {
	return &PriceClient{
		baseURL: coingeckoAPI,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type priceResponse struct {
	Solana struct {
		USD float64 `json:"usd"`
	} `json:"solana"`
	USDCoin struct {
		USD float64 `json:"usd"`
	} `json:"usd-coin"`
}

// USDRates returns the SOL/USD and USDC/USD rates as display strings,
// falling back to fixed rates on any failure.
func (c *PriceClient) USDRates() (solUSD, usdcUSD string) {
	url := fmt.Sprintf("%s/simple/price?ids=solana,usd-coin&vs_currencies=usd", c.baseURL)

	solUSD = strconv.FormatFloat(fallbackSOLUSD, 'f', 2, 64)
	usdcUSD = strconv.FormatFloat(fallbackUSDC, 'f', 2, 64)

	resp, err := c.client.Get(url)
	if err != nil {
		return solUSD, usdcUSD
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return solUSD, usdcUSD
	}

	var priceResp priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return solUSD, usdcUSD
	}

	if priceResp.Solana.USD > 0 {
		solUSD = strconv.FormatFloat(priceResp.Solana.USD, 'f', 2, 64)
	}
	if priceResp.USDCoin.USD > 0 {
		usdcUSD = strconv.FormatFloat(priceResp.USDCoin.USD, 'f', 2, 64)
	}
	return solUSD, usdcUSD
}
