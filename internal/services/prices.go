package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"crypto-crash-backend/internal/models"
)

// PriceOracle hands out a synchronous spot-price snapshot. Freshness and
// caching policy belong to the implementation, not to the round engine.
type PriceOracle interface {
	GetPrice(asset models.CryptoType) (float64, error)
	GetPrices() map[models.CryptoType]float64
}

// fallbackPrices keep the game running when the feed is unreachable and no
// fetch has ever succeeded.
var fallbackPrices = map[models.CryptoType]float64{
	models.CryptoBTC:  65000,
	models.CryptoETH:  3400,
	models.CryptoSOL:  150,
	models.CryptoDOGE: 0.12,
}

var coinIDs = map[models.CryptoType]string{
	models.CryptoBTC:  "bitcoin",
	models.CryptoETH:  "ethereum",
	models.CryptoSOL:  "solana",
	models.CryptoDOGE: "dogecoin",
}

// HTTPPriceOracle polls a coingecko-style simple-price endpoint and degrades
// to the last known snapshot when the feed is down. Feed failures are logged
// and never surface to the round engine.
type HTTPPriceOracle struct {
	mu        sync.RWMutex
	client    *http.Client
	url       string
	prices    map[models.CryptoType]float64
	fetchedAt time.Time
	ttl       time.Duration
}

func NewHTTPPriceOracle(feedURL string) *HTTPPriceOracle {
	prices := make(map[models.CryptoType]float64, len(fallbackPrices))
	for asset, price := range fallbackPrices {
		prices[asset] = price
	}

	return &HTTPPriceOracle{
		client: &http.Client{Timeout: 5 * time.Second},
		url:    feedURL,
		prices: prices,
		ttl:    30 * time.Second,
	}
}

func (o *HTTPPriceOracle) GetPrice(asset models.CryptoType) (float64, error) {
	if !asset.Valid() {
		return 0, models.ValidationError("unsupported crypto type: %s", asset)
	}

	o.refreshIfStale()

	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.prices[asset], nil
}

func (o *HTTPPriceOracle) GetPrices() map[models.CryptoType]float64 {
	o.refreshIfStale()

	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot := make(map[models.CryptoType]float64, len(o.prices))
	for asset, price := range o.prices {
		snapshot[asset] = price
	}
	return snapshot
}

func (o *HTTPPriceOracle) refreshIfStale() {
	o.mu.RLock()
	fresh := time.Since(o.fetchedAt) < o.ttl
	o.mu.RUnlock()
	if fresh || o.url == "" {
		return
	}

	if err := o.refresh(); err != nil {
		// Degrade to the last known snapshot; the round must keep moving.
		log.Printf("price feed unavailable, using last known prices: %v", err)

		o.mu.Lock()
		o.fetchedAt = time.Now()
		o.mu.Unlock()
	}
}

func (o *HTTPPriceOracle) refresh() error {
	resp, err := o.client.Get(o.url)
	if err != nil {
		return fmt.Errorf("price feed request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode price feed: %v", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for asset, id := range coinIDs {
		if entry, ok := payload[id]; ok && entry.USD > 0 {
			o.prices[asset] = entry.USD
		}
	}
	o.fetchedAt = time.Now()

	return nil
}
