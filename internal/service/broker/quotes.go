package broker

import (
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// QuoteCache holds the most recent quote per symbol from the broker's push
// stream. Valuations read from it on demand; staleness between pushes is
// expected.
type QuoteCache struct {
	mu        sync.RWMutex
	prices    map[string]decimal.Decimal
	updatedAt map[string]time.Time
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		prices:    make(map[string]decimal.Decimal),
		updatedAt: make(map[string]time.Time),
	}
}

func (c *QuoteCache) Set(symbol string, price decimal.Decimal) {
	c.mu.Lock()
	c.prices[symbol] = price
	c.updatedAt[symbol] = time.Now()
	c.mu.Unlock()
}

func (c *QuoteCache) Price(symbol string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	price, ok := c.prices[symbol]
	return price, ok
}

// Prices returns a snapshot of every cached quote.
func (c *QuoteCache) Prices() map[string]decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]decimal.Decimal, len(c.prices))
	for symbol, price := range c.prices {
		snapshot[symbol] = price
	}

	return snapshot
}

// ParseQuoteMessage extracts a symbol and trade price from one push-stream
// frame. Frames that are not quote ticks are ignored.
func ParseQuoteMessage(message []byte) (string, decimal.Decimal, bool) {
	var payload struct {
		Type string `json:"type"`
		Data struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		} `json:"data"`
	}

	if err := json.Unmarshal(message, &payload); err != nil {
		return "", decimal.Zero, false
	}

	if payload.Type != "quote" || strings.TrimSpace(payload.Data.Symbol) == "" || payload.Data.Price == "" {
		return "", decimal.Zero, false
	}

	price, err := decimal.NewFromString(payload.Data.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return "", decimal.Zero, false
	}

	return payload.Data.Symbol, price, true
}
