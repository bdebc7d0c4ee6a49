package tradebook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
)

// TradeSpec carries the caller-chosen attributes of a trade template.
type TradeSpec struct {
	Symbol         string
	Side           entity.TradeSide
	Direction      entity.TradeDirection
	Kind           entity.OrderKind
	Price          decimal.Decimal
	StopLimitPrice decimal.Decimal
	Quantity       decimal.Decimal
}

// Book is the keyed collection of trade templates awaiting execution. Entries
// are added and removed explicitly, never evicted.
type Book struct {
	mu     sync.RWMutex
	trades map[string]*entity.TradeRequest
}

func NewBook() *Book {
	return &Book{
		trades: make(map[string]*entity.TradeRequest),
	}
}

// Create adds a template under a new key. Re-using an existing key fails with
// ErrDuplicateKey; overwriting is only available through Replace.
func (b *Book) Create(key string, spec TradeSpec) (*entity.TradeRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.trades[key]; exists {
		return nil, fmt.Errorf("trade %q: %w", key, entity.ErrDuplicateKey)
	}

	trade := newTrade(key, spec)
	b.trades[key] = trade

	return trade, nil
}

// Replace installs a template under the key regardless of prior state.
func (b *Book) Replace(key string, spec TradeSpec) *entity.TradeRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	trade := newTrade(key, spec)
	b.trades[key] = trade

	return trade
}

// Get fails with ErrNotFound for an absent key.
func (b *Book) Get(key string) (*entity.TradeRequest, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	trade, exists := b.trades[key]
	if !exists {
		return nil, fmt.Errorf("trade %q: %w", key, entity.ErrNotFound)
	}

	return trade, nil
}

// Remove reports whether the key existed. Absence is routine, not an error.
func (b *Book) Remove(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.trades[key]; !exists {
		return false
	}

	delete(b.trades, key)
	return true
}

// FindForSymbol returns the first unexecuted template for the symbol whose
// buy/sell action matches, preferring deterministic key order.
func (b *Book) FindForSymbol(symbol string, action entity.OrderAction) (*entity.TradeRequest, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.trades))
	for key := range b.trades {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		trade := b.trades[key]
		if trade.Symbol == symbol && !trade.Executed && trade.Action() == action {
			return trade, true
		}
	}

	return nil, false
}

// MarkExecuted flips the execution flag and records the assigned order id.
func (b *Book) MarkExecuted(key, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	trade, exists := b.trades[key]
	if !exists {
		return fmt.Errorf("trade %q: %w", key, entity.ErrNotFound)
	}

	trade.Executed = true
	trade.OrderID = orderID

	return nil
}

// SetOrderID records the broker-assigned id on an already-executed template.
func (b *Book) SetOrderID(key, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	trade, exists := b.trades[key]
	if !exists {
		return fmt.Errorf("trade %q: %w", key, entity.ErrNotFound)
	}

	trade.OrderID = orderID

	return nil
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.trades)
}

// List returns the templates in key order.
func (b *Book) List() []*entity.TradeRequest {
	b.mu.RLock()
	defer b.mu.RUnlock()

	trades := make([]*entity.TradeRequest, 0, len(b.trades))
	for _, trade := range b.trades {
		trades = append(trades, trade)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].Key < trades[j].Key })

	return trades
}

func newTrade(key string, spec TradeSpec) *entity.TradeRequest {
	return &entity.TradeRequest{
		Key:            key,
		Symbol:         spec.Symbol,
		Side:           spec.Side,
		Direction:      spec.Direction,
		Kind:           spec.Kind,
		Price:          spec.Price,
		StopLimitPrice: spec.StopLimitPrice,
		Quantity:       spec.Quantity,
	}
}
