package portfolio

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
)

// Book is the in-memory ledger of held symbols. A symbol maps to at most one
// position; later adds overwrite. Aggregates are recomputed on demand, never
// maintained incrementally, so a valuation snapshot can go stale between
// calls.
type Book struct {
	mu        sync.RWMutex
	account   string
	positions map[string]*entity.Position
}

func NewBook(account string) *Book {
	return &Book{
		account:   account,
		positions: make(map[string]*entity.Position),
	}
}

// Upsert replaces any existing entry for the symbol and returns a snapshot of
// the full book.
func (b *Book) Upsert(position entity.Position) map[string]entity.Position {
	b.mu.Lock()
	stored := position
	b.positions[position.Symbol] = &stored
	b.mu.Unlock()

	return b.snapshot()
}

// UpsertAll adds multiple positions at once.
func (b *Book) UpsertAll(positions []entity.Position) map[string]entity.Position {
	b.mu.Lock()
	for _, position := range positions {
		stored := position
		b.positions[position.Symbol] = &stored
	}
	b.mu.Unlock()

	return b.snapshot()
}

// Remove deletes the symbol if present. Callers routinely probe for symbols
// that may not exist, so absence is a result, not an error.
func (b *Book) Remove(symbol string) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.positions[symbol]; !exists {
		return false, fmt.Sprintf("%s did not exist in the portfolio", symbol)
	}

	delete(b.positions, symbol)
	return true, fmt.Sprintf("%s was successfully removed", symbol)
}

func (b *Book) Contains(symbol string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.positions[symbol]
	return exists
}

// SetOwnership flips the ownership flag; reports whether the symbol existed.
func (b *Book) SetOwnership(symbol string, owned bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	position, exists := b.positions[symbol]
	if !exists {
		return false
	}

	position.Owned = owned
	return true
}

// IsProfitable reports whether the position is at or above its purchase price.
// ErrNotFound when the symbol is absent.
func (b *Book) IsProfitable(symbol string, currentPrice decimal.Decimal) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	position, exists := b.positions[symbol]
	if !exists {
		return false, fmt.Errorf("position %q: %w", symbol, entity.ErrNotFound)
	}

	return currentPrice.GreaterThanOrEqual(position.PurchasePrice), nil
}

// TotalAllocation groups positions by asset class. Pure aggregation,
// recomputed each call.
func (b *Book) TotalAllocation() map[entity.AssetClass][]entity.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	allocation := map[entity.AssetClass][]entity.Position{
		entity.AssetClassEquity:      {},
		entity.AssetClassFixedIncome: {},
		entity.AssetClassOption:      {},
		entity.AssetClassFutures:     {},
		entity.AssetClassForex:       {},
	}

	for _, symbol := range b.sortedSymbols() {
		position := b.positions[symbol]
		allocation[position.AssetClass] = append(allocation[position.AssetClass], *position)
	}

	return allocation
}

// Valuation recomputes market value and profit/loss at the supplied prices.
// Symbols without a price contribute nothing.
func (b *Book) Valuation(prices map[string]decimal.Decimal) entity.Valuation {
	b.mu.RLock()
	defer b.mu.RUnlock()

	valuation := entity.Valuation{
		MarketValue: decimal.Zero,
		ProfitLoss:  decimal.Zero,
	}

	for _, position := range b.positions {
		price, ok := prices[position.Symbol]
		if !ok {
			continue
		}

		valuation.MarketValue = valuation.MarketValue.Add(price.Mul(position.Quantity))
		valuation.ProfitLoss = valuation.ProfitLoss.Add(price.Sub(position.PurchasePrice).Mul(position.Quantity))
	}

	return valuation
}

// Positions returns the book in symbol order.
func (b *Book) Positions() []entity.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	positions := make([]entity.Position, 0, len(b.positions))
	for _, symbol := range b.sortedSymbols() {
		positions = append(positions, *b.positions[symbol])
	}

	return positions
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.positions)
}

func (b *Book) Account() string {
	return b.account
}

func (b *Book) snapshot() map[string]entity.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snapshot := make(map[string]entity.Position, len(b.positions))
	for symbol, position := range b.positions {
		snapshot[symbol] = *position
	}

	return snapshot
}

func (b *Book) sortedSymbols() []string {
	symbols := make([]string, 0, len(b.positions))
	for symbol := range b.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return symbols
}
