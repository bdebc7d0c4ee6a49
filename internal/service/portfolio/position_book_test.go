package portfolio

import (
	"testing"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msftPosition() entity.Position {
	return entity.Position{
		Symbol:        "MSFT",
		AssetClass:    entity.AssetClassEquity,
		Quantity:      decimal.NewFromInt(10),
		PurchasePrice: decimal.NewFromFloat(300),
		Owned:         true,
	}
}

func TestUpsertReturnsSnapshot(t *testing.T) {
	book := NewBook("test-account")

	snapshot := book.Upsert(msftPosition())
	require.Len(t, snapshot, 1)
	assert.Equal(t, "MSFT", snapshot["MSFT"].Symbol)

	// later adds overwrite
	updated := msftPosition()
	updated.Quantity = decimal.NewFromInt(20)
	snapshot = book.Upsert(updated)
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot["MSFT"].Quantity.Equal(decimal.NewFromInt(20)))
}

func TestRemove(t *testing.T) {
	book := NewBook("test-account")
	book.Upsert(msftPosition())

	removed, message := book.Remove("MSFT")
	assert.True(t, removed)
	assert.Equal(t, "MSFT was successfully removed", message)

	removed, message = book.Remove("MSFT")
	assert.False(t, removed)
	assert.Equal(t, "MSFT did not exist in the portfolio", message)
}

func TestContainsAndOwnership(t *testing.T) {
	book := NewBook("test-account")
	book.Upsert(msftPosition())

	assert.True(t, book.Contains("MSFT"))
	assert.False(t, book.Contains("AAPL"))

	assert.True(t, book.SetOwnership("MSFT", false))
	positions := book.Positions()
	require.Len(t, positions, 1)
	assert.False(t, positions[0].Owned)

	assert.False(t, book.SetOwnership("AAPL", true))
}

func TestIsProfitable(t *testing.T) {
	book := NewBook("test-account")
	book.Upsert(msftPosition())

	profitable, err := book.IsProfitable("MSFT", decimal.NewFromFloat(310))
	require.NoError(t, err)
	assert.True(t, profitable)

	// at purchase price counts as profitable
	profitable, err = book.IsProfitable("MSFT", decimal.NewFromFloat(300))
	require.NoError(t, err)
	assert.True(t, profitable)

	profitable, err = book.IsProfitable("MSFT", decimal.NewFromFloat(299.99))
	require.NoError(t, err)
	assert.False(t, profitable)

	_, err = book.IsProfitable("AAPL", decimal.NewFromFloat(100))
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTotalAllocation(t *testing.T) {
	book := NewBook("test-account")
	book.UpsertAll([]entity.Position{
		msftPosition(),
		{Symbol: "AAPL", AssetClass: entity.AssetClassEquity, Quantity: decimal.NewFromInt(5)},
		{Symbol: "GC", AssetClass: entity.AssetClassFutures, Quantity: decimal.NewFromInt(1)},
	})

	allocation := book.TotalAllocation()

	// every asset class is present, held or not
	assert.Len(t, allocation, 5)
	assert.Len(t, allocation[entity.AssetClassEquity], 2)
	assert.Len(t, allocation[entity.AssetClassFutures], 1)
	assert.Empty(t, allocation[entity.AssetClassOption])
	assert.Empty(t, allocation[entity.AssetClassForex])
	assert.Empty(t, allocation[entity.AssetClassFixedIncome])
}

func TestValuation(t *testing.T) {
	book := NewBook("test-account")
	book.UpsertAll([]entity.Position{
		msftPosition(),
		{Symbol: "AAPL", AssetClass: entity.AssetClassEquity, Quantity: decimal.NewFromInt(5), PurchasePrice: decimal.NewFromFloat(150)},
	})

	valuation := book.Valuation(map[string]decimal.Decimal{
		"MSFT": decimal.NewFromFloat(310),
		"AAPL": decimal.NewFromFloat(140),
	})

	assert.True(t, valuation.MarketValue.Equal(decimal.NewFromFloat(3800)), valuation.MarketValue.String())
	assert.True(t, valuation.ProfitLoss.Equal(decimal.NewFromFloat(50)), valuation.ProfitLoss.String())
}

func TestValuationSkipsUnpricedSymbols(t *testing.T) {
	book := NewBook("test-account")
	book.Upsert(msftPosition())

	valuation := book.Valuation(nil)
	assert.True(t, valuation.MarketValue.IsZero())
	assert.True(t, valuation.ProfitLoss.IsZero())
}

func TestPositionsAreSymbolOrdered(t *testing.T) {
	book := NewBook("test-account")
	book.UpsertAll([]entity.Position{
		{Symbol: "MSFT", AssetClass: entity.AssetClassEquity},
		{Symbol: "AAPL", AssetClass: entity.AssetClassEquity},
		{Symbol: "GOOG", AssetClass: entity.AssetClassEquity},
	})

	symbols := make([]string, 0, book.Len())
	for _, position := range book.Positions() {
		symbols = append(symbols, position.Symbol)
	}

	assert.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, symbols)
}
