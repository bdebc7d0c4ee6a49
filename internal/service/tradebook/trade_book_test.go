package tradebook

import (
	"testing"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longEnterSpec(symbol string) TradeSpec {
	return TradeSpec{
		Symbol:    symbol,
		Side:      entity.TradeSideEnter,
		Direction: entity.DirectionLong,
		Kind:      entity.OrderKindMarket,
		Quantity:  decimal.NewFromInt(10),
	}
}

func TestCreateAndGet(t *testing.T) {
	book := NewBook()

	created, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)
	assert.Equal(t, "long_MSFT", created.Key)
	assert.False(t, created.Executed)

	got, err := book.Get("long_MSFT")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateDuplicateKey(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	_, err = book.Create("long_MSFT", longEnterSpec("MSFT"))
	assert.ErrorIs(t, err, entity.ErrDuplicateKey)
}

func TestReplaceOverwrites(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	spec := longEnterSpec("MSFT")
	spec.Quantity = decimal.NewFromInt(25)
	replaced := book.Replace("long_MSFT", spec)

	got, err := book.Get("long_MSFT")
	require.NoError(t, err)
	assert.Equal(t, replaced, got)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 1, book.Len())
}

func TestGetMissingKey(t *testing.T) {
	book := NewBook()

	_, err := book.Get("nope")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRemove(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	assert.True(t, book.Remove("long_MSFT"))
	assert.False(t, book.Remove("long_MSFT"))
	assert.Zero(t, book.Len())
}

func TestFindForSymbol(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	exit := longEnterSpec("MSFT")
	exit.Side = entity.TradeSideExit
	_, err = book.Create("exit_MSFT", exit)
	require.NoError(t, err)

	buy, ok := book.FindForSymbol("MSFT", entity.OrderActionBuy)
	require.True(t, ok)
	assert.Equal(t, "long_MSFT", buy.Key)

	sell, ok := book.FindForSymbol("MSFT", entity.OrderActionSell)
	require.True(t, ok)
	assert.Equal(t, "exit_MSFT", sell.Key)

	_, ok = book.FindForSymbol("AAPL", entity.OrderActionBuy)
	assert.False(t, ok)
}

func TestFindForSymbolSkipsExecuted(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)
	require.NoError(t, book.MarkExecuted("long_MSFT", "order-1"))

	_, ok := book.FindForSymbol("MSFT", entity.OrderActionBuy)
	assert.False(t, ok)
}

func TestMarkExecuted(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	require.NoError(t, book.MarkExecuted("long_MSFT", "order-1"))

	got, err := book.Get("long_MSFT")
	require.NoError(t, err)
	assert.True(t, got.Executed)
	assert.Equal(t, "order-1", got.OrderID)

	assert.ErrorIs(t, book.MarkExecuted("nope", "order-2"), entity.ErrNotFound)
}

func TestSetOrderID(t *testing.T) {
	book := NewBook()

	_, err := book.Create("long_MSFT", longEnterSpec("MSFT"))
	require.NoError(t, err)

	require.NoError(t, book.MarkExecuted("long_MSFT", ""))
	require.NoError(t, book.SetOrderID("long_MSFT", "order-1"))

	got, err := book.Get("long_MSFT")
	require.NoError(t, err)
	assert.True(t, got.Executed)
	assert.Equal(t, "order-1", got.OrderID)

	assert.ErrorIs(t, book.SetOrderID("nope", "order-1"), entity.ErrNotFound)
}

func TestListIsKeyOrdered(t *testing.T) {
	book := NewBook()

	for _, key := range []string{"c", "a", "b"} {
		_, err := book.Create(key, longEnterSpec("MSFT"))
		require.NoError(t, err)
	}

	keys := make([]string, 0, book.Len())
	for _, trade := range book.List() {
		keys = append(keys, trade.Key)
	}

	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestActionMapping(t *testing.T) {
	testCases := []struct {
		side      entity.TradeSide
		direction entity.TradeDirection
		expected  entity.OrderAction
	}{
		{entity.TradeSideEnter, entity.DirectionLong, entity.OrderActionBuy},
		{entity.TradeSideExit, entity.DirectionShort, entity.OrderActionBuy},
		{entity.TradeSideExit, entity.DirectionLong, entity.OrderActionSell},
		{entity.TradeSideEnter, entity.DirectionShort, entity.OrderActionSell},
	}

	for _, tc := range testCases {
		trade := entity.TradeRequest{Side: tc.side, Direction: tc.direction}
		assert.Equal(t, tc.expected, trade.Action(), "side=%s direction=%s", tc.side, tc.direction)
	}
}
