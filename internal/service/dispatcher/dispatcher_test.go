package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/mizzouse/WeBot/internal/service/portfolio"
	"github.com/mizzouse/WeBot/internal/service/tradebook"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	placed []entity.OrderBody
	err    error
}

func (f *fakeExecutor) PlaceOrder(_ context.Context, body entity.OrderBody) (entity.OrderResponse, error) {
	if f.err != nil {
		return entity.OrderResponse{}, f.err
	}

	f.placed = append(f.placed, body)
	return entity.NewOrderResponse(uuid.NewString(), body, time.Now()), nil
}

type fakeOrderLog struct {
	batches [][]entity.OrderResponse
	err     error
}

func (f *fakeOrderLog) SaveBatch(_ context.Context, responses []entity.OrderResponse) error {
	if f.err != nil {
		return f.err
	}

	f.batches = append(f.batches, responses)
	return nil
}

func newBooks(t *testing.T) (*tradebook.Book, *portfolio.Book) {
	t.Helper()

	trades := tradebook.NewBook()
	_, err := trades.Create("long_MSFT", tradebook.TradeSpec{
		Symbol:    "MSFT",
		Side:      entity.TradeSideEnter,
		Direction: entity.DirectionLong,
		Kind:      entity.OrderKindMarket,
		Quantity:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = trades.Create("exit_MSFT", tradebook.TradeSpec{
		Symbol:    "MSFT",
		Side:      entity.TradeSideExit,
		Direction: entity.DirectionLong,
		Kind:      entity.OrderKindMarket,
		Quantity:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	positions := portfolio.NewBook("test-account")
	positions.Upsert(entity.Position{
		Symbol:     "MSFT",
		AssetClass: entity.AssetClassEquity,
		Quantity:   decimal.NewFromInt(10),
		Owned:      false,
	})

	return trades, positions
}

func TestDispatchBuySignal(t *testing.T) {
	trades, positions := newBooks(t)
	executor := &fakeExecutor{}
	orderLog := &fakeOrderLog{}

	responses, err := New(orderLog).Dispatch(
		context.Background(),
		entity.SignalBatch{Buys: []string{"MSFT"}},
		trades, positions, executor,
	)
	require.NoError(t, err)
	require.Len(t, responses, 1)

	assert.NotEmpty(t, responses[0].OrderID)
	assert.Equal(t, "MSFT", responses[0].RequestBody.Symbol)
	assert.Equal(t, entity.OrderActionBuy, responses[0].RequestBody.Action)

	_, err = time.Parse(time.RFC3339Nano, responses[0].Timestamp)
	assert.NoError(t, err, "timestamp must be RFC 3339")

	trade, err := trades.Get("long_MSFT")
	require.NoError(t, err)
	assert.True(t, trade.Executed)
	assert.Equal(t, responses[0].OrderID, trade.OrderID)

	owned := positions.Positions()
	require.Len(t, owned, 1)
	assert.True(t, owned[0].Owned)

	require.Len(t, orderLog.batches, 1)
	assert.Equal(t, responses, orderLog.batches[0])
}

func TestDispatchSellSignalClearsOwnership(t *testing.T) {
	trades, positions := newBooks(t)
	positions.SetOwnership("MSFT", true)
	executor := &fakeExecutor{}

	responses, err := New(&fakeOrderLog{}).Dispatch(
		context.Background(),
		entity.SignalBatch{Sells: []string{"MSFT"}},
		trades, positions, executor,
	)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, entity.OrderActionSell, responses[0].RequestBody.Action)

	owned := positions.Positions()
	require.Len(t, owned, 1)
	assert.False(t, owned[0].Owned)
}

func TestDispatchBuysTakePrecedence(t *testing.T) {
	trades, positions := newBooks(t)
	executor := &fakeExecutor{}

	responses, err := New(&fakeOrderLog{}).Dispatch(
		context.Background(),
		entity.SignalBatch{Buys: []string{"MSFT"}, Sells: []string{"MSFT"}},
		trades, positions, executor,
	)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, entity.OrderActionBuy, responses[0].RequestBody.Action)

	// the sell set was ignored for the pass
	exit, err := trades.Get("exit_MSFT")
	require.NoError(t, err)
	assert.False(t, exit.Executed)
}

func TestDispatchSkipsUnknownSymbols(t *testing.T) {
	trades, positions := newBooks(t)
	executor := &fakeExecutor{}
	orderLog := &fakeOrderLog{}

	responses, err := New(orderLog).Dispatch(
		context.Background(),
		entity.SignalBatch{Buys: []string{"TSLA"}},
		trades, positions, executor,
	)
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Empty(t, executor.placed)
	assert.Empty(t, orderLog.batches)
}

func TestDispatchEmptySignalIsNoop(t *testing.T) {
	trades, positions := newBooks(t)
	orderLog := &fakeOrderLog{}

	responses, err := New(orderLog).Dispatch(
		context.Background(),
		entity.SignalBatch{},
		trades, positions, &fakeExecutor{},
	)
	require.NoError(t, err)
	assert.Empty(t, responses)
	assert.Empty(t, orderLog.batches)
}

func TestDispatchExecutorFailure(t *testing.T) {
	trades, positions := newBooks(t)
	placeErr := errors.New("venue rejected")
	executor := &fakeExecutor{err: placeErr}

	responses, err := New(&fakeOrderLog{}).Dispatch(
		context.Background(),
		entity.SignalBatch{Buys: []string{"MSFT"}},
		trades, positions, executor,
	)
	assert.ErrorIs(t, err, placeErr)
	assert.Empty(t, responses)

	// retired before the broker call, so a failed placement is never retried
	trade, getErr := trades.Get("long_MSFT")
	require.NoError(t, getErr)
	assert.True(t, trade.Executed)
	assert.Empty(t, trade.OrderID)

	_, found := trades.FindForSymbol("MSFT", entity.OrderActionBuy)
	assert.False(t, found)
}

func TestDispatchPersistsPartialBatchOnFailure(t *testing.T) {
	trades, positions := newBooks(t)
	_, err := trades.Create("long_AAPL", tradebook.TradeSpec{
		Symbol:    "AAPL",
		Side:      entity.TradeSideEnter,
		Direction: entity.DirectionLong,
		Kind:      entity.OrderKindMarket,
		Quantity:  decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	placeErr := errors.New("venue rejected")
	executor := &failAfterExecutor{failAfter: 1, err: placeErr}
	orderLog := &fakeOrderLog{}

	responses, dispatchErr := New(orderLog).Dispatch(
		context.Background(),
		entity.SignalBatch{Buys: []string{"AAPL", "MSFT"}},
		trades, positions, executor,
	)
	assert.ErrorIs(t, dispatchErr, placeErr)
	require.Len(t, responses, 1)

	// the partial batch still hits the order log, exactly once
	require.Len(t, orderLog.batches, 1)
	assert.Equal(t, responses, orderLog.batches[0])
}

type failAfterExecutor struct {
	failAfter int
	placed    int
	err       error
}

func (f *failAfterExecutor) PlaceOrder(_ context.Context, body entity.OrderBody) (entity.OrderResponse, error) {
	if f.placed >= f.failAfter {
		return entity.OrderResponse{}, f.err
	}

	f.placed++
	return entity.NewOrderResponse(uuid.NewString(), body, time.Now()), nil
}
