package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileOrderLogAppendsBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_responses.jsonl")
	log := NewFileOrderLog(path)

	body := entity.OrderBody{
		Symbol:   "MSFT",
		Action:   entity.OrderActionBuy,
		Kind:     entity.OrderKindMarket,
		Quantity: decimal.NewFromInt(10),
	}

	first := entity.NewOrderResponse("order-1", body, time.Now())
	second := entity.NewOrderResponse("order-2", body, time.Now())

	require.NoError(t, log.SaveBatch(context.Background(), []entity.OrderResponse{first}))
	require.NoError(t, log.SaveBatch(context.Background(), []entity.OrderResponse{second}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var orderIDs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var response entity.OrderResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &response))
		orderIDs = append(orderIDs, response.OrderID)
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, []string{"order-1", "order-2"}, orderIDs)
}

func TestFileOrderLogIgnoresEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order_responses.jsonl")
	log := NewFileOrderLog(path)

	require.NoError(t, log.SaveBatch(context.Background(), nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
