package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = entity.Credentials{
	Username:   "trader@example.com",
	Password:   "secret",
	TradeToken: "123456",
}

func marketBuyBody() entity.OrderBody {
	return entity.OrderBody{
		Symbol:   "MSFT",
		Action:   entity.OrderActionBuy,
		Kind:     entity.OrderKindMarket,
		Quantity: decimal.NewFromInt(10),
	}
}

func TestPaperLogin(t *testing.T) {
	session := NewPaperSession()
	assert.False(t, session.IsLoggedIn())

	require.NoError(t, session.Login(context.Background(), testCreds))
	assert.True(t, session.IsLoggedIn())

	require.NoError(t, session.Logout(context.Background()))
	assert.False(t, session.IsLoggedIn())
}

func TestPaperLoginRejectsEmptyCredentials(t *testing.T) {
	session := NewPaperSession()

	err := session.Login(context.Background(), entity.Credentials{Username: "trader@example.com"})
	require.Error(t, err)
	assert.False(t, session.IsLoggedIn())
}

func TestPaperPlaceOrder(t *testing.T) {
	session := NewPaperSession()

	_, err := session.PlaceOrder(context.Background(), marketBuyBody())
	assert.ErrorIs(t, err, entity.ErrNotLoggedIn)

	require.NoError(t, session.Login(context.Background(), testCreds))

	response, err := session.PlaceOrder(context.Background(), marketBuyBody())
	require.NoError(t, err)
	assert.NotEmpty(t, response.OrderID)
	assert.Equal(t, marketBuyBody(), response.RequestBody)

	_, err = time.Parse(time.RFC3339Nano, response.Timestamp)
	assert.NoError(t, err)

	orders, err := session.CurrentOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, response.OrderID, orders[0]["orderId"])
	assert.Equal(t, "Filled", orders[0]["status"])
}

func newBrokerStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/passport/login/v5/account", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		if payload["pwd"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"account.pwd.invalid","msg":"password incorrect"}`))
			return
		}

		_, _ = w.Write([]byte(`{"accessToken":"token-1","tokenExpireTime":0,"uuid":"u-1"}`))
	})
	mux.HandleFunc("/trade/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tradeToken":"trade-token-1"}`))
	})
	mux.HandleFunc("/trade/order/ACC-1/place", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("access_token") != "token-1" || r.Header.Get("t_token") != "trade-token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"auth","msg":"missing session headers"}`))
			return
		}

		_, _ = w.Write([]byte(`{"orderId":987654321}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newStubbedSession(t *testing.T) *WebullSession {
	t.Helper()

	server := newBrokerStub(t)
	return NewWebullSession(config.BrokerConfig{
		BaseURL: server.URL,
		Account: "ACC-1",
	})
}

func TestWebullLoginAndPlaceOrder(t *testing.T) {
	session := newStubbedSession(t)
	ctx := context.Background()

	require.NoError(t, session.Login(ctx, testCreds))
	assert.True(t, session.IsLoggedIn())

	unlocked, err := session.UnlockTrading(ctx, testCreds.TradeToken)
	require.NoError(t, err)
	assert.True(t, unlocked)

	response, err := session.PlaceOrder(ctx, marketBuyBody())
	require.NoError(t, err)
	assert.Equal(t, "987654321", response.OrderID)
	assert.Equal(t, marketBuyBody(), response.RequestBody)
}

func TestWebullLoginRejected(t *testing.T) {
	session := newStubbedSession(t)

	badCreds := testCreds
	badCreds.Password = "wrong"

	err := session.Login(context.Background(), badCreds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password incorrect")
	assert.False(t, session.IsLoggedIn())
}

func TestWebullPlaceOrderRequiresUnlock(t *testing.T) {
	session := newStubbedSession(t)
	ctx := context.Background()

	_, err := session.PlaceOrder(ctx, marketBuyBody())
	assert.ErrorIs(t, err, entity.ErrNotLoggedIn)

	require.NoError(t, session.Login(ctx, testCreds))

	_, err = session.PlaceOrder(ctx, marketBuyBody())
	assert.ErrorIs(t, err, entity.ErrNotLoggedIn)
}

// Paper and live executions feed the same order-response log, so the two
// paths must produce structurally identical records.
func TestPaperAndLiveResponsesShareShape(t *testing.T) {
	ctx := context.Background()

	paper := NewPaperSession()
	require.NoError(t, paper.Login(ctx, testCreds))
	paperResponse, err := paper.PlaceOrder(ctx, marketBuyBody())
	require.NoError(t, err)

	live := newStubbedSession(t)
	require.NoError(t, live.Login(ctx, testCreds))
	_, err = live.UnlockTrading(ctx, testCreds.TradeToken)
	require.NoError(t, err)
	liveResponse, err := live.PlaceOrder(ctx, marketBuyBody())
	require.NoError(t, err)

	paperJSON, err := json.Marshal(paperResponse)
	require.NoError(t, err)
	liveJSON, err := json.Marshal(liveResponse)
	require.NoError(t, err)

	assert.ElementsMatch(t, jsonKeys(t, paperJSON), jsonKeys(t, liveJSON))
	assert.Equal(t, paperResponse.RequestBody, liveResponse.RequestBody)
}

func jsonKeys(t *testing.T, raw []byte) []string {
	t.Helper()

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))

	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}

	return keys
}

func TestAccountType(t *testing.T) {
	assert.Equal(t, 2, accountType("trader@example.com"))
	assert.Equal(t, 1, accountType("15551234567"))
}

func TestParseQuoteMessage(t *testing.T) {
	symbol, price, ok := ParseQuoteMessage([]byte(`{"type":"quote","data":{"symbol":"MSFT","price":"310.25"}}`))
	require.True(t, ok)
	assert.Equal(t, "MSFT", symbol)
	assert.True(t, price.Equal(decimal.NewFromFloat(310.25)))

	for name, frame := range map[string]string{
		"not a quote":    `{"type":"heartbeat"}`,
		"missing symbol": `{"type":"quote","data":{"price":"310.25"}}`,
		"missing price":  `{"type":"quote","data":{"symbol":"MSFT"}}`,
		"negative price": `{"type":"quote","data":{"symbol":"MSFT","price":"-1"}}`,
		"garbage":        `{]`,
	} {
		_, _, ok := ParseQuoteMessage([]byte(frame))
		assert.False(t, ok, name)
	}
}

func TestQuoteCache(t *testing.T) {
	cache := NewQuoteCache()

	_, ok := cache.Price("MSFT")
	assert.False(t, ok)

	cache.Set("MSFT", decimal.NewFromFloat(310.25))
	price, ok := cache.Price("MSFT")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromFloat(310.25)))

	snapshot := cache.Prices()
	require.Len(t, snapshot, 1)

	// the snapshot is detached from the cache
	snapshot["MSFT"] = decimal.Zero
	price, _ = cache.Price("MSFT")
	assert.True(t, price.Equal(decimal.NewFromFloat(310.25)))
}

