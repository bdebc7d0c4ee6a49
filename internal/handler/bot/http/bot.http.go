package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/mizzouse/WeBot/internal/service/broker"
	"github.com/mizzouse/WeBot/internal/service/marketclock"
	"github.com/mizzouse/WeBot/internal/service/monitor"
	"github.com/mizzouse/WeBot/internal/service/portfolio"
	"github.com/mizzouse/WeBot/internal/service/tradebook"
	"github.com/shopspring/decimal"
)

const defaultOrderListLimit = 50

// OrderReader exposes the persisted order log for the status API.
type OrderReader interface {
	GetRecent(ctx context.Context, limit uint64) ([]entity.OrderResponse, error)
	GetBySymbol(ctx context.Context, symbol string, limit uint64) ([]entity.OrderResponse, error)
}

type CreateTradeRequest struct {
	Key            string `json:"key"`
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	Direction      string `json:"direction"`
	Kind           string `json:"kind"`
	Price          string `json:"price"`
	StopLimitPrice string `json:"stop_limit_price"`
	Quantity       string `json:"quantity"`
	Replace        bool   `json:"replace"`
}

type TradeView struct {
	Key            string `json:"key"`
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	Direction      string `json:"direction"`
	Kind           string `json:"kind"`
	Action         string `json:"action"`
	Price          string `json:"price"`
	StopLimitPrice string `json:"stop_limit_price,omitempty"`
	Quantity       string `json:"quantity"`
	Executed       bool   `json:"executed"`
	OrderID        string `json:"order_id,omitempty"`
}

type PositionView struct {
	Symbol        string `json:"symbol"`
	AssetClass    string `json:"asset_class"`
	Quantity      string `json:"quantity"`
	PurchasePrice string `json:"purchase_price"`
	PurchaseDate  string `json:"purchase_date,omitempty"`
	Owned         bool   `json:"owned"`
}

type PortfolioResponse struct {
	Account     string         `json:"account"`
	Positions   []PositionView `json:"positions"`
	MarketValue string         `json:"market_value"`
	ProfitLoss  string         `json:"profit_loss"`
}

type SessionResponse struct {
	Phase        string `json:"phase"`
	Tradeable    bool   `json:"tradeable"`
	NextBoundary string `json:"next_boundary"`
	Timezone     string `json:"timezone"`
}

type Handler struct {
	trades    *tradebook.Book
	positions *portfolio.Book
	mon       *monitor.Monitor
	clock     *marketclock.Clock
	orders    OrderReader
	quotes    *broker.QuoteCache
}

func NewBotHTTPHandler(trades *tradebook.Book, positions *portfolio.Book, mon *monitor.Monitor, clock *marketclock.Clock, orders OrderReader, quotes *broker.QuoteCache) *Handler {
	return &Handler{
		trades:    trades,
		positions: positions,
		mon:       mon,
		clock:     clock,
		orders:    orders,
		quotes:    quotes,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/bot/v1/session", h.Session)
	mux.HandleFunc("/bot/v1/trades", h.Trades)
	mux.HandleFunc("/bot/v1/trades/", h.TradeByKey)
	mux.HandleFunc("/bot/v1/positions", h.Positions)
	mux.HandleFunc("/bot/v1/orders", h.Orders)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	now := time.Now()
	phase := h.clock.PhaseAt(now)
	if h.mon != nil {
		phase = h.mon.Phase()
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Phase:        phase.String(),
		Tradeable:    phase.Tradeable(),
		NextBoundary: h.clock.NextBoundary(now).Format(time.RFC3339),
		Timezone:     h.clock.Location().String(),
	})
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		views := make([]TradeView, 0, h.trades.Len())
		for _, trade := range h.trades.List() {
			views = append(views, mapTradeToView(trade))
		}
		writeJSON(w, http.StatusOK, map[string]any{"trades": views})
	case http.MethodPost:
		h.createTrade(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (h *Handler) createTrade(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return
	}

	if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Symbol) == "" || strings.TrimSpace(req.Side) == "" || strings.TrimSpace(req.Direction) == "" || strings.TrimSpace(req.Quantity) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing required fields"})
		return
	}

	spec, err := mapRequestToTradeSpec(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	var trade *entity.TradeRequest
	if req.Replace {
		trade = h.trades.Replace(req.Key, spec)
	} else {
		trade, err = h.trades.Create(req.Key, spec)
		if errors.Is(err, entity.ErrDuplicateKey) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "duplicate trade key"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			return
		}
	}

	writeJSON(w, http.StatusCreated, mapTradeToView(trade))
}

func (h *Handler) TradeByKey(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/bot/v1/trades/")
	if key == "" || strings.Contains(key, "/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "trade not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		trade, err := h.trades.Get(key)
		if errors.Is(err, entity.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "trade not found"})
			return
		}
		writeJSON(w, http.StatusOK, mapTradeToView(trade))
	case http.MethodDelete:
		if removed := h.trades.Remove(key); !removed {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "trade not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": key})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	}
}

func (h *Handler) Positions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	var prices map[string]decimal.Decimal
	if h.quotes != nil {
		prices = h.quotes.Prices()
	}
	valuation := h.positions.Valuation(prices)

	views := make([]PositionView, 0, h.positions.Len())
	for _, position := range h.positions.Positions() {
		views = append(views, mapPositionToView(position))
	}

	writeJSON(w, http.StatusOK, PortfolioResponse{
		Account:     h.positions.Account(),
		Positions:   views,
		MarketValue: valuation.MarketValue.String(),
		ProfitLoss:  valuation.ProfitLoss.String(),
	})
}

func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	if h.orders == nil {
		writeJSON(w, http.StatusOK, map[string]any{"orders": []entity.OrderResponse{}})
		return
	}

	var (
		responses []entity.OrderResponse
		err       error
	)
	if symbol := strings.TrimSpace(r.URL.Query().Get("symbol")); symbol != "" {
		responses, err = h.orders.GetBySymbol(r.Context(), symbol, defaultOrderListLimit)
	} else {
		responses, err = h.orders.GetRecent(r.Context(), defaultOrderListLimit)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": responses})
}

func mapRequestToTradeSpec(req *CreateTradeRequest) (tradebook.TradeSpec, error) {
	side := entity.TradeSide(strings.ToLower(req.Side))
	if side != entity.TradeSideEnter && side != entity.TradeSideExit {
		return tradebook.TradeSpec{}, errors.New("invalid side")
	}

	direction := entity.TradeDirection(strings.ToLower(req.Direction))
	if direction != entity.DirectionLong && direction != entity.DirectionShort {
		return tradebook.TradeSpec{}, errors.New("invalid direction")
	}

	kind := entity.OrderKind(strings.ToLower(req.Kind))
	if kind == "" {
		kind = entity.OrderKindMarket
	}
	switch kind {
	case entity.OrderKindMarket, entity.OrderKindLimit, entity.OrderKindStop, entity.OrderKindStopLimit:
	default:
		return tradebook.TradeSpec{}, errors.New("invalid order kind")
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		return tradebook.TradeSpec{}, errors.New("invalid quantity")
	}

	price := decimal.Zero
	if strings.TrimSpace(req.Price) != "" {
		price, err = decimal.NewFromString(req.Price)
		if err != nil {
			return tradebook.TradeSpec{}, errors.New("invalid price")
		}
	}

	stopLimitPrice := decimal.Zero
	if strings.TrimSpace(req.StopLimitPrice) != "" {
		stopLimitPrice, err = decimal.NewFromString(req.StopLimitPrice)
		if err != nil {
			return tradebook.TradeSpec{}, errors.New("invalid stop limit price")
		}
	}

	return tradebook.TradeSpec{
		Symbol:         strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Side:           side,
		Direction:      direction,
		Kind:           kind,
		Price:          price,
		StopLimitPrice: stopLimitPrice,
		Quantity:       quantity,
	}, nil
}

func mapTradeToView(trade *entity.TradeRequest) TradeView {
	view := TradeView{
		Key:       trade.Key,
		Symbol:    trade.Symbol,
		Side:      string(trade.Side),
		Direction: string(trade.Direction),
		Kind:      string(trade.Kind),
		Action:    string(trade.Action()),
		Price:     trade.Price.String(),
		Quantity:  trade.Quantity.String(),
		Executed:  trade.Executed,
		OrderID:   trade.OrderID,
	}
	if !trade.StopLimitPrice.IsZero() {
		view.StopLimitPrice = trade.StopLimitPrice.String()
	}

	return view
}

func mapPositionToView(position entity.Position) PositionView {
	view := PositionView{
		Symbol:        position.Symbol,
		AssetClass:    string(position.AssetClass),
		Quantity:      position.Quantity.String(),
		PurchasePrice: position.PurchasePrice.String(),
		Owned:         position.Owned,
	}
	if !position.PurchaseDate.IsZero() {
		view.PurchaseDate = position.PurchaseDate.Format(time.RFC3339)
	}

	return view
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
