package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide string
type TradeDirection string
type OrderKind string
type OrderAction string

const (
	TradeSideEnter TradeSide = "enter"
	TradeSideExit  TradeSide = "exit"

	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"

	OrderKindMarket    OrderKind = "mkt"
	OrderKindLimit     OrderKind = "lmt"
	OrderKindStop      OrderKind = "stop"
	OrderKindStopLimit OrderKind = "stop-lmt"

	OrderActionBuy  OrderAction = "BUY"
	OrderActionSell OrderAction = "SELL"
)

// TradeRequest is an order template: how to enter or exit a position,
// independent of when it fires. Owned by the TradeBook that created it and
// mutated only by the dispatcher at execution time.
type TradeRequest struct {
	Key            string          `json:"key"`
	Symbol         string          `json:"symbol"`
	Side           TradeSide       `json:"side"`
	Direction      TradeDirection  `json:"direction"`
	Kind           OrderKind       `json:"kind"`
	Price          decimal.Decimal `json:"price"`
	StopLimitPrice decimal.Decimal `json:"stop_limit_price"`
	Quantity       decimal.Decimal `json:"quantity"`
	Executed       bool            `json:"executed"`
	OrderID        string          `json:"order_id,omitempty"`
}

// Action maps the template onto the broker's buy/sell vocabulary. Entering a
// long or exiting a short buys; everything else sells.
func (t *TradeRequest) Action() OrderAction {
	if (t.Side == TradeSideEnter) == (t.Direction == DirectionLong) {
		return OrderActionBuy
	}
	return OrderActionSell
}

// OrderBody builds the request body handed to the broker session.
func (t *TradeRequest) OrderBody() OrderBody {
	return OrderBody{
		Symbol:         t.Symbol,
		Action:         t.Action(),
		Kind:           t.Kind,
		Price:          t.Price,
		StopLimitPrice: t.StopLimitPrice,
		Quantity:       t.Quantity,
	}
}

// OrderBody is the opaque payload the broker collaborator consumes. Paper and
// live executions share it so order-response records stay format-stable.
type OrderBody struct {
	Symbol         string          `json:"symbol"`
	Action         OrderAction     `json:"action"`
	Kind           OrderKind       `json:"kind"`
	Price          decimal.Decimal `json:"price"`
	StopLimitPrice decimal.Decimal `json:"stop_limit_price"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// OrderResponse records one dispatched order. The timestamp is RFC 3339 so the
// order-response log is identical across paper and live paths.
type OrderResponse struct {
	OrderID     string    `json:"order_id"`
	RequestBody OrderBody `json:"request_body"`
	Timestamp   string    `json:"timestamp"`
}

func NewOrderResponse(orderID string, body OrderBody, at time.Time) OrderResponse {
	return OrderResponse{
		OrderID:     orderID,
		RequestBody: body,
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
	}
}
