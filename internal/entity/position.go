package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetClass string

const (
	AssetClassEquity      AssetClass = "equity"
	AssetClassFixedIncome AssetClass = "fixed_income"
	AssetClassOption      AssetClass = "option"
	AssetClassFutures     AssetClass = "futures"
	AssetClassForex       AssetClass = "forex"
)

// Position is one held instrument. A symbol maps to at most one position;
// later adds overwrite.
type Position struct {
	Symbol        string          `json:"symbol"`
	AssetClass    AssetClass      `json:"asset_class"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	Owned         bool            `json:"owned"`
}

// Valuation aggregates market value and running profit/loss for a book of
// positions at the supplied prices. Recomputed on demand, never maintained
// incrementally, so snapshots can go stale between calls.
type Valuation struct {
	MarketValue decimal.Decimal `json:"market_value"`
	ProfitLoss  decimal.Decimal `json:"profit_loss"`
}
