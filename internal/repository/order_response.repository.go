package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/mizzouse/WeBot/internal/entity"
)

// OrderResponseRepository is the durable order-response log: every dispatch
// batch is appended, nothing is updated or deleted.
type OrderResponseRepository struct {
	db *sqlx.DB
}

func NewOrderResponseRepository(db *sqlx.DB) *OrderResponseRepository {
	return &OrderResponseRepository{db: db}
}

type orderResponseRow struct {
	ID          string    `db:"id"`
	OrderID     string    `db:"order_id"`
	Symbol      string    `db:"symbol"`
	Action      string    `db:"action"`
	Kind        string    `db:"kind"`
	RequestBody []byte    `db:"request_body"`
	ExecutedAt  string    `db:"executed_at"`
	CreatedAt   time.Time `db:"created_at"`
}

func (orderResponseRow) TableName() string {
	return "order_responses"
}

// SaveBatch appends one dispatch batch. The batch is written in a single
// statement so a pass is logged all-or-nothing.
func (r *OrderResponseRepository) SaveBatch(ctx context.Context, responses []entity.OrderResponse) error {
	if len(responses) == 0 {
		return nil
	}

	now := time.Now().UTC()

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(orderResponseRow{}.TableName()).
		Columns(
			"order_id",
			"symbol",
			"action",
			"kind",
			"request_body",
			"executed_at",
			"created_at",
		)

	for _, response := range responses {
		requestBody, err := json.Marshal(response.RequestBody)
		if err != nil {
			return err
		}

		queryBuilder = queryBuilder.Values(
			response.OrderID,
			response.RequestBody.Symbol,
			string(response.RequestBody.Action),
			string(response.RequestBody.Kind),
			requestBody,
			response.Timestamp,
			now,
		)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// GetRecent returns the newest responses first.
func (r *OrderResponseRepository) GetRecent(ctx context.Context, limit uint64) ([]entity.OrderResponse, error) {
	if limit == 0 {
		limit = 50
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("id", "order_id", "symbol", "action", "kind", "request_body", "executed_at", "created_at").
		From(orderResponseRow{}.TableName()).
		OrderBy("created_at desc").
		Limit(limit)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []orderResponseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	responses := make([]entity.OrderResponse, 0, len(rows))
	for _, row := range rows {
		var requestBody entity.OrderBody
		if err := json.Unmarshal(row.RequestBody, &requestBody); err != nil {
			return nil, err
		}

		responses = append(responses, entity.OrderResponse{
			OrderID:     row.OrderID,
			RequestBody: requestBody,
			Timestamp:   row.ExecutedAt,
		})
	}

	return responses, nil
}

// GetBySymbol filters the log for one instrument, newest first.
func (r *OrderResponseRepository) GetBySymbol(ctx context.Context, symbol string, limit uint64) ([]entity.OrderResponse, error) {
	if limit == 0 {
		limit = 50
	}

	queryBuilder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("id", "order_id", "symbol", "action", "kind", "request_body", "executed_at", "created_at").
		From(orderResponseRow{}.TableName()).
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("created_at desc").
		Limit(limit)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []orderResponseRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	responses := make([]entity.OrderResponse, 0, len(rows))
	for _, row := range rows {
		var requestBody entity.OrderBody
		if err := json.Unmarshal(row.RequestBody, &requestBody); err != nil {
			return nil, err
		}

		responses = append(responses, entity.OrderResponse{
			OrderID:     row.OrderID,
			RequestBody: requestBody,
			Timestamp:   row.ExecutedAt,
		})
	}

	return responses, nil
}
