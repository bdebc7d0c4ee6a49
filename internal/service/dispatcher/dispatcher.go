package dispatcher

import (
	"context"
	"fmt"

	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/mizzouse/WeBot/internal/service/portfolio"
	"github.com/mizzouse/WeBot/internal/service/tradebook"
	"github.com/sirupsen/logrus"
)

// Dispatcher evaluates a signal batch against the trade book, forwards
// matching templates to the order executor, and persists the resulting batch
// of order responses through the order log collaborator.
type Dispatcher struct {
	orderLog entity.OrderLog
}

func New(orderLog entity.OrderLog) *Dispatcher {
	return &Dispatcher{orderLog: orderLog}
}

// Dispatch runs one pass. Buy signals take precedence: when the buy set is
// non-empty the sell set is ignored for the pass. The sets are mutually
// exclusive by construction upstream; the precedence here preserves that
// policy rather than reconciling overlapping sets.
//
// A symbol with no matching template is skipped silently; the signal source
// may reference instruments no template was set up for.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	signal entity.SignalBatch,
	trades *tradebook.Book,
	positions *portfolio.Book,
	executor entity.OrderExecutor,
) ([]entity.OrderResponse, error) {
	responses := make([]entity.OrderResponse, 0)

	var passErr error
	if len(signal.Buys) > 0 {
		responses, passErr = d.processSet(ctx, signal.Buys, entity.OrderActionBuy, trades, positions, executor)
	} else if len(signal.Sells) > 0 {
		responses, passErr = d.processSet(ctx, signal.Sells, entity.OrderActionSell, trades, positions, executor)
	}

	// The batch is persisted once after the pass, including partial batches
	// from a failed pass.
	if d.orderLog != nil && len(responses) > 0 {
		if err := d.orderLog.SaveBatch(ctx, responses); err != nil {
			if passErr != nil {
				return responses, passErr
			}
			return responses, fmt.Errorf("persist order responses: %w", err)
		}
	}

	return responses, passErr
}

func (d *Dispatcher) processSet(
	ctx context.Context,
	symbols []string,
	action entity.OrderAction,
	trades *tradebook.Book,
	positions *portfolio.Book,
	executor entity.OrderExecutor,
) ([]entity.OrderResponse, error) {
	responses := make([]entity.OrderResponse, 0, len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return responses, ctx.Err()
		}

		trade, ok := trades.FindForSymbol(symbol, action)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"symbol": symbol,
				"action": action,
			}).Debug("no trade template for signal, skipping")
			continue
		}

		// The template is retired before the broker call: a failure on the
		// response path must not re-queue it for the next pass.
		if err := trades.MarkExecuted(trade.Key, ""); err != nil {
			return responses, err
		}

		if positions.Contains(symbol) {
			positions.SetOwnership(symbol, action == entity.OrderActionBuy)
		}

		response, err := executor.PlaceOrder(ctx, trade.OrderBody())
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"symbol": symbol,
				"trade":  trade.Key,
			}).WithError(err).Error("order placement failed")
			return responses, err
		}

		if err := trades.SetOrderID(trade.Key, response.OrderID); err != nil {
			return responses, err
		}

		responses = append(responses, response)

		logrus.WithFields(logrus.Fields{
			"symbol":   symbol,
			"trade":    trade.Key,
			"action":   action,
			"order_id": response.OrderID,
		}).Info("trade dispatched")
	}

	return responses, nil
}
