package entity

import "context"

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

// SignalBatch is one evaluation input for a dispatch pass: the buy and sell
// symbol sets produced by an external signal source.
type SignalBatch struct {
	Buys  []string `json:"buys"`
	Sells []string `json:"sells"`
}

func (b SignalBatch) Empty() bool {
	return len(b.Buys) == 0 && len(b.Sells) == 0
}

type SignalEvent struct {
	RetryCount int         `json:"retry"`
	Data       SignalBatch `json:"data"`
}

// OrderDispatchEvent is published after every completed dispatch pass.
type OrderDispatchEvent struct {
	Phase     string          `json:"phase"`
	Responses []OrderResponse `json:"responses"`
}
