package constant

const (
	ProductionEnvironment = "production"

	SignalStreamName         = "signals"
	SignalStreamSubjectAll   = "signals.*"
	SignalStreamSubjectTrade = "signals.trade"
	SignalQueueGroup         = "signal_group"

	OrderStreamName              = "orders"
	OrderStreamSubjectAll        = "orders.*"
	OrderStreamSubjectDispatched = "orders.dispatched"
)
