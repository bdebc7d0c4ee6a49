package entity

import "context"

// Credentials are read from the INI credentials store at startup.
type Credentials struct {
	Username   string
	Password   string
	TradeToken string
}

// SecurityQuestion is one entry from the broker's security-question challenge.
type SecurityQuestion struct {
	ID       string `json:"questionId"`
	Question string `json:"questionName"`
}

// BrokerOrder is an opaque order record returned by the broker's current-orders
// endpoint. The core only logs it.
type BrokerOrder map[string]any

// MFALogin carries the second-attempt login parameters after a plain login was
// rejected.
type MFALogin struct {
	DeviceName     string
	Code           string
	QuestionID     string
	QuestionAnswer string
}

// BrokerSession is the external trading-session collaborator. The core
// consumes only boolean/status results and opaque payloads from it; the wire
// protocol is not re-implemented here.
type BrokerSession interface {
	Login(ctx context.Context, creds Credentials) error
	LoginMFA(ctx context.Context, creds Credentials, mfa MFALogin) error
	IsLoggedIn() bool
	Logout(ctx context.Context) error

	// RequestMFA asks the broker to send a verification code to the username
	// or phone number. Reports whether the account was recognized.
	RequestMFA(ctx context.Context, account string) (bool, error)
	SecurityQuestions(ctx context.Context, account string) ([]SecurityQuestion, error)
	// UnlockTrading submits the trade-token PIN. A false result means orders
	// will be rejected but the session itself stays valid.
	UnlockTrading(ctx context.Context, token string) (bool, error)

	PlaceOrder(ctx context.Context, body OrderBody) (OrderResponse, error)
	CurrentOrders(ctx context.Context) ([]BrokerOrder, error)
}

// OrderExecutor is the narrow slice of BrokerSession the dispatcher needs.
type OrderExecutor interface {
	PlaceOrder(ctx context.Context, body OrderBody) (OrderResponse, error)
}

// OrderLog is the append-only sink receiving each dispatch batch.
type OrderLog interface {
	SaveBatch(ctx context.Context, responses []OrderResponse) error
}
