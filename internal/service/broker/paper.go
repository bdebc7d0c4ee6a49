package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/sirupsen/logrus"
)

// PaperSession is the simulated trading session: no venue is contacted, order
// ids are generated locally, and responses are structurally identical to the
// live path so the order-response log stays format-stable.
type PaperSession struct {
	mu       sync.RWMutex
	status   entity.LoginStatus
	unlocked bool
	orders   []entity.BrokerOrder
}

func NewPaperSession() *PaperSession {
	return &PaperSession{status: entity.LoginDefault}
}

func (s *PaperSession) Login(_ context.Context, creds entity.Credentials) error {
	if strings.TrimSpace(creds.Username) == "" || strings.TrimSpace(creds.Password) == "" {
		s.setStatus(entity.LoginFailed)
		return fmt.Errorf("paper login rejected: missing credentials")
	}

	s.setStatus(entity.LoggedIn)
	logrus.Info("paper trading session established")

	return nil
}

func (s *PaperSession) LoginMFA(ctx context.Context, creds entity.Credentials, _ entity.MFALogin) error {
	return s.Login(ctx, creds)
}

func (s *PaperSession) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status == entity.LoggedIn
}

func (s *PaperSession) Logout(context.Context) error {
	s.setStatus(entity.LoggedOut)
	return nil
}

func (s *PaperSession) RequestMFA(context.Context, string) (bool, error) {
	return true, nil
}

func (s *PaperSession) SecurityQuestions(context.Context, string) ([]entity.SecurityQuestion, error) {
	return []entity.SecurityQuestion{}, nil
}

func (s *PaperSession) UnlockTrading(_ context.Context, token string) (bool, error) {
	if !s.IsLoggedIn() {
		return false, entity.ErrNotLoggedIn
	}

	s.mu.Lock()
	s.unlocked = strings.TrimSpace(token) != ""
	unlocked := s.unlocked
	s.mu.Unlock()

	return unlocked, nil
}

func (s *PaperSession) PlaceOrder(_ context.Context, body entity.OrderBody) (entity.OrderResponse, error) {
	if !s.IsLoggedIn() {
		return entity.OrderResponse{}, entity.ErrNotLoggedIn
	}

	response := entity.NewOrderResponse(uuid.NewString(), body, time.Now())

	s.mu.Lock()
	s.orders = append(s.orders, entity.BrokerOrder{
		"orderId":   response.OrderID,
		"symbol":    body.Symbol,
		"action":    string(body.Action),
		"orderType": string(body.Kind),
		"quantity":  body.Quantity.String(),
		"price":     body.Price.String(),
		"status":    "Filled",
		"placedAt":  response.Timestamp,
	})
	s.mu.Unlock()

	return response, nil
}

func (s *PaperSession) CurrentOrders(context.Context) ([]entity.BrokerOrder, error) {
	if !s.IsLoggedIn() {
		return nil, entity.ErrNotLoggedIn
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]entity.BrokerOrder, len(s.orders))
	copy(orders, s.orders)

	return orders, nil
}

func (s *PaperSession) setStatus(status entity.LoginStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}
