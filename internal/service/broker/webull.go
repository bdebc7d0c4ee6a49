package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mizzouse/WeBot/internal/config"
	"github.com/mizzouse/WeBot/internal/entity"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL    = "https://api.webull.example.com/api"
	defaultDeviceName = "WeBot"

	loginPath            = "/passport/login/v5/account"
	logoutPath           = "/passport/login/logout"
	mfaRequestPath       = "/passport/verificationCode/send/v2"
	securityQuestionPath = "/user/risk/getQuestions"
	tradeTokenPath       = "/trade/login"
	placeOrderPathFmt    = "/trade/order/%s/place"
	currentOrdersPath    = "/trade/v2/orders"
)

// WebullSession talks to the retail brokerage's HTTP API. Everything beyond
// session headers and JSON envelopes is the broker's concern; the core only
// consumes status results and opaque payloads.
type WebullSession struct {
	baseURL    string
	deviceName string
	deviceID   string
	account    string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
	tradeToken  string
	tokenExpiry time.Time
	status      entity.LoginStatus
}

func NewWebullSession(cfg config.BrokerConfig) *WebullSession {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	deviceName := strings.TrimSpace(cfg.DeviceName)
	if deviceName == "" {
		deviceName = defaultDeviceName
	}

	return &WebullSession{
		baseURL:    strings.TrimRight(baseURL, "/"),
		deviceName: deviceName,
		deviceID:   uuid.NewString(),
		account:    strings.TrimSpace(cfg.Account),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		status:     entity.LoginDefault,
	}
}

func (s *WebullSession) Login(ctx context.Context, creds entity.Credentials) error {
	return s.login(ctx, creds, nil)
}

func (s *WebullSession) LoginMFA(ctx context.Context, creds entity.Credentials, mfa entity.MFALogin) error {
	return s.login(ctx, creds, &mfa)
}

func (s *WebullSession) login(ctx context.Context, creds entity.Credentials, mfa *entity.MFALogin) error {
	payload := map[string]any{
		"account":     creds.Username,
		"pwd":         creds.Password,
		"deviceId":    s.deviceID,
		"deviceName":  s.deviceName,
		"accountType": accountType(creds.Username),
	}

	if mfa != nil {
		if mfa.DeviceName != "" {
			payload["deviceName"] = mfa.DeviceName
		}
		payload["verificationCode"] = mfa.Code
		payload["questionId"] = mfa.QuestionID
		payload["questionAnswer"] = mfa.QuestionAnswer
	}

	var result struct {
		AccessToken string `json:"accessToken"`
		TokenExpiry int64  `json:"tokenExpireTime"`
		UUID        string `json:"uuid"`
	}

	if err := s.call(ctx, http.MethodPost, loginPath, payload, &result); err != nil {
		s.setStatus(entity.LoginFailed)
		return fmt.Errorf("broker login rejected: %w", err)
	}

	if strings.TrimSpace(result.AccessToken) == "" {
		s.setStatus(entity.LoginFailed)
		return fmt.Errorf("broker login rejected: empty access token")
	}

	s.mu.Lock()
	s.accessToken = result.AccessToken
	s.tokenExpiry = time.UnixMilli(result.TokenExpiry)
	if result.TokenExpiry == 0 {
		s.tokenExpiry = time.Now().Add(12 * time.Hour)
	}
	s.status = entity.LoggedIn
	s.mu.Unlock()

	logrus.WithField("account", s.account).Info("broker session established")

	return nil
}

func (s *WebullSession) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status == entity.LoggedIn && time.Now().Before(s.tokenExpiry)
}

func (s *WebullSession) Logout(ctx context.Context) error {
	if err := s.call(ctx, http.MethodGet, logoutPath, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.tradeToken = ""
	s.status = entity.LoggedOut
	s.mu.Unlock()

	return nil
}

func (s *WebullSession) RequestMFA(ctx context.Context, account string) (bool, error) {
	payload := map[string]any{
		"account":     account,
		"accountType": accountType(account),
		"deviceId":    s.deviceID,
		"codeType":    5,
	}

	var result struct {
		Valid bool `json:"valid"`
	}

	if err := s.call(ctx, http.MethodPost, mfaRequestPath, payload, &result); err != nil {
		return false, err
	}

	return result.Valid, nil
}

func (s *WebullSession) SecurityQuestions(ctx context.Context, account string) ([]entity.SecurityQuestion, error) {
	payload := map[string]any{
		"account":     account,
		"accountType": accountType(account),
	}

	var questions []entity.SecurityQuestion
	if err := s.call(ctx, http.MethodPost, securityQuestionPath, payload, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

func (s *WebullSession) UnlockTrading(ctx context.Context, token string) (bool, error) {
	if !s.IsLoggedIn() {
		return false, entity.ErrNotLoggedIn
	}

	payload := map[string]any{"pwd": token}

	var result struct {
		TradeToken string `json:"tradeToken"`
	}

	if err := s.call(ctx, http.MethodPost, tradeTokenPath, payload, &result); err != nil {
		logrus.WithError(err).Warn("trade token rejected")
		return false, nil
	}

	if strings.TrimSpace(result.TradeToken) == "" {
		return false, nil
	}

	s.mu.Lock()
	s.tradeToken = result.TradeToken
	s.mu.Unlock()

	return true, nil
}

func (s *WebullSession) PlaceOrder(ctx context.Context, body entity.OrderBody) (entity.OrderResponse, error) {
	if !s.IsLoggedIn() {
		return entity.OrderResponse{}, entity.ErrNotLoggedIn
	}

	s.mu.RLock()
	tradeToken := s.tradeToken
	s.mu.RUnlock()
	if tradeToken == "" {
		return entity.OrderResponse{}, fmt.Errorf("place order: trading locked: %w", entity.ErrNotLoggedIn)
	}

	payload := map[string]any{
		"symbol":                    body.Symbol,
		"action":                    string(body.Action),
		"orderType":                 string(body.Kind),
		"lmtPrice":                  body.Price,
		"auxPrice":                  body.StopLimitPrice,
		"quantity":                  body.Quantity,
		"timeInForce":               "DAY",
		"serialId":                  uuid.NewString(),
		"outsideRegularTradingHour": true,
	}

	var result struct {
		OrderID json.Number `json:"orderId"`
	}

	path := fmt.Sprintf(placeOrderPathFmt, s.account)
	if err := s.call(ctx, http.MethodPost, path, payload, &result); err != nil {
		return entity.OrderResponse{}, err
	}

	return entity.NewOrderResponse(result.OrderID.String(), body, time.Now()), nil
}

func (s *WebullSession) CurrentOrders(ctx context.Context) ([]entity.BrokerOrder, error) {
	if !s.IsLoggedIn() {
		return nil, entity.ErrNotLoggedIn
	}

	var orders []entity.BrokerOrder
	if err := s.call(ctx, http.MethodGet, currentOrdersPath, nil, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *WebullSession) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("did", s.deviceID)

	s.mu.RLock()
	if s.accessToken != "" {
		req.Header.Set("access_token", s.accessToken)
	}
	if s.tradeToken != "" {
		req.Header.Set("t_token", s.tradeToken)
	}
	s.mu.RUnlock()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Code string `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Msg != "" {
			return fmt.Errorf("broker api %s: %s (%s)", path, apiErr.Msg, apiErr.Code)
		}
		return fmt.Errorf("broker api %s: status=%d body=%s", path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("broker api %s: parse failed: %w", path, err)
	}

	return nil
}

func (s *WebullSession) setStatus(status entity.LoginStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// accountType distinguishes phone logins from email logins the way the broker
// expects: 1 for phone numbers, 2 for email addresses.
func accountType(account string) int {
	if strings.Contains(account, "@") {
		return 2
	}
	return 1
}
