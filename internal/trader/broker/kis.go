package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	kisTokenPath     = "/oauth2/tokenP"
	kisOrderCashPath = "/uapi/domestic-stock/v1/trading/order-cash"

	// Market order, quantity priced by the venue.
	kisOrdDvsnMarket = "01"
)

// KISBroker submits cash orders to a KIS-style domestic equity venue.
// Mode "paper" routes to the mock-trading tr_ids, anything else to the
// production ones.
type KISBroker struct {
	cfg     config.KIS
	logger  *logger.Logger
	client  *http.Client
	limiter *rate.Limiter

	mu         sync.Mutex
	token      string
	tokenUntil time.Time
}

// NewKISBroker creates a venue client with request pacing from the
// configured per-minute budget.
func NewKISBroker(cfg config.KIS, log *logger.Logger) *KISBroker {
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	return &KISBroker{
		cfg:     cfg,
		logger:  log,
		client:  &http.Client{Timeout: 8 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (b *KISBroker) Name() string { return "kis" }

type kisTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type kisOrderResponse struct {
	RtCd   string `json:"rt_cd"`
	MsgCd  string `json:"msg_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		OrdNo   string `json:"ODNO"`
		OrdTime string `json:"ORD_TMD"`
	} `json:"output"`
}

// SendOrder submits a market cash order. The venue accepting the order is
// treated as a fill at the expected price; order state reconciliation
// against venue executions is out of scope here.
func (b *KISBroker) SendOrder(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for order rate limit: %w", err)
	}

	token, err := b.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{
		"CANO":         b.cfg.AccountNo,
		"ACNT_PRDT_CD": b.cfg.ProductCode,
		"PDNO":         req.Ticker,
		"ORD_DVSN":     kisOrdDvsnMarket,
		"ORD_QTY":      strconv.Itoa(int(req.Qty)),
		"ORD_UNPR":     "0",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", b.cfg.BaseURL+kisOrderCashPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("appkey", b.cfg.AppKey)
	httpReq.Header.Set("appsecret", b.cfg.AppSecret)
	httpReq.Header.Set("tr_id", b.trID(req.Side))

	start := time.Now()
	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send order to venue: %w", err)
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("venue returned non-OK status %d: %s", resp.StatusCode, string(raw))
	}

	var orderResp kisOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	if orderResp.RtCd != "0" {
		b.logger.Warn("Venue rejected order",
			logger.StringField("ticker", req.Ticker),
			logger.StringField("msg_cd", orderResp.MsgCd),
			logger.StringField("msg", orderResp.Msg1),
		)
		return &dto.OrderResult{
			Status:     entity.OrderStatusRejected,
			ReasonCode: orderResp.Msg1,
			LatencyMs:  latency.Milliseconds(),
		}, nil
	}

	return &dto.OrderResult{
		Status:        entity.OrderStatusFilled,
		AvgPrice:      req.ExpectedPrice,
		FilledQty:     req.Qty,
		BrokerOrderID: orderResp.Output.OrdNo,
		ReasonCode:    "ORDER_ACCEPTED:" + orderResp.Output.OrdNo,
		LatencyMs:     latency.Milliseconds(),
	}, nil
}

// accessToken returns a cached OAuth token, requesting a fresh one when
// within a minute of expiry.
func (b *KISBroker) accessToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token != "" && time.Now().Before(b.tokenUntil) {
		return b.token, nil
	}

	payload := map[string]string{
		"grant_type": "client_credentials",
		"appkey":     b.cfg.AppKey,
		"appsecret":  b.cfg.AppSecret,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.cfg.BaseURL+kisTokenPath, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	var tokenResp kisTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	b.token = tokenResp.AccessToken
	b.tokenUntil = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute)
	return b.token, nil
}

func (b *KISBroker) trID(side string) string {
	paper := b.cfg.Mode != "real"
	if side == entity.OrderSideBuy {
		if paper {
			return "VTTT0802U"
		}
		return "TTTC0802U"
	}
	if paper {
		return "VTTT0801U"
	}
	return "TTTC0801U"
}

// HealthCheck verifies the venue is configured well enough to trade.
func (b *KISBroker) HealthCheck(ctx context.Context) (*dto.HealthReport, error) {
	checks := map[string]string{
		"credentials": "OK",
		"account":     "OK",
		"mode":        b.cfg.Mode,
	}

	if b.cfg.AppKey == "" || b.cfg.AppSecret == "" {
		checks["credentials"] = "MISSING"
		return &dto.HealthReport{
			Broker: b.Name(),
			Status: dto.HealthCritical,
			Reason: "MISSING_CREDENTIALS",
			Checks: checks,
		}, nil
	}

	if b.cfg.AccountNo == "" {
		checks["account"] = "MISSING"
		return &dto.HealthReport{
			Broker: b.Name(),
			Status: dto.HealthWarn,
			Reason: "MISSING_ACCOUNT",
			Checks: checks,
		}, nil
	}

	return &dto.HealthReport{
		Broker: b.Name(),
		Status: dto.HealthOK,
		Checks: checks,
	}, nil
}
