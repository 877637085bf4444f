package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock-news-trader/internal/entity"
	"stock-news-trader/internal/trader/config"
	"stock-news-trader/internal/trader/dto"
	"stock-news-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kisVenueStub struct {
	tokenCalls int
	orderCalls int
	lastTrID   string
	lastOrder  map[string]string
	rtCd       string
	msg1       string
	ordNo      string
}

func (v *kisVenueStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(kisTokenPath, func(w http.ResponseWriter, r *http.Request) {
		v.tokenCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-token",
			"expires_in":   86400,
		})
	})
	mux.HandleFunc(kisOrderCashPath, func(w http.ResponseWriter, r *http.Request) {
		v.orderCalls++
		v.lastTrID = r.Header.Get("tr_id")
		v.lastOrder = map[string]string{}
		json.NewDecoder(r.Body).Decode(&v.lastOrder)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rt_cd":  v.rtCd,
			"msg_cd": "40910000",
			"msg1":   v.msg1,
			"output": map[string]string{"ODNO": v.ordNo, "ORD_TMD": "091512"},
		})
	})
	return mux
}

func newKISTestBroker(t *testing.T, venue *kisVenueStub, mode string) *KISBroker {
	t.Helper()
	server := httptest.NewServer(venue.handler())
	t.Cleanup(server.Close)

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	return NewKISBroker(config.KIS{
		AppKey:              "key",
		AppSecret:           "secret",
		AccountNo:           "50120345",
		ProductCode:         "01",
		Mode:                mode,
		BaseURL:             server.URL,
		MaxRequestPerMinute: 6000,
	}, log)
}

func TestKISSendOrderAccepted(t *testing.T) {
	venue := &kisVenueStub{rtCd: "0", ordNo: "0000117057"}
	b := newKISTestBroker(t, venue, "paper")

	result, err := b.SendOrder(context.Background(), dto.OrderRequest{
		Ticker:        "005930",
		Side:          entity.OrderSideBuy,
		Qty:           3,
		ExpectedPrice: 71000,
	})
	require.NoError(t, err)
	assert.True(t, result.Filled())
	assert.Equal(t, "0000117057", result.BrokerOrderID)
	assert.Equal(t, 71000.0, result.AvgPrice)
	assert.Equal(t, "ORDER_ACCEPTED:0000117057", result.ReasonCode)

	assert.Equal(t, "VTTT0802U", venue.lastTrID, "paper buy uses the mock-trading tr_id")
	assert.Equal(t, "005930", venue.lastOrder["PDNO"])
	assert.Equal(t, "3", venue.lastOrder["ORD_QTY"])
	assert.Equal(t, "01", venue.lastOrder["ORD_DVSN"])
	assert.Equal(t, "0", venue.lastOrder["ORD_UNPR"], "market orders carry no unit price")
}

func TestKISSendOrderRejected(t *testing.T) {
	venue := &kisVenueStub{rtCd: "1", msg1: "주문가능금액을 초과했습니다"}
	b := newKISTestBroker(t, venue, "paper")

	result, err := b.SendOrder(context.Background(), dto.OrderRequest{
		Ticker: "005930",
		Side:   entity.OrderSideBuy,
		Qty:    1,
	})
	require.NoError(t, err, "a venue reject is a result, not a transport error")
	assert.Equal(t, entity.OrderStatusRejected, result.Status)
	assert.False(t, result.Filled())
	assert.Equal(t, "주문가능금액을 초과했습니다", result.ReasonCode)
}

func TestKISTrIDPerModeAndSide(t *testing.T) {
	testCases := []struct {
		mode     string
		side     string
		expected string
	}{
		{"paper", entity.OrderSideBuy, "VTTT0802U"},
		{"paper", entity.OrderSideSell, "VTTT0801U"},
		{"real", entity.OrderSideBuy, "TTTC0802U"},
		{"real", entity.OrderSideSell, "TTTC0801U"},
	}

	for _, tc := range testCases {
		t.Run(tc.mode+"_"+tc.side, func(t *testing.T) {
			venue := &kisVenueStub{rtCd: "0", ordNo: "1"}
			b := newKISTestBroker(t, venue, tc.mode)

			_, err := b.SendOrder(context.Background(), dto.OrderRequest{Ticker: "005930", Side: tc.side, Qty: 1})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, venue.lastTrID)
		})
	}
}

func TestKISTokenIsCachedAcrossOrders(t *testing.T) {
	venue := &kisVenueStub{rtCd: "0", ordNo: "1"}
	b := newKISTestBroker(t, venue, "paper")

	for i := 0; i < 3; i++ {
		_, err := b.SendOrder(context.Background(), dto.OrderRequest{Ticker: "005930", Side: entity.OrderSideBuy, Qty: 1})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, venue.tokenCalls)
	assert.Equal(t, 3, venue.orderCalls)
}

func TestKISHealthCheck(t *testing.T) {
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	t.Run("missing credentials", func(t *testing.T) {
		b := NewKISBroker(config.KIS{}, log)
		report, err := b.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, dto.HealthCritical, report.Status)
		assert.Equal(t, "MISSING_CREDENTIALS", report.Reason)
		assert.Equal(t, "MISSING", report.Checks["credentials"])
	})

	t.Run("missing account", func(t *testing.T) {
		b := NewKISBroker(config.KIS{AppKey: "key", AppSecret: "secret"}, log)
		report, err := b.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, dto.HealthWarn, report.Status)
		assert.Equal(t, "MISSING_ACCOUNT", report.Reason)
	})

	t.Run("configured", func(t *testing.T) {
		b := NewKISBroker(config.KIS{AppKey: "key", AppSecret: "secret", AccountNo: "50120345", Mode: "paper"}, log)
		report, err := b.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, dto.HealthOK, report.Status)
		assert.Equal(t, "paper", report.Checks["mode"])
	})
}
