package trade

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
	"github.com/MetaRPC/PyMT5-sub000/internal/config"
	"github.com/MetaRPC/PyMT5-sub000/internal/gateway"
	"github.com/MetaRPC/PyMT5-sub000/internal/gatewaytest"
	"github.com/MetaRPC/PyMT5-sub000/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startEngine(t *testing.T, services map[string]map[string]gatewaytest.Handler) (*session.Engine, *gatewaytest.Server) {
	t.Helper()

	srv, err := gatewaytest.Start(services)
	if err != nil {
		t.Fatalf("start fake gateway: %v", err)
	}
	t.Cleanup(srv.Stop)

	cfg := &config.TerminalConfig{
		Account: config.AccountConfig{Login: 12345, Password: "secret"},
		Gateway: config.GatewayConfig{Endpoint: srv.Addr(), Timeout: 2 * time.Second},
		Readiness: config.ReadinessConfig{
			MaxTries:      4,
			Delay:         10 * time.Millisecond,
			DefaultSymbol: "EURUSD",
		},
	}

	eng := session.New(cfg, gateway.NewTerminalAccount(cfg, testLogger()), session.WithLogger(testLogger()))
	if err := eng.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() = %v, want nil", err)
	}
	t.Cleanup(func() { eng.Disconnect(context.Background()) })

	return eng, srv
}

func tradingDeployment() map[string]map[string]gatewaytest.Handler {
	orders := []any{
		map[string]any{
			"ticket": 101, "symbol": "EURUSD", "type": "buy",
			"volume": 0.5, "price_open": 1.0850, "profit": 12.5,
		},
		map[string]any{
			"ticket": 102, "symbol": "GBPUSD", "type": "sell",
			"lots": 1.0, "open_price": 1.2700,
		},
	}

	return map[string]map[string]gatewaytest.Handler{
		"mt5.Account": {
			"AccountSummary": gatewaytest.OK(nil),
		},
		"mt5.AccountHelper": {
			"Ping":         gatewaytest.OK(nil),
			"ServerTime":   gatewaytest.OK(nil),
			"OpenedOrders": gatewaytest.OK(capability.Fields{"orders": orders}),
		},
		"mt5.MarketInfo": {
			"SymbolInfoTick": gatewaytest.OK(capability.Fields{
				"bid": 1.0851, "ask": 1.0853, "time": 1724630400000,
			}),
		},
		"mt5.TradeFunctions": {
			"OrdersTotal": gatewaytest.OK(nil),
			"OrderSend": gatewaytest.OK(capability.Fields{
				"ticket": 5001, "retcode": 10009, "price": 1.0853,
			}),
			"OrderClose": gatewaytest.OK(capability.Fields{
				"retcode": 10013, "comment": "invalid request",
			}),
		},
	}
}

func TestQuote(t *testing.T) {
	eng, _ := startEngine(t, tradingDeployment())
	client := NewClient(eng, WithLogger(testLogger()))

	q, err := client.Quote(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("Quote() = %v, want nil", err)
	}
	if q.Bid != 1.0851 || q.Ask != 1.0853 {
		t.Errorf("quote = %+v, want bid 1.0851 ask 1.0853", q)
	}
	if q.Time != 1724630400000 {
		t.Errorf("time = %d, want 1724630400000", q.Time)
	}
}

func TestOrderSend(t *testing.T) {
	eng, srv := startEngine(t, tradingDeployment())
	client := NewClient(eng, WithLogger(testLogger()))

	res, err := client.OrderSend(context.Background(), OrderRequest{
		Symbol: "EURUSD",
		Type:   "buy",
		Volume: 0.1,
	})
	if err != nil {
		t.Fatalf("OrderSend() = %v, want nil", err)
	}
	if res.Ticket != 5001 {
		t.Errorf("ticket = %d, want 5001", res.Ticket)
	}
	if srv.Calls("mt5.TradeFunctions", "OrderSend") != 1 {
		t.Errorf("OrderSend calls = %d, want 1", srv.Calls("mt5.TradeFunctions", "OrderSend"))
	}
}

func TestOrderCloseRejected(t *testing.T) {
	eng, _ := startEngine(t, tradingDeployment())
	client := NewClient(eng, WithLogger(testLogger()))

	res, err := client.OrderClose(context.Background(), 101, 0)
	if !errors.Is(err, ErrOrderRejected) {
		t.Fatalf("OrderClose() = %v, want ErrOrderRejected", err)
	}
	if res == nil || res.Retcode != 10013 {
		t.Errorf("result = %+v, want retcode 10013", res)
	}
}

func TestOpenedOrders(t *testing.T) {
	eng, _ := startEngine(t, tradingDeployment())
	client := NewClient(eng, WithLogger(testLogger()))

	orders, err := client.OpenedOrders(context.Background())
	if err != nil {
		t.Fatalf("OpenedOrders() = %v, want nil", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
	if orders[0].Ticket != 101 || orders[0].Symbol != "EURUSD" || orders[0].Volume != 0.5 {
		t.Errorf("first order = %+v", orders[0])
	}
	// Variant field spellings decode the same way.
	if orders[1].Volume != 1.0 || orders[1].PriceOpen != 1.2700 {
		t.Errorf("second order = %+v, want lots/open_price variants decoded", orders[1])
	}
}

func TestOrderHistoryPagination(t *testing.T) {
	// Two full pages then a short one.
	page := func(n int, start int) []any {
		items := make([]any, n)
		for i := range items {
			items[i] = map[string]any{"ticket": start + i, "symbol": "EURUSD"}
		}
		return items
	}

	var call atomic.Int32
	services := tradingDeployment()
	services["mt5.AccountHelper"]["OrderHistory"] = func(ctx context.Context, req capability.Fields) (capability.Fields, error) {
		switch call.Add(1) {
		case 1:
			return capability.Fields{"orders": page(historyPageSize, 0)}, nil
		case 2:
			return capability.Fields{"orders": page(historyPageSize, historyPageSize)}, nil
		default:
			return capability.Fields{"orders": page(3, 2*historyPageSize)}, nil
		}
	}

	eng, _ := startEngine(t, services)
	client := NewClient(eng, WithLogger(testLogger()))

	orders, err := client.OrderHistory(context.Background(), 0, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("OrderHistory() = %v, want nil", err)
	}
	if want := 2*historyPageSize + 3; len(orders) != want {
		t.Errorf("got %d orders, want %d", len(orders), want)
	}
	if got := call.Load(); got != 3 {
		t.Errorf("history calls = %d, want 3", got)
	}
}

func TestUnsupportedCapability(t *testing.T) {
	// A deployment without trade functions must report ErrNotSupported, not
	// a transport error.
	services := tradingDeployment()
	delete(services, "mt5.TradeFunctions")

	eng, _ := startEngine(t, services)
	client := NewClient(eng, WithLogger(testLogger()))

	_, err := client.OrderSend(context.Background(), OrderRequest{Symbol: "EURUSD", Type: "buy", Volume: 0.1})
	if !errors.Is(err, capability.ErrNotSupported) {
		t.Errorf("OrderSend() = %v, want ErrNotSupported", err)
	}
}
