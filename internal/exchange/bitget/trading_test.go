package bitget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vnnyx/lumina-capital/internal/types"
)

type recordedOrder struct {
	res       types.ExecutionResult
	orderType string
	size      string
	price     string
}

type fakeRecorder struct {
	orders []recordedOrder
}

func (f *fakeRecorder) RecordOrder(_ context.Context, res types.ExecutionResult, orderType, size, price string) {
	f.orders = append(f.orders, recordedOrder{res: res, orderType: orderType, size: size, price: price})
}

type trackedFill struct {
	coin, side string
	qty, price decimal.Decimal
}

type fakeEntries struct {
	fills   []trackedFill
	entries map[string]decimal.Decimal
}

func (f *fakeEntries) RecordFill(_ context.Context, coin, side string, qty, price decimal.Decimal) {
	f.fills = append(f.fills, trackedFill{coin: coin, side: side, qty: qty, price: price})
}

func (f *fakeEntries) AvgEntry(coin string) (decimal.Decimal, bool) {
	p, ok := f.entries[coin]
	return p, ok
}

func TestPaperOrderNeverReachesOrderEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v2/spot/trade/") {
			t.Errorf("paper mode must not reach order endpoints, got %s %s", r.Method, r.URL.Path)
			return
		}
		// public ticker feed stays available for simulated fills
		w.Write([]byte(`{"code":"00000","msg":"success","data":[{"symbol":"BTCUSDT","lastPr":"20"}]}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	tr := NewTrader(NewClient(srv.URL, Credentials{}), true, rec, nil)

	res, err := tr.PlaceOrder(context.Background(), "btcusdt", "BUY", "market", "100", "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !res.Paper || !res.Success {
		t.Errorf("expected successful paper fill, got %+v", res)
	}
	if res.Symbol != "BTCUSDT" || res.Side != "buy" {
		t.Errorf("symbol/side not normalized: %+v", res)
	}
	if !strings.HasPrefix(res.OrderID, "paper_") {
		t.Errorf("expected paper_ order id, got %s", res.OrderID)
	}
	if len(rec.orders) != 1 || rec.orders[0].size != "100" {
		t.Errorf("order not recorded: %+v", rec.orders)
	}
}

func TestPaperMarketBuyTracksBaseQuantity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/spot/market/tickers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":"00000","msg":"success","data":[{"symbol":"BTCUSDT","lastPr":"20"}]}`))
	}))
	defer srv.Close()

	entries := &fakeEntries{}
	tr := NewTrader(NewClient(srv.URL, Credentials{}), true, nil, entries)

	// market buys are sized in USDT: 100 quote at 20 is 5 base
	if _, err := tr.PlaceOrder(context.Background(), "BTCUSDT", "buy", "market", "100", ""); err != nil {
		t.Fatalf("place: %v", err)
	}
	if len(entries.fills) != 1 {
		t.Fatalf("expected 1 tracked fill, got %d", len(entries.fills))
	}
	f := entries.fills[0]
	if f.coin != "BTC" || f.side != "buy" {
		t.Errorf("unexpected fill identity: %+v", f)
	}
	if f.qty.String() != "5" || f.price.String() != "20" {
		t.Errorf("expected qty 5 at 20, got %s at %s", f.qty, f.price)
	}

	// limit sells fill at the limit price, sized in base
	if _, err := tr.PlaceOrder(context.Background(), "BTCUSDT", "sell", "limit", "2", "25"); err != nil {
		t.Fatalf("place: %v", err)
	}
	f = entries.fills[1]
	if f.side != "sell" || f.qty.String() != "2" || f.price.String() != "25" {
		t.Errorf("expected sell 2 at 25, got %+v", f)
	}
}

func TestLiveOrderSubmitsAndRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/spot/trade/place-order" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req placeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Symbol != "ETHUSDT" || req.Side != "buy" || req.Force != "gtc" {
			t.Errorf("unexpected payload: %+v", req)
		}
		if req.ClientOid == "" {
			t.Error("missing client order id")
		}
		w.Write([]byte(`{"code":"00000","msg":"success","data":{"orderId":"123","clientOid":"` + req.ClientOid + `"}}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, rec, nil)

	res, err := tr.PlaceOrder(context.Background(), "ETHUSDT", "buy", "market", "50", "")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if res.OrderID != "123" || res.Status != "submitted" || !res.Success {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(rec.orders) != 1 {
		t.Errorf("live order should be recorded, got %d", len(rec.orders))
	}
}

func TestRejectedOrderReportedInResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"43012","msg":"Insufficient balance","data":null}`))
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, nil, nil)

	res, err := tr.PlaceOrder(context.Background(), "ETHUSDT", "buy", "market", "5000000", "")
	if err != nil {
		t.Fatalf("exchange rejection must not be an error: %v", err)
	}
	if res.Status != "failed" || res.Success {
		t.Errorf("expected failed result, got %+v", res)
	}
	if !strings.Contains(res.ErrorMessage, "43012") {
		t.Errorf("expected rejection code in message, got %q", res.ErrorMessage)
	}
}

func TestExecuteDecisionHoldAndInvalid(t *testing.T) {
	tr := NewTrader(NewClient("http://unused", Credentials{}), true, nil, nil)

	res, err := tr.ExecuteDecision(context.Background(), types.TradeDecision{
		Symbol: "BTCUSDT", Action: types.ActionHold,
	})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if res.Status != "no_action" || !res.Success {
		t.Errorf("expected no_action for hold, got %+v", res)
	}

	res, err = tr.ExecuteDecision(context.Background(), types.TradeDecision{
		Symbol: "BTCUSDT", Action: types.ActionBuy, // no quantity
	})
	if err != nil {
		t.Fatalf("invalid: %v", err)
	}
	if res.Status != "invalid" {
		t.Errorf("expected invalid status without quantity, got %+v", res)
	}
}

func TestCancelOrder(t *testing.T) {
	var cancelled bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/spot/trade/cancel-order" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["symbol"] != "BTCUSDT" || req["orderId"] != "42" {
			t.Errorf("unexpected payload: %+v", req)
		}
		cancelled = true
		w.Write([]byte(`{"code":"00000","msg":"success","data":null}`))
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, nil, nil)
	ok, err := tr.CancelOrder(context.Background(), "btcusdt", "42")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !ok || !cancelled {
		t.Errorf("expected cancel to reach the exchange and succeed")
	}
}

func TestCancelOrderRejectionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"43025","msg":"Order does not exist","data":null}`))
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, nil, nil)
	ok, err := tr.CancelOrder(context.Background(), "BTCUSDT", "missing")
	if err != nil {
		t.Fatalf("exchange rejection must not be an error: %v", err)
	}
	if ok {
		t.Error("rejected cancel must read as false")
	}
}

func TestCancelOrderPaperNeverHitsExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("paper cancel must not call the exchange, got %s", r.URL.Path)
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{}), true, nil, nil)
	ok, err := tr.CancelOrder(context.Background(), "BTCUSDT", "paper_abc")
	if err != nil || ok {
		t.Errorf("expected false, nil in paper mode, got %v, %v", ok, err)
	}
}

func TestPortfolioParsesAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/spot/account/assets":
			if r.URL.Query().Get("assetType") != "hold_only" {
				t.Errorf("expected hold_only assets, got %q", r.URL.RawQuery)
			}
			if r.Header.Get("ACCESS-SIGN") == "" {
				t.Error("portfolio fetch must be signed")
			}
			w.Write([]byte(`{"code":"00000","msg":"success","data":[
				{"coin":"btc","available":"0.5","frozen":"0.1","locked":"0","uTime":"1700000000000"},
				{"coin":"USDT","available":"1200","frozen":"0","locked":"0","uTime":"1700000000000"}
			]}`))
		case "/api/v2/spot/market/tickers":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, nil, nil)
	pf, err := tr.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if len(pf.Positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(pf.Positions))
	}

	btc, ok := pf.Position("BTC")
	if !ok {
		t.Fatal("BTC position missing")
	}
	if btc.TotalBalance().String() != "0.6" {
		t.Errorf("expected total 0.6, got %s", btc.TotalBalance())
	}
	if pf.USDTBalance().String() != "1200" {
		t.Errorf("expected 1200 USDT, got %s", pf.USDTBalance())
	}
}

func TestPortfolioEnrichesCostBasisFromFills(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/spot/account/assets":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[
				{"coin":"BTC","available":"0.5","frozen":"0.1","locked":"0","uTime":"1700000000000"},
				{"coin":"USDT","available":"1200","frozen":"0","locked":"0","uTime":"1700000000000"}
			]}`))
		case "/api/v2/spot/market/tickers":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[{"symbol":"BTCUSDT","lastPr":"30000"}]}`))
		case "/api/v2/spot/trade/fills":
			if r.URL.Query().Get("symbol") != "BTCUSDT" {
				t.Errorf("expected BTCUSDT fills, got %q", r.URL.RawQuery)
			}
			// sells are excluded from the cost basis
			w.Write([]byte(`{"code":"00000","msg":"success","data":[
				{"tradeId":"1","symbol":"BTCUSDT","side":"buy","priceAvg":"20000","size":"0.3"},
				{"tradeId":"2","symbol":"BTCUSDT","side":"buy","priceAvg":"30000","size":"0.3"},
				{"tradeId":"3","symbol":"BTCUSDT","side":"sell","priceAvg":"40000","size":"0.1"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), false, nil, nil)
	pf, err := tr.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}

	btc, ok := pf.Position("BTC")
	if !ok {
		t.Fatal("BTC position missing")
	}
	if btc.CurrentPrice.String() != "30000" {
		t.Errorf("expected current price 30000, got %s", btc.CurrentPrice)
	}
	if btc.AvgEntryPrice.String() != "25000" {
		t.Errorf("expected weighted avg entry 25000, got %s", btc.AvgEntryPrice)
	}
	if btc.UnrealizedPNL.String() != "3000" {
		t.Errorf("expected unrealized PNL 3000, got %s", btc.UnrealizedPNL)
	}
	if btc.UnrealizedPNLPct.String() != "20" {
		t.Errorf("expected PNL pct 20, got %s", btc.UnrealizedPNLPct)
	}

	usdt, _ := pf.Position("USDT")
	if !usdt.CurrentPrice.IsZero() || !usdt.UnrealizedPNL.IsZero() {
		t.Errorf("USDT must stay bare, got %+v", usdt)
	}
}

func TestPortfolioEnrichesCostBasisFromPaperEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/spot/account/assets":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[
				{"coin":"ETH","available":"2","frozen":"0","locked":"0","uTime":"1700000000000"}
			]}`))
		case "/api/v2/spot/market/tickers":
			w.Write([]byte(`{"code":"00000","msg":"success","data":[{"symbol":"ETHUSDT","lastPr":"2200"}]}`))
		default:
			t.Errorf("paper enrichment must not call %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	entries := &fakeEntries{entries: map[string]decimal.Decimal{"ETH": decimal.NewFromInt(2000)}}
	tr := NewTrader(NewClient(srv.URL, Credentials{AccessKey: "k", SecretKey: "s", Passphrase: "p"}), true, nil, entries)
	pf, err := tr.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}

	eth, ok := pf.Position("ETH")
	if !ok {
		t.Fatal("ETH position missing")
	}
	if eth.AvgEntryPrice.String() != "2000" {
		t.Errorf("expected tracked entry 2000, got %s", eth.AvgEntryPrice)
	}
	if eth.UnrealizedPNL.String() != "400" {
		t.Errorf("expected unrealized PNL 400, got %s", eth.UnrealizedPNL)
	}
}
