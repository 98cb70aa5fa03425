package bitget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func marketServer(t *testing.T, handler http.HandlerFunc) *MarketData {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMarketData(NewClient(srv.URL, Credentials{}))
}

func TestTopCoinsByVolumeFiltersAndSorts(t *testing.T) {
	m := marketServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"00000","msg":"success","data":[
			{"symbol":"ETHUSDT","usdtVolume":"200000","ts":"1700000000000"},
			{"symbol":"BTCBTC","usdtVolume":"999999999","ts":"1700000000000"},
			{"symbol":"BTCUSDT","usdtVolume":"900000","ts":"1700000000000"},
			{"symbol":"SOLUSDT","usdtVolume":"500000","ts":"1700000000000"}
		]}`))
	})

	top, err := m.TopCoinsByVolume(context.Background(), 2)
	if err != nil {
		t.Fatalf("top coins: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(top))
	}
	if top[0].Symbol != "BTCUSDT" || top[1].Symbol != "SOLUSDT" {
		t.Errorf("unexpected order: %s, %s", top[0].Symbol, top[1].Symbol)
	}
}

func TestTickerMissingSymbol(t *testing.T) {
	m := marketServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"00000","msg":"success","data":[]}`))
	})

	if _, err := m.Ticker(context.Background(), "NOPEUSDT"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestCandlesParsedOldestFirst(t *testing.T) {
	m := marketServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("granularity"); got != "1h" {
			t.Errorf("expected granularity 1h, got %s", got)
		}
		// Newest first from the exchange, plus one short row to skip.
		w.Write([]byte(`{"code":"00000","msg":"success","data":[
			["1700003600000","102","104","101","103","12","1230","1230"],
			["1700000000000","100","103","99","102","10","1020","1020"],
			["1700007200000","103"]
		]}`))
	})

	candles, err := m.Candles(context.Background(), "btcusdt", "1h", 48)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles (short row skipped), got %d", len(candles))
	}
	if candles[0].Timestamp != 1700000000000 || candles[1].Timestamp != 1700003600000 {
		t.Errorf("candles not sorted oldest first: %v", candles)
	}
	if candles[0].Open != 100 || candles[0].Close != 102 {
		t.Errorf("unexpected OHLC parse: %+v", candles[0])
	}
}
