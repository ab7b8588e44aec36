package okx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpgate/internal/convert"
	"github.com/alanyoungcy/perpgate/internal/crypto"
	"github.com/alanyoungcy/perpgate/internal/domain"
)

func newTestClient(t *testing.T, sandbox bool, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL: srv.URL,
		Sandbox: sandbox,
		Auth:    crypto.HMACAuth{Key: "key", Secret: "secret", Passphrase: "pass"},
	})
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func ok(w http.ResponseWriter, data string) {
	_, _ = io.WriteString(w, `{"code":"0","msg":"","data":`+data+`}`)
}

func TestInstID(t *testing.T) {
	assert.Equal(t, "BTC-USDT-SWAP", instID("BTC/USDT:USDT"))
	assert.Equal(t, "BTC-USDT-SWAP", instID("BTC_USDT"))
	assert.Equal(t, "BTC-USDT-SWAP", instID("BTC-USDT-SWAP"))
	assert.Equal(t, "BTC-USDT", indexID("BTC/USDT:USDT"))
	assert.Equal(t, "", instID(""))
}

func TestSignedHeaders(t *testing.T) {
	c := newTestClient(t, true, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/account/balance", r.URL.Path)
		assert.Equal(t, "USDT", r.URL.Query().Get("ccy"))
		assert.Equal(t, "key", r.Header.Get("OK-ACCESS-KEY"))
		assert.Equal(t, "pass", r.Header.Get("OK-ACCESS-PASSPHRASE"))
		assert.Equal(t, "2023-11-14T22:13:20.000Z", r.Header.Get("OK-ACCESS-TIMESTAMP"))
		assert.NotEmpty(t, r.Header.Get("OK-ACCESS-SIGN"))
		assert.Equal(t, "1", r.Header.Get("x-simulated-trading"))
		ok(w, `[{"totalEq":"1000","details":[{"ccy":"USDT","eq":"1000","availEq":"900"}]}]`)
	})

	p, err := c.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000", p.Num("totalEq"))
	assert.Len(t, p.List("details"), 1)
}

func TestFetchBalanceSettleCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USDC", r.URL.Query().Get("ccy"))
		ok(w, `[{"totalEq":"500","details":[{"ccy":"USDC","eq":"500","availEq":"450"}]}]`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL, Settle: "usdc"})
	p, err := c.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.List("details"), 1)
}

func TestLiveOmitsSimulatedHeader(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("x-simulated-trading"))
		ok(w, `[]`)
	})
	_, err := c.FetchPositions(context.Background())
	require.NoError(t, err)
}

func TestFetchTickerMergesMarkAndIndex(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/v5/market/ticker":
			assert.Equal(t, "BTC-USDT-SWAP", q.Get("instId"))
			ok(w, `[{"instId":"BTC-USDT-SWAP","last":"65000","open24h":"60000"}]`)
		case "/api/v5/public/mark-price":
			assert.Equal(t, "SWAP", q.Get("instType"))
			ok(w, `[{"instId":"BTC-USDT-SWAP","markPx":"65010"}]`)
		case "/api/v5/market/index-tickers":
			assert.Equal(t, "BTC-USDT", q.Get("instId"))
			ok(w, `[{"instId":"BTC-USDT","idxPx":"64990"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	p, err := c.FetchTicker(context.Background(), "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.Equal(t, "65000", p.Num("last"))
	assert.Equal(t, "65010", p.Num("markPx"))
	assert.Equal(t, "64990", p.Num("idxPx"))
}

func TestFetchOHLCVMapsArrays(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1H", r.URL.Query().Get("bar"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		ok(w, `[["1700000000000","1","2","0.5","1.5","100","0","0","1"],["short"]]`)
	})

	rows, err := c.FetchOHLCV(context.Background(), "BTC/USDT:USDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1700000000000", rows[0].Str("ts"))
	assert.Equal(t, "1.5", rows[0].Num("c"))
	assert.Equal(t, "100", rows[0].Num("vol"))
}

func TestBarOf(t *testing.T) {
	assert.Equal(t, "1m", barOf("1m"))
	assert.Equal(t, "4H", barOf("4h"))
	assert.Equal(t, "1D", barOf("1d"))
	assert.Equal(t, "", barOf(""))
}

func TestCreateOrderTranslatesUnifiedArgs(t *testing.T) {
	var got []placeOrderRequest
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v5/trade/order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		ok(w, `[{"ordId":"555","clOrdId":"t1","sCode":"0","sMsg":""}]`)
	})

	p, err := c.CreateOrder(context.Background(), convert.Payload{
		"symbol": "BTC/USDT:USDT", "side": "sell", "amount": "2", "type": "limit",
		"price": "65000", "timeInForce": "PO", "reduceOnly": true,
		"stopLossPrice": "70000", "clientOrderId": "t1",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	req := got[0]
	assert.Equal(t, "BTC-USDT-SWAP", req.InstID)
	assert.Equal(t, "cross", req.TdMode)
	assert.Equal(t, "post_only", req.OrdType)
	assert.Equal(t, "65000", req.Px)
	assert.True(t, req.ReduceOnly)
	require.Len(t, req.AttachAlgo, 1)
	assert.Equal(t, "70000", req.AttachAlgo[0].SlTriggerPx)

	assert.Equal(t, "555", p.Str("ordId"))
	assert.Equal(t, "live", p.Str("state"))
	assert.Equal(t, "1700000000000", p.Str("cTime"))
}

func TestPlaceOrderTypes(t *testing.T) {
	cases := []struct {
		name    string
		args    convert.Payload
		ordType string
		px      string
	}{
		{"market", convert.Payload{"type": "market", "price": "1"}, "market", ""},
		{"gtc limit", convert.Payload{"type": "limit", "price": "10", "timeInForce": "GTC"}, "limit", "10"},
		{"ioc limit", convert.Payload{"type": "limit", "price": "10", "timeInForce": "IOC"}, "ioc", "10"},
		{"ioc at zero closes at market", convert.Payload{"type": "limit", "price": "0", "timeInForce": "IOC"}, "market", ""},
		{"fok", convert.Payload{"type": "limit", "price": "10", "timeInForce": "FOK"}, "fok", "10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := placeOrder(tc.args)
			assert.Equal(t, tc.ordType, req.OrdType)
			assert.Equal(t, tc.px, req.Px)
		})
	}
}

func TestMarginRejection(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"1","msg":"Operation failed.","data":[{"ordId":"","sCode":"51008","sMsg":"Insufficient balance"}]}`)
	})
	_, err := c.CreateOrder(context.Background(), convert.Payload{"symbol": "BTC/USDT:USDT", "side": "buy", "amount": "1", "type": "market"})
	var me *domain.MarginError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "51008", me.Code)
	assert.Equal(t, domain.VenueOKX, me.Venue)
}

func TestCancelOrder(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		var body cancelOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ETH-USDT-SWAP", body.InstID)
		assert.Equal(t, "7", body.OrdID)
		ok(w, `[{"ordId":"7","sCode":"0"}]`)
	})
	p, err := c.CancelOrder(context.Background(), "ETH/USDT:USDT", "7")
	require.NoError(t, err)
	assert.Equal(t, "canceled", p.Str("state"))
}

func TestFetchMarketEmptyIsNotFound(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		ok(w, `[]`)
	})
	_, err := c.FetchMarket(context.Background(), "NOPE/USDT:USDT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"server error", 503, `{}`, func(t *testing.T, err error) { assert.True(t, domain.IsTransient(err)) }},
		{"rate limited", 429, `{"code":"50011","msg":"Too Many Requests"}`, func(t *testing.T, err error) { assert.True(t, domain.IsTransient(err)) }},
		{"rate limit code", 200, `{"code":"50011","msg":"Too Many Requests","data":[]}`, func(t *testing.T, err error) { assert.True(t, domain.IsTransient(err)) }},
		{"auth", 401, `{"code":"50111","msg":"Invalid OK-ACCESS-KEY"}`, func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrUnauthorized) }},
		{"unknown instrument", 200, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, domain.ErrNotFound)
		}},
		{"business error", 200, `{"code":"51000","msg":"Parameter error","data":[]}`, func(t *testing.T, err error) {
			var ae *domain.APIError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "51000", ae.Code)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.FetchPositions(context.Background())
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestFetchOrderBookTagsInstrument(t *testing.T) {
	c := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("sz"))
		ok(w, `[{"asks":[["65001","2","0","1"]],"bids":[["64999","3","0","2"]],"ts":"1700000000000"}]`)
	})
	p, err := c.FetchOrderBook(context.Background(), "BTC/USDT:USDT", 5)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT-SWAP", p.Str("instId"))
	assert.Len(t, p.List("asks"), 1)
}
