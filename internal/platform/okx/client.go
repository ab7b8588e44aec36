// Package okx is the OKX v5 perpetual swap REST gateway. Callers pass
// unified BASE/QUOTE:QUOTE symbols; the gateway converts them to instrument
// ids and returns raw v5 rows.
package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/perpgate/internal/convert"
	"github.com/alanyoungcy/perpgate/internal/crypto"
	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/exchange"
	"github.com/alanyoungcy/perpgate/internal/platform/pacer"
	"github.com/alanyoungcy/perpgate/internal/symbol"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Sandbox routes requests to demo trading.
	Sandbox bool
	// Settle is the margin currency whose balance FetchBalance reports.
	// Defaults to USDT.
	Settle             string
	Timeout            time.Duration
	MinRequestInterval time.Duration
	Auth               crypto.HMACAuth
}

// Client is the REST client for the OKX v5 API.
type Client struct {
	baseURL    string
	sandbox    bool
	settle     string
	auth       crypto.HMACAuth
	pacer      *pacer.Pacer
	httpClient *http.Client
	now        func() time.Time
}

// Compile-time interface check.
var _ exchange.Gateway = (*Client)(nil)

// NewClient creates a new OKX REST client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	settle := strings.ToUpper(strings.TrimSpace(cfg.Settle))
	if settle == "" {
		settle = defaultSettle
	}
	return &Client{
		baseURL:    base,
		sandbox:    cfg.Sandbox,
		settle:     settle,
		auth:       cfg.Auth,
		pacer:      pacer.New(cfg.MinRequestInterval),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// instID converts any recognised symbol form to BASE-QUOTE-SWAP.
func instID(sym string) string {
	if sym == "" {
		return ""
	}
	return symbol.DashSwap{}.ToNative(symbol.DashSwap{}.ToCanonical(sym))
}

// indexID is the spot index id behind a swap, BASE-QUOTE.
func indexID(sym string) string {
	return strings.TrimSuffix(instID(sym), "-SWAP")
}

// --------------------------------------------------------------------------
// Account
// --------------------------------------------------------------------------

// FetchBalance returns the account balance row with the details of the
// settle currency only.
func (c *Client) FetchBalance(ctx context.Context) (convert.Payload, error) {
	params := url.Values{"ccy": {c.settle}}
	return c.first(ctx, "fetch balance", http.MethodGet, "/api/v5/account/balance", params, nil)
}

// FetchPositions returns every swap position.
func (c *Client) FetchPositions(ctx context.Context) ([]convert.Payload, error) {
	params := url.Values{"instType": {instTypeSwap}}
	return c.list(ctx, "fetch positions", http.MethodGet, "/api/v5/account/positions", params, nil)
}

// SetLeverage sets cross-margin leverage on the instrument.
func (c *Client) SetLeverage(ctx context.Context, sym, leverage string) error {
	body := setLeverageRequest{InstID: instID(sym), Lever: leverage, MgnMode: tdModeCross}
	if _, err := c.list(ctx, "set leverage", http.MethodPost, "/api/v5/account/set-leverage", nil, body); err != nil {
		return err
	}
	return nil
}

// FetchBills returns swap bills of the instrument, newest first.
func (c *Client) FetchBills(ctx context.Context, sym string, limit int) ([]convert.Payload, error) {
	params := instParams(sym, limit)
	params.Set("instType", instTypeSwap)
	return c.list(ctx, "fetch bills", http.MethodGet, "/api/v5/account/bills", params, nil)
}

// --------------------------------------------------------------------------
// Market data
// --------------------------------------------------------------------------

// FetchTicker returns the ticker merged with the mark and index prices,
// which OKX serves from separate endpoints. Those two are best effort.
func (c *Client) FetchTicker(ctx context.Context, sym string) (convert.Payload, error) {
	t, err := c.first(ctx, "fetch ticker", http.MethodGet, "/api/v5/market/ticker", instParams(sym, 0), nil)
	if err != nil {
		return nil, err
	}
	markParams := instParams(sym, 0)
	markParams.Set("instType", instTypeSwap)
	if m, err := c.first(ctx, "fetch mark price", http.MethodGet, "/api/v5/public/mark-price", markParams, nil); err == nil {
		t["markPx"] = m["markPx"]
	}
	idxParams := url.Values{"instId": {indexID(sym)}}
	if ix, err := c.first(ctx, "fetch index", http.MethodGet, "/api/v5/market/index-tickers", idxParams, nil); err == nil {
		t["idxPx"] = ix["idxPx"]
	}
	return t, nil
}

// FetchOHLCV returns candles as {ts,o,h,l,c,vol} rows.
func (c *Client) FetchOHLCV(ctx context.Context, sym, interval string, limit int) ([]convert.Payload, error) {
	params := instParams(sym, limit)
	if interval != "" {
		params.Set("bar", barOf(interval))
	}
	raw, err := c.do(ctx, "fetch candles", http.MethodGet, "/api/v5/market/candles", params, nil)
	if err != nil {
		return nil, err
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("okx: fetch candles: decode: %w", err)
	}
	keys := []string{"ts", "o", "h", "l", "c", "vol"}
	out := make([]convert.Payload, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(keys) {
			continue
		}
		p := convert.Payload{}
		for i, k := range keys {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				s = string(row[i])
			}
			p[k] = s
		}
		out = append(out, p)
	}
	return out, nil
}

// barOf maps lower-case hour and day intervals to OKX bar names, which
// capitalise them (1H, 1D).
func barOf(interval string) string {
	if n := len(interval); n > 0 {
		switch interval[n-1] {
		case 'h', 'd', 'w':
			return interval[:n-1] + strings.ToUpper(interval[n-1:])
		}
	}
	return interval
}

// FetchMarkets returns every swap instrument.
func (c *Client) FetchMarkets(ctx context.Context) ([]convert.Payload, error) {
	params := url.Values{"instType": {instTypeSwap}}
	return c.list(ctx, "fetch instruments", http.MethodGet, "/api/v5/public/instruments", params, nil)
}

// FetchMarket returns one swap instrument.
func (c *Client) FetchMarket(ctx context.Context, sym string) (convert.Payload, error) {
	params := instParams(sym, 0)
	params.Set("instType", instTypeSwap)
	return c.first(ctx, "fetch instrument "+sym, http.MethodGet, "/api/v5/public/instruments", params, nil)
}

// FetchFundingRate returns the current funding rate.
func (c *Client) FetchFundingRate(ctx context.Context, sym string) (convert.Payload, error) {
	return c.first(ctx, "fetch funding rate", http.MethodGet, "/api/v5/public/funding-rate", instParams(sym, 0), nil)
}

// FetchFundingRateHistory returns past realised funding rates.
func (c *Client) FetchFundingRateHistory(ctx context.Context, sym string, limit int) ([]convert.Payload, error) {
	return c.list(ctx, "fetch funding history", http.MethodGet, "/api/v5/public/funding-rate-history", instParams(sym, limit), nil)
}

// FetchOrderBook returns depth levels per side.
func (c *Client) FetchOrderBook(ctx context.Context, sym string, depth int) (convert.Payload, error) {
	params := instParams(sym, 0)
	if depth > 0 {
		params.Set("sz", strconv.Itoa(depth))
	}
	p, err := c.first(ctx, "fetch order book", http.MethodGet, "/api/v5/market/books", params, nil)
	if err != nil {
		return nil, err
	}
	p["instId"] = instID(sym)
	return p, nil
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

// CreateOrder places an order from unified createOrder arguments and
// returns the acknowledged order as a raw v5 row.
func (c *Client) CreateOrder(ctx context.Context, order convert.Payload) (convert.Payload, error) {
	req := placeOrder(order)
	rows, err := c.list(ctx, "create order", http.MethodPost, "/api/v5/trade/order", nil, []placeOrderRequest{req})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("okx: create order: empty acknowledgement: %w", domain.ErrNotFound)
	}
	ack := rows[0]
	out := convert.Payload{
		"ordId":      ack.Str("ordId"),
		"clOrdId":    req.ClOrdID,
		"instId":     req.InstID,
		"side":       req.Side,
		"ordType":    req.OrdType,
		"sz":         req.Sz,
		"px":         req.Px,
		"reduceOnly": req.ReduceOnly,
		"state":      "live",
		"cTime":      strconv.FormatInt(c.now().UnixMilli(), 10),
	}
	return out, nil
}

// placeOrder translates unified arguments to the v5 order body. An IOC
// limit at price zero, as used to close at any price, becomes a market
// order.
func placeOrder(p convert.Payload) placeOrderRequest {
	req := placeOrderRequest{
		InstID:     instID(p.Str("symbol")),
		TdMode:     tdModeCross,
		Side:       strings.ToLower(p.Str("side")),
		PosSide:    p.Str("posSide"),
		Sz:         p.Num("amount"),
		ReduceOnly: p.Bool("reduceOnly"),
		ClOrdID:    p.Str("clientOrderId"),
	}
	tif := strings.ToUpper(p.Str("timeInForce"))
	price := p.Num("price")
	switch {
	case p.Str("type") == "market":
		req.OrdType = "market"
	case tif == "IOC" && domain.IsZero(price):
		req.OrdType = "market"
	case tif == "IOC":
		req.OrdType = "ioc"
	case tif == "FOK":
		req.OrdType = "fok"
	case tif == "PO":
		req.OrdType = "post_only"
	default:
		req.OrdType = "limit"
	}
	if req.OrdType != "market" {
		req.Px = price
	}
	sl, tp := p.Num("stopLossPrice"), p.Num("takeProfitPrice")
	if !domain.IsZero(sl) || !domain.IsZero(tp) {
		algo := attachedAlgo{}
		if !domain.IsZero(sl) {
			algo.SlTriggerPx, algo.SlOrdPx = sl, "-1"
		}
		if !domain.IsZero(tp) {
			algo.TpTriggerPx, algo.TpOrdPx = tp, "-1"
		}
		req.AttachAlgo = []attachedAlgo{algo}
	}
	return req
}

// FetchOrder returns one order.
func (c *Client) FetchOrder(ctx context.Context, sym, id string) (convert.Payload, error) {
	params := instParams(sym, 0)
	params.Set("ordId", id)
	return c.first(ctx, "fetch order "+id, http.MethodGet, "/api/v5/trade/order", params, nil)
}

// CancelOrder cancels one order and returns it in the canceled state.
func (c *Client) CancelOrder(ctx context.Context, sym, id string) (convert.Payload, error) {
	body := cancelOrderRequest{InstID: instID(sym), OrdID: id}
	if _, err := c.list(ctx, "cancel order "+id, http.MethodPost, "/api/v5/trade/cancel-order", nil, body); err != nil {
		return nil, err
	}
	return convert.Payload{
		"ordId":  id,
		"instId": body.InstID,
		"state":  "canceled",
		"uTime":  strconv.FormatInt(c.now().UnixMilli(), 10),
	}, nil
}

// FetchOpenOrders returns pending orders on the instrument.
func (c *Client) FetchOpenOrders(ctx context.Context, sym string) ([]convert.Payload, error) {
	params := instParams(sym, 0)
	params.Set("instType", instTypeSwap)
	return c.list(ctx, "fetch open orders", http.MethodGet, "/api/v5/trade/orders-pending", params, nil)
}

// FetchClosedOrders returns up to limit finished orders.
func (c *Client) FetchClosedOrders(ctx context.Context, sym string, limit int) ([]convert.Payload, error) {
	params := instParams(sym, limit)
	params.Set("instType", instTypeSwap)
	return c.list(ctx, "fetch order history", http.MethodGet, "/api/v5/trade/orders-history", params, nil)
}

// FetchMyTrades returns up to limit fills.
func (c *Client) FetchMyTrades(ctx context.Context, sym string, limit int) ([]convert.Payload, error) {
	params := instParams(sym, limit)
	params.Set("instType", instTypeSwap)
	return c.list(ctx, "fetch fills", http.MethodGet, "/api/v5/trade/fills-history", params, nil)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func instParams(sym string, limit int) url.Values {
	params := url.Values{}
	if id := instID(sym); id != "" {
		params.Set("instId", id)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func (c *Client) first(ctx context.Context, op, method, path string, params url.Values, body any) (convert.Payload, error) {
	rows, err := c.list(ctx, op, method, path, params, body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("okx: %s: %w", op, domain.ErrNotFound)
	}
	return rows[0], nil
}

func (c *Client) list(ctx context.Context, op, method, path string, params url.Values, body any) ([]convert.Payload, error) {
	raw, err := c.do(ctx, op, method, path, params, body)
	if err != nil {
		return nil, err
	}
	rows, err := convert.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("okx: %s: %w", op, err)
	}
	for _, r := range rows {
		if code := r.Str("sCode"); code != "" && code != "0" {
			return nil, fmt.Errorf("okx: %s: %w", op, rowError(code, r.Str("sMsg")))
		}
	}
	return rows, nil
}

// do sends a signed request and returns the envelope's data field.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, reqBody any) (json.RawMessage, error) {
	raw, err := c.doSignedRequest(ctx, method, path, params, reqBody)
	if err != nil {
		return nil, fmt.Errorf("okx: %s: %w", op, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("okx: %s: decode envelope: %w", op, err)
	}
	if env.Code != "" && env.Code != "0" {
		// Batch-style failures carry the reason in the first data row.
		var acks []ackRow
		if json.Unmarshal(env.Data, &acks) == nil && len(acks) > 0 && acks[0].SCode != "" && acks[0].SCode != "0" {
			return nil, fmt.Errorf("okx: %s: %w", op, rowError(acks[0].SCode, acks[0].SMsg))
		}
		return nil, fmt.Errorf("okx: %s: %w", op, rowError(env.Code, env.Msg))
	}
	return env.Data, nil
}

// doSignedRequest builds, signs (HMAC-SHA256), sends, and reads an HTTP
// request against the OKX API.
func (c *Client) doSignedRequest(ctx context.Context, method, path string, params url.Values, reqBody any) ([]byte, error) {
	var bodyBytes []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = b
	}

	requestPath := path
	if len(params) > 0 {
		requestPath += "?" + params.Encode()
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.sandbox {
		req.Header.Set("x-simulated-trading", "1")
	}
	if c.auth.Key != "" {
		for k, v := range c.auth.OKXHeadersAt(method, requestPath, string(bodyBytes), c.now()) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.TransientNetworkError{Venue: venue, Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransientNetworkError{Venue: venue, Op: method + " " + path, Err: err}
	}

	if err := checkStatus(method+" "+path, resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to domain errors. OKX returns
// business errors with HTTP 200 as well, which do() handles.
func checkStatus(op string, statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	var env envelope
	_ = json.Unmarshal(body, &env)

	switch {
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &domain.TransientNetworkError{
			Venue: venue, Op: op,
			Err: fmt.Errorf("HTTP %d: %s (%s)", statusCode, env.Msg, env.Code),
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%s (%s): %w", env.Msg, env.Code, domain.ErrUnauthorized)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%s (%s): %w", env.Msg, env.Code, domain.ErrNotFound)
	case env.Code != "":
		return rowError(env.Code, env.Msg)
	default:
		return &domain.APIError{Venue: venue, Status: statusCode, Message: strings.TrimSpace(string(body))}
	}
}

// rowError maps an OKX error code to the domain taxonomy.
func rowError(code, msg string) error {
	switch {
	case marginCodes[code]:
		return &domain.MarginError{Venue: venue, Code: code, Message: msg}
	case notFoundCodes[code]:
		return fmt.Errorf("%s (%s): %w", msg, code, domain.ErrNotFound)
	case authCodes[code]:
		return fmt.Errorf("%s (%s): %w", msg, code, domain.ErrUnauthorized)
	case code == "50011": // rate limit
		return &domain.TransientNetworkError{Venue: venue, Op: "request", Err: fmt.Errorf("%s (%s)", msg, code)}
	default:
		return &domain.APIError{Venue: venue, Code: code, Message: msg}
	}
}
