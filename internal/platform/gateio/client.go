// Package gateio is the Gate.io v4 USDT-settled futures REST gateway. It
// speaks Gate's native field names and leaves conversion to the caller.
package gateio

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
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root including the /api/v4 prefix. Empty selects
	// LiveBaseURL, or TestnetBaseURL when Sandbox is set.
	BaseURL string
	Sandbox bool
	// Settle is the settlement currency path segment, "usdt" by default.
	Settle             string
	Timeout            time.Duration
	MinRequestInterval time.Duration
	Auth               crypto.HMACAuth
}

// Client is the REST client for the Gate.io futures API.
type Client struct {
	baseURL    string
	pathPrefix string // URL path of baseURL, part of the signed path
	settle     string
	auth       crypto.HMACAuth
	pacer      *pacer.Pacer
	httpClient *http.Client
}

// Compile-time interface check.
var _ exchange.Gateway = (*Client)(nil)

// NewClient creates a new Gate.io REST client.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = LiveBaseURL
		if cfg.Sandbox {
			base = TestnetBaseURL
		}
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateio: parse base url: %w", err)
	}
	settle := strings.ToLower(cfg.Settle)
	if settle == "" {
		settle = "usdt"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    u.String(),
		pathPrefix: u.Path,
		settle:     settle,
		auth:       cfg.Auth,
		pacer:      pacer.New(cfg.MinRequestInterval),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) futures(path string) string {
	return "/futures/" + c.settle + path
}

// --------------------------------------------------------------------------
// Account
// --------------------------------------------------------------------------

// FetchBalance returns the futures account.
func (c *Client) FetchBalance(ctx context.Context) (convert.Payload, error) {
	return c.getObject(ctx, "fetch balance", c.futures("/accounts"), nil)
}

// FetchPositions returns every position of the account.
func (c *Client) FetchPositions(ctx context.Context) ([]convert.Payload, error) {
	return c.getList(ctx, "fetch positions", c.futures("/positions"), nil)
}

// SetLeverage updates the leverage of the position on contract.
func (c *Client) SetLeverage(ctx context.Context, contract, leverage string) error {
	params := url.Values{}
	params.Set("leverage", leverage)
	path := c.futures("/positions/" + url.PathEscape(contract) + "/leverage")
	if _, err := c.doSignedRequest(ctx, http.MethodPost, path, params, nil); err != nil {
		return fmt.Errorf("gateio: set leverage %s: %w", contract, err)
	}
	return nil
}

// FetchBills returns the account book of contract, newest first.
func (c *Client) FetchBills(ctx context.Context, contract string, limit int) ([]convert.Payload, error) {
	return c.getList(ctx, "fetch account book", c.futures("/account_book"), contractParams(contract, limit))
}

// --------------------------------------------------------------------------
// Market data
// --------------------------------------------------------------------------

// FetchTicker returns the ticker of one contract.
func (c *Client) FetchTicker(ctx context.Context, contract string) (convert.Payload, error) {
	list, err := c.getList(ctx, "fetch ticker", c.futures("/tickers"), contractParams(contract, 0))
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.Str("contract") == contract {
			return t, nil
		}
	}
	return nil, fmt.Errorf("gateio: ticker %s: %w", contract, domain.ErrNotFound)
}

// FetchOHLCV returns up to limit candles of contract.
func (c *Client) FetchOHLCV(ctx context.Context, contract, interval string, limit int) ([]convert.Payload, error) {
	params := contractParams(contract, limit)
	if interval != "" {
		params.Set("interval", interval)
	}
	return c.getList(ctx, "fetch candlesticks", c.futures("/candlesticks"), params)
}

// FetchMarkets returns every listed contract.
func (c *Client) FetchMarkets(ctx context.Context) ([]convert.Payload, error) {
	return c.getList(ctx, "fetch contracts", c.futures("/contracts"), nil)
}

// FetchMarket returns one contract.
func (c *Client) FetchMarket(ctx context.Context, contract string) (convert.Payload, error) {
	return c.getObject(ctx, "fetch contract "+contract, c.futures("/contracts/"+url.PathEscape(contract)), nil)
}

// FetchFundingRate returns the contract record, which carries the current
// and indicative funding rates.
func (c *Client) FetchFundingRate(ctx context.Context, contract string) (convert.Payload, error) {
	return c.FetchMarket(ctx, contract)
}

// FetchFundingRateHistory returns past funding rates of contract.
func (c *Client) FetchFundingRateHistory(ctx context.Context, contract string, limit int) ([]convert.Payload, error) {
	return c.getList(ctx, "fetch funding history", c.futures("/funding_rate"), contractParams(contract, limit))
}

// FetchOrderBook returns the book of contract to depth levels per side.
func (c *Client) FetchOrderBook(ctx context.Context, contract string, depth int) (convert.Payload, error) {
	p, err := c.getObject(ctx, "fetch order book", c.futures("/order_book"), contractParams(contract, depth))
	if err != nil {
		return nil, err
	}
	if !p.Has("contract") {
		p["contract"] = contract
	}
	return p, nil
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

// CreateOrder submits a futures order body as built by the converter.
func (c *Client) CreateOrder(ctx context.Context, order convert.Payload) (convert.Payload, error) {
	return c.sendObject(ctx, "create order", http.MethodPost, c.futures("/orders"), nil, order)
}

// FetchOrder returns one order by id.
func (c *Client) FetchOrder(ctx context.Context, _ string, id string) (convert.Payload, error) {
	return c.getObject(ctx, "fetch order "+id, c.futures("/orders/"+url.PathEscape(id)), nil)
}

// CancelOrder cancels one order by id.
func (c *Client) CancelOrder(ctx context.Context, _ string, id string) (convert.Payload, error) {
	return c.sendObject(ctx, "cancel order "+id, http.MethodDelete, c.futures("/orders/"+url.PathEscape(id)), nil, nil)
}

// FetchOpenOrders returns the open orders of contract.
func (c *Client) FetchOpenOrders(ctx context.Context, contract string) ([]convert.Payload, error) {
	params := contractParams(contract, 0)
	params.Set("status", "open")
	return c.getList(ctx, "fetch open orders", c.futures("/orders"), params)
}

// FetchClosedOrders returns up to limit finished orders of contract.
func (c *Client) FetchClosedOrders(ctx context.Context, contract string, limit int) ([]convert.Payload, error) {
	params := contractParams(contract, limit)
	params.Set("status", "finished")
	return c.getList(ctx, "fetch finished orders", c.futures("/orders"), params)
}

// FetchMyTrades returns up to limit of the account's fills on contract.
func (c *Client) FetchMyTrades(ctx context.Context, contract string, limit int) ([]convert.Payload, error) {
	return c.getList(ctx, "fetch my trades", c.futures("/my_trades"), contractParams(contract, limit))
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func contractParams(contract string, limit int) url.Values {
	params := url.Values{}
	if contract != "" {
		params.Set("contract", contract)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

func (c *Client) getObject(ctx context.Context, op, path string, params url.Values) (convert.Payload, error) {
	return c.sendObject(ctx, op, http.MethodGet, path, params, nil)
}

func (c *Client) sendObject(ctx context.Context, op, method, path string, params url.Values, body any) (convert.Payload, error) {
	raw, err := c.doSignedRequest(ctx, method, path, params, body)
	if err != nil {
		return nil, fmt.Errorf("gateio: %s: %w", op, err)
	}
	p, err := convert.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("gateio: %s: %w", op, err)
	}
	return p, nil
}

func (c *Client) getList(ctx context.Context, op, path string, params url.Values) ([]convert.Payload, error) {
	raw, err := c.doSignedRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, fmt.Errorf("gateio: %s: %w", op, err)
	}
	list, err := convert.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("gateio: %s: %w", op, err)
	}
	return list, nil
}

// doSignedRequest builds, signs (HMAC-SHA512), sends, and reads an HTTP
// request against the Gate.io API. Transport failures come back as
// TransientNetworkError.
func (c *Client) doSignedRequest(ctx context.Context, method, path string, params url.Values, reqBody any) ([]byte, error) {
	var bodyBytes []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = b
	}

	query := params.Encode()
	fullURL := c.baseURL + path
	if query != "" {
		fullURL += "?" + query
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.auth.Key != "" {
		for k, v := range c.auth.GateHeaders(method, c.pathPrefix+path, query, string(bodyBytes)) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransientNetworkError{Venue: venue, Op: method + " " + path, Err: err}
	}

	if err := c.checkStatus(method+" "+path, resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// transportError classifies a failed round trip. A cancelled caller context
// is not worth retrying.
func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &domain.TransientNetworkError{Venue: venue, Op: op, Err: err}
}

// checkStatus maps non-2xx HTTP status codes to domain errors.
func (c *Client) checkStatus(op string, statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr GateErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &domain.TransientNetworkError{
			Venue: venue, Op: op,
			Err: fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Label),
		}
	case marginLabels[apiErr.Label]:
		return &domain.MarginError{Venue: venue, Code: apiErr.Label, Message: apiErr.Message}
	case statusCode == http.StatusNotFound || notFoundLabels[apiErr.Label]:
		return fmt.Errorf("%s (%s): %w", apiErr.Message, apiErr.Label, domain.ErrNotFound)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%s (%s): %w", apiErr.Message, apiErr.Label, domain.ErrUnauthorized)
	default:
		return &domain.APIError{Venue: venue, Status: statusCode, Code: apiErr.Label, Message: apiErr.Message}
	}
}
