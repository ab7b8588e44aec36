package okx

import (
	"encoding/json"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// --------------------------------------------------------------------------
// OKX v5 API DTOs
// --------------------------------------------------------------------------

// envelope wraps every v5 response.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// ackRow is one per-order acknowledgement returned by trade endpoints.
type ackRow struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

// placeOrderRequest is the body of POST /api/v5/trade/order.
type placeOrderRequest struct {
	InstID     string         `json:"instId"`
	TdMode     string         `json:"tdMode"`
	Side       string         `json:"side"`
	PosSide    string         `json:"posSide,omitempty"`
	OrdType    string         `json:"ordType"`
	Sz         string         `json:"sz"`
	Px         string         `json:"px,omitempty"`
	ReduceOnly bool           `json:"reduceOnly,omitempty"`
	ClOrdID    string         `json:"clOrdId,omitempty"`
	AttachAlgo []attachedAlgo `json:"attachAlgoOrds,omitempty"`
}

type attachedAlgo struct {
	TpTriggerPx string `json:"tpTriggerPx,omitempty"`
	TpOrdPx     string `json:"tpOrdPx,omitempty"`
	SlTriggerPx string `json:"slTriggerPx,omitempty"`
	SlOrdPx     string `json:"slOrdPx,omitempty"`
}

type cancelOrderRequest struct {
	InstID string `json:"instId"`
	OrdID  string `json:"ordId"`
}

type setLeverageRequest struct {
	InstID  string `json:"instId"`
	Lever   string `json:"lever"`
	MgnMode string `json:"mgnMode"`
}

// marginCodes are the sCode values that reject an order for lack of margin.
var marginCodes = map[string]bool{
	"51008": true, // insufficient balance
	"51127": true, // available balance is 0
	"51131": true, // insufficient balance
}

// notFoundCodes mark lookups of unknown orders or instruments.
var notFoundCodes = map[string]bool{
	"51001": true, // instrument does not exist
	"51603": true, // order does not exist
}

// authCodes are the 501xx authentication failures.
var authCodes = map[string]bool{
	"50111": true,
	"50113": true,
	"50114": true,
}

const (
	// BaseURL is the REST root for both live and demo trading; demo is
	// selected by header.
	BaseURL = "https://www.okx.com"

	instTypeSwap = "SWAP"
	tdModeCross  = "cross"

	defaultSettle = "USDT"
)

var venue = domain.VenueOKX
