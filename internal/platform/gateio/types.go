package gateio

import "github.com/alanyoungcy/perpgate/internal/domain"

// --------------------------------------------------------------------------
// Gate.io API DTOs
// --------------------------------------------------------------------------

// GateErrorResponse is the body Gate.io returns with any non-2xx status.
type GateErrorResponse struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// marginLabels are the error labels that mean the order failed for lack of
// margin or a risk limit.
var marginLabels = map[string]bool{
	"INSUFFICIENT_AVAILABLE":    true,
	"MARGIN_BALANCE_NOT_ENOUGH": true,
	"RISK_LIMIT_EXCEEDED":       true,
}

// notFoundLabels mark lookups of orders, contracts or positions that do not
// exist.
var notFoundLabels = map[string]bool{
	"ORDER_NOT_FOUND":    true,
	"CONTRACT_NOT_FOUND": true,
	"POSITION_NOT_FOUND": true,
}

const (
	// LiveBaseURL is the production API root.
	LiveBaseURL = "https://api.gateio.ws/api/v4"
	// TestnetBaseURL is the futures testnet API root.
	TestnetBaseURL = "https://fx-api-testnet.gateio.ws/api/v4"
)

var venue = domain.VenueGateIO
