package exchange

import (
	"context"

	"github.com/alanyoungcy/perpgate/internal/convert"
)

// Gateway is the venue SDK boundary. Symbols are in the venue's native
// notation and every payload is left in the venue's own field names; the
// Client converts on both sides.
//
// Implementations report failures with the domain error types:
// TransientNetworkError for anything worth retrying, MarginError for
// margin rejections, APIError for other business errors and ErrNotFound
// (possibly wrapped) for missing orders or markets.
type Gateway interface {
	FetchBalance(ctx context.Context) (convert.Payload, error)
	FetchPositions(ctx context.Context) ([]convert.Payload, error)
	FetchTicker(ctx context.Context, symbol string) (convert.Payload, error)
	FetchOHLCV(ctx context.Context, symbol, interval string, limit int) ([]convert.Payload, error)

	CreateOrder(ctx context.Context, order convert.Payload) (convert.Payload, error)
	FetchOrder(ctx context.Context, symbol, id string) (convert.Payload, error)
	CancelOrder(ctx context.Context, symbol, id string) (convert.Payload, error)
	FetchOpenOrders(ctx context.Context, symbol string) ([]convert.Payload, error)
	FetchClosedOrders(ctx context.Context, symbol string, limit int) ([]convert.Payload, error)

	FetchMarkets(ctx context.Context) ([]convert.Payload, error)
	FetchMarket(ctx context.Context, symbol string) (convert.Payload, error)
	SetLeverage(ctx context.Context, symbol, leverage string) error

	FetchFundingRate(ctx context.Context, symbol string) (convert.Payload, error)
	FetchFundingRateHistory(ctx context.Context, symbol string, limit int) ([]convert.Payload, error)
	FetchOrderBook(ctx context.Context, symbol string, depth int) (convert.Payload, error)
	FetchMyTrades(ctx context.Context, symbol string, limit int) ([]convert.Payload, error)
	FetchBills(ctx context.Context, symbol string, limit int) ([]convert.Payload, error)
}
