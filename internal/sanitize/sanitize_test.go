package sanitize

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

func newTestSanitizer(dev, ceiling string) *Sanitizer {
	return New(Config{
		MaxDeviation:   decimal.RequireFromString(dev),
		APISizeCeiling: decimal.RequireFromString(ceiling),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSizeClamp(t *testing.T) {
	s := newTestSanitizer("0", "0")
	contract := &domain.Contract{MinSize: "1", MaxSize: "1000"}

	tests := []struct {
		in, want string
	}{
		{"0.1", "1"},
		{"5000", "1000"},
		{"-5000", "-1000"},
		{"-0.1", "-1"},
		{"250", "250"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out := s.Sanitize(domain.OrderRequest{Contract: "BTC_USDT", Size: tt.in}, contract, "")
			assert.Equal(t, tt.want, out.Size)
		})
	}
}

func TestSizeCeiling(t *testing.T) {
	s := newTestSanitizer("0", "500")

	out := s.Sanitize(domain.OrderRequest{Size: "800"}, &domain.Contract{MinSize: "1", MaxSize: "1000"}, "")
	assert.Equal(t, "500", out.Size)

	// The ceiling also applies when the contract reports no maximum.
	out = s.Sanitize(domain.OrderRequest{Size: "-800"}, &domain.Contract{MinSize: "1"}, "")
	assert.Equal(t, "-500", out.Size)

	// A contract maximum below the ceiling wins.
	out = s.Sanitize(domain.OrderRequest{Size: "800"}, &domain.Contract{MaxSize: "300"}, "")
	assert.Equal(t, "300", out.Size)
}

func TestPriceBand(t *testing.T) {
	s := newTestSanitizer("0.02", "0")
	contract := &domain.Contract{TickSize: "0.1"}

	tests := []struct {
		name, size, price, want string
	}{
		{"buy above band", "1", "110", "102"},
		{"sell below band", "-1", "90", "98"},
		{"passive buy below band", "1", "90", "90"},
		{"passive sell above band", "-1", "110", "110"},
		{"inside band", "1", "101", "101"},
		{"on the edge", "-1", "98", "98"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Sanitize(domain.OrderRequest{Size: tt.size, Price: tt.price}, contract, "100")
			assert.Equal(t, tt.want, out.Price)
		})
	}
}

func TestRounding(t *testing.T) {
	s := newTestSanitizer("0", "0")
	contract := &domain.Contract{TickSize: "0.5", StepSize: "0.01"}

	out := s.Sanitize(domain.OrderRequest{Size: "1.234", Price: "100.26"}, contract, "")
	assert.Equal(t, "1.23", out.Size)
	assert.Equal(t, "100.5", out.Price)

	out = s.Sanitize(domain.OrderRequest{Size: "1.235", Price: "100.2"}, contract, "")
	assert.Equal(t, "1.24", out.Size)
	assert.Equal(t, "100", out.Price)

	out = s.Sanitize(domain.OrderRequest{Size: "-1.235", Price: "100.25"}, contract, "")
	assert.Equal(t, "-1.24", out.Size)
	assert.Equal(t, "100.5", out.Price)
}

func TestStepsSkipWhenDataMissing(t *testing.T) {
	s := newTestSanitizer("0.02", "0")

	// No contract: size untouched, band still applied from the mark.
	out := s.Sanitize(domain.OrderRequest{Size: "0.001", Price: "200"}, nil, "100")
	assert.Equal(t, "0.001", out.Size)
	assert.Equal(t, "102", out.Price)

	// No mark: price passes through, contract rounding still applies.
	out = s.Sanitize(domain.OrderRequest{Size: "3", Price: "200.04"}, &domain.Contract{TickSize: "0.1"}, "")
	assert.Equal(t, "200", out.Price)

	// Unparseable mark behaves like a missing one.
	out = s.Sanitize(domain.OrderRequest{Size: "3", Price: "200"}, nil, "n/a")
	assert.Equal(t, "200", out.Price)

	// Unparseable size is left for the venue to reject.
	out = s.Sanitize(domain.OrderRequest{Size: "abc"}, &domain.Contract{MinSize: "1"}, "")
	assert.Equal(t, "abc", out.Size)
}

func TestMarketOrderAndPassthrough(t *testing.T) {
	s := newTestSanitizer("0.02", "0")
	req := domain.OrderRequest{
		Contract:     "ETH_USDT",
		Size:         "-3",
		ReduceOnly:   true,
		PositionSide: domain.PositionSideShort,
		Text:         "close",
	}

	out := s.Sanitize(req, &domain.Contract{MinSize: "1", MaxSize: "10", TickSize: "0.01", StepSize: "1"}, "100")
	require.True(t, out.IsMarket())
	assert.Equal(t, "", out.Price)
	assert.Equal(t, "-3", out.Size)
	assert.Equal(t, domain.OrderSideSell, out.Side)
	assert.True(t, out.ReduceOnly)
	assert.Equal(t, domain.PositionSideShort, out.PositionSide)
	assert.Equal(t, "close", out.Text)
	assert.Empty(t, out.Adjustments)
}

func TestAdjustmentsRecorded(t *testing.T) {
	s := newTestSanitizer("0.02", "0")
	out := s.Sanitize(domain.OrderRequest{Size: "5000", Price: "110"}, &domain.Contract{MaxSize: "1000"}, "100")
	assert.Len(t, out.Adjustments, 2)
	assert.Equal(t, "buy", string(out.Side))
}
