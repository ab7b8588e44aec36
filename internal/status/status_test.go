package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

func TestEveryRawStatusMapsToOneCanonical(t *testing.T) {
	canonical := map[domain.OrderStatus]bool{}
	for _, s := range domain.OrderStatuses() {
		canonical[s] = true
	}

	for _, v := range domain.Venues() {
		m, err := ForVenue(v)
		require.NoError(t, err)
		t.Run(string(v), func(t *testing.T) {
			require.NotEmpty(t, m.Raw())
			for _, raw := range m.Raw() {
				assert.True(t, canonical[m.Map(raw)], "%s maps outside the canonical set", raw)
			}
		})
	}
}

func TestUnknownDefaultsToOpen(t *testing.T) {
	for _, m := range []Mapper{GateIO, OKX} {
		assert.Equal(t, domain.OrderStatusOpen, m.Map("something_new"))
		assert.Equal(t, domain.OrderStatusOpen, m.Map(""))
		assert.False(t, m.Known("something_new"))
	}
}

func TestVenueVocabulary(t *testing.T) {
	tests := []struct {
		m    Mapper
		raw  string
		want domain.OrderStatus
	}{
		{GateIO, "open", domain.OrderStatusOpen},
		{GateIO, "filled", domain.OrderStatusFilled},
		{GateIO, "ioc", domain.OrderStatusCancelled},
		{GateIO, "Cancelled", domain.OrderStatusCancelled},
		{OKX, "live", domain.OrderStatusOpen},
		{OKX, "partially_filled", domain.OrderStatusOpen},
		{OKX, "canceled", domain.OrderStatusCancelled},
		{OKX, "closed", domain.OrderStatusFilled},
		{OKX, "expired", domain.OrderStatusExpired},
		{OKX, "rejected", domain.OrderStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Map(tt.raw))
		})
	}
}

func TestForVenueUnsupported(t *testing.T) {
	_, err := ForVenue("binance")
	var ue *domain.UnsupportedExchangeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, domain.Venue("binance"), ue.Venue)
}
