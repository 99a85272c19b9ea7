package metrics_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/metrics"
)

func TestCollector(t *testing.T) {
	c, err := metrics.NewCollector(nil)
	require.NoError(t, err)

	key := domain.NewAssetKey("collection", "1")
	listing := &domain.Listing{
		Key:          key,
		Seller:       "seller",
		PaymentAsset: domain.NativeAsset(),
		Price:        1000,
	}
	c.PublishEvents(
		context.Background(),
		domain.NewSalePlacedEvent(listing, 1),
		domain.NewSaleMatchedEvent(listing, "buyer", 2),
	)
	c.ObserveFailure(fmt.Errorf("buy: %w", domain.ErrPriceMismatch))
	c.ObserveFailure(nil)

	expected := `
# HELP nftex_events_total Number of committed events by type.
# TYPE nftex_events_total counter
nftex_events_total{type="SaleMatched"} 1
nftex_events_total{type="SalePlaced"} 1
`
	err = testutil.GatherAndCompare(
		c.Gatherer(), strings.NewReader(expected), "nftex_events_total",
	)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(c.Gatherer(), "nftex_request_failures_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(c.Gatherer(), "nftex_matched_volume_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
