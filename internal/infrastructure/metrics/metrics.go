// Package metrics exposes prometheus counters about committed engine events
// and rejected requests.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

const namespace = "nftex"

// Collector implements ports.EventPublisher, so it can be registered as an
// observer of the event publisher.
type Collector struct {
	events   *prometheus.CounterVec
	volume   *prometheus.CounterVec
	failures *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewCollector registers the counters with the given registerer. A nil
// registerer means a fresh private registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of committed events by type.",
		}, []string{"type"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_volume_total",
			Help:      "Sum of matched prices by event type and payment asset.",
		}, []string{"type", "payment_asset"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Number of rejected requests by error kind and code.",
		}, []string{"kind", "code"}),
		gatherer: gatherer,
	}

	for _, col := range []prometheus.Collector{c.events, c.volume, c.failures} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Gatherer returns what has to be served to scrape the collector counters.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

func (c *Collector) PublishEvents(_ context.Context, events ...domain.Event) {
	for _, e := range events {
		c.events.WithLabelValues(string(e.Type)).Inc()

		switch e.Type {
		case domain.EventSaleMatched, domain.EventAuctionFinalized:
			price, err := e.Amount("price")
			if err != nil {
				continue
			}
			c.volume.
				WithLabelValues(string(e.Type), e.Attributes["paymentAsset"]).
				Add(float64(price))
		}
	}
}

// ObserveFailure counts a rejected request.
func (c *Collector) ObserveFailure(err error) {
	if err == nil {
		return
	}
	code := domain.CodeOf(err)
	if len(code) <= 0 {
		code = "INTERNAL"
	}
	c.failures.WithLabelValues(domain.KindOf(err).String(), code).Inc()
}
