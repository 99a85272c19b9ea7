package httpinterface

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const keyPath = "/{collection}/{unit}"

// NewTradeRouter returns the routes for sellers, buyers and bidders. Reads
// are public, any other request must carry the bearer token of the caller.
func (h *handler) NewTradeRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(logger)
	r.NotFoundHandler = notFoundHandler()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(h.authenticate)

	v1.HandleFunc("/sales", h.listSales).Methods(http.MethodGet)
	v1.HandleFunc("/sales"+keyPath, h.getSale).Methods(http.MethodGet)
	v1.HandleFunc("/sales"+keyPath, h.putOnSale).Methods(http.MethodPost)
	v1.HandleFunc("/sales"+keyPath+"/cancel", h.cancelSale).Methods(http.MethodPost)
	v1.HandleFunc("/sales"+keyPath+"/buy", h.buy).Methods(http.MethodPost)

	v1.HandleFunc("/auctions", h.listAuctions).Methods(http.MethodGet)
	v1.HandleFunc("/auctions"+keyPath, h.getAuction).Methods(http.MethodGet)
	v1.HandleFunc("/auctions"+keyPath, h.placeAuction).Methods(http.MethodPost)
	v1.HandleFunc("/auctions"+keyPath+"/cancel", h.cancelAuction).Methods(http.MethodPost)
	v1.HandleFunc("/auctions"+keyPath+"/bid", h.bid).Methods(http.MethodPost)
	v1.HandleFunc("/auctions"+keyPath+"/finalize", h.finalizeAuction).Methods(http.MethodPost)

	v1.HandleFunc("/escrows", h.listEscrows).Methods(http.MethodGet)
	v1.HandleFunc("/escrows"+keyPath, h.getEscrow).Methods(http.MethodGet)
	v1.HandleFunc("/escrows"+keyPath+"/revoke", h.revokeEscrow).Methods(http.MethodPost)
	v1.HandleFunc("/escrows"+keyPath+"/close", h.closeEscrow).Methods(http.MethodPost)

	v1.HandleFunc("/settlements", h.listSettlements).Methods(http.MethodGet)
	v1.HandleFunc("/settlements"+keyPath, h.getSettlement).Methods(http.MethodGet)

	v1.HandleFunc("/royalties"+keyPath, h.getRoyalty).Methods(http.MethodGet)
	v1.HandleFunc("/royalties"+keyPath+"/rule", h.getRoyaltyRule).Methods(http.MethodGet)
	v1.HandleFunc("/royalties"+keyPath+"/rule", h.setRoyalty).Methods(http.MethodPost)

	v1.HandleFunc("/units"+keyPath, h.getOwner).Methods(http.MethodGet)
	v1.HandleFunc("/units"+keyPath+"/approve", h.approveUnit).Methods(http.MethodPost)
	v1.HandleFunc("/units/{collection}/operators", h.approveForAll).Methods(http.MethodPost)

	v1.HandleFunc("/balances/{owner}", h.getBalance).Methods(http.MethodGet)
	v1.HandleFunc("/allowances", h.approveFunds).Methods(http.MethodPost)
	v1.HandleFunc("/transfers"+keyPath, h.pushPayment).Methods(http.MethodPost)

	v1.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)

	return r
}

// NewOperatorRouter returns the routes restricted to the engine operators,
// authenticated by bearer token.
// If gatherer is not nil, metrics are served at /metrics.
func (h *handler) NewOperatorRouter(gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(logger)
	r.NotFoundHandler = notFoundHandler()

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(h.authorizeOperator)

	v1.HandleFunc("/settlements"+keyPath+"/close", h.closeSettlement).Methods(http.MethodPost)

	v1.HandleFunc("/operators", h.listOperators).Methods(http.MethodGet)
	v1.HandleFunc("/operators", h.addOperator).Methods(http.MethodPost)
	v1.HandleFunc("/operators/remove", h.removeOperator).Methods(http.MethodPost)

	v1.HandleFunc("/royalty/resolvers", h.listResolvers).Methods(http.MethodGet)
	v1.HandleFunc("/royalty/overrides", h.listOverrides).Methods(http.MethodGet)
	v1.HandleFunc("/royalty/overrides/{collection}", h.overrideResolver).Methods(http.MethodPost)

	v1.HandleFunc("/webhooks", h.listWebhooks).Methods(http.MethodGet)
	v1.HandleFunc("/webhooks", h.addWebhook).Methods(http.MethodPost)
	v1.HandleFunc("/webhooks/{id}", h.removeWebhook).Methods(http.MethodDelete)

	v1.HandleFunc("/units"+keyPath+"/mint", h.mintUnit).Methods(http.MethodPost)
	v1.HandleFunc("/funds", h.mintFunds).Methods(http.MethodPost)

	v1.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)

	return r
}
