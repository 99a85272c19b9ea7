package httpinterface

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/auction"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/escrow"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/exchange"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/ingress"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/royalty"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/settlement"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

// AssetRegistry is the part of the registry exposed to mint and approve
// units.
type AssetRegistry interface {
	Mint(ctx context.Context, key domain.AssetKey, creator domain.Address) error
	OwnerOf(ctx context.Context, key domain.AssetKey) (domain.Address, error)
	Approve(
		ctx context.Context, caller domain.Address, key domain.AssetKey,
		spender domain.Address,
	) error
	SetApprovalForAll(
		ctx context.Context, collection, owner, operator domain.Address,
		approved bool,
	) error
}

// Ledger is the part of the payment ledger exposed to fund accounts and push
// payments to the engine.
type Ledger interface {
	Mint(
		ctx context.Context, asset domain.PaymentAsset, to domain.Address,
		amount uint64,
	) error
	Approve(
		ctx context.Context, token, owner, spender domain.Address, amount uint64,
	) error
	BalanceOf(
		ctx context.Context, asset domain.PaymentAsset, owner domain.Address,
	) (uint64, error)
	TransferAndCall(
		ctx context.Context, asset domain.PaymentAsset, from, to domain.Address,
		amount uint64, payload []byte,
	) error
}

type failureObserver interface {
	ObserveFailure(err error)
}

type handler struct {
	engine     domain.Address
	exchange   *exchange.Service
	auction    *auction.Service
	escrow     *escrow.Service
	settlement *settlement.Service
	royalties  *royalty.Registry
	router     *royalty.Router
	events     *pubsub.Service
	registry   AssetRegistry
	ledger     Ledger
	operators  OperatorSet
	auth       authenticator
	failures   failureObserver
}

func (h *handler) listSales(w http.ResponseWriter, r *http.Request) {
	listings, err := h.exchange.ListSales(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]listingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, newListingView(l))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getSale(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	l, err := h.exchange.GetSale(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListingView(l))
}

func (h *handler) putOnSale(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req offerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	l, err := h.exchange.PutOnSale(
		r.Context(), callerOf(r), key, asset, req.Price,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newListingView(l))
}

func (h *handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.exchange.CancelSale(
		r.Context(), callerOf(r), key,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) buy(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req payRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	e, err := h.exchange.Buy(
		r.Context(), callerOf(r), key, asset, req.Amount,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEscrowView(e))
}

func (h *handler) listAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.auction.ListAuctions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]auctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, newAuctionView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getAuction(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	a, err := h.auction.GetAuction(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(a))
}

func (h *handler) placeAuction(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req offerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	a, err := h.auction.PlaceAuction(
		r.Context(), callerOf(r), key, asset, req.Price,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuctionView(a))
}

func (h *handler) cancelAuction(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.auction.CancelAuction(
		r.Context(), callerOf(r), key,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) bid(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req payRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	a, err := h.auction.Bid(
		r.Context(), callerOf(r), key, asset, req.Amount,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionView(a))
}

func (h *handler) finalizeAuction(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	s, err := h.auction.FinalizeAuction(
		r.Context(), callerOf(r), key,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSettlementView(s))
}

func (h *handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	escrows, err := h.escrow.ListEscrows(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]escrowView, 0, len(escrows))
	for _, e := range escrows {
		views = append(views, newEscrowView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	e, err := h.escrow.GetEscrow(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEscrowView(e))
}

func (h *handler) revokeEscrow(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.escrow.RevokeEscrow(
		r.Context(), callerOf(r), key,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) closeEscrow(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.escrow.CloseEscrow(
		r.Context(), callerOf(r), key,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) listSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.settlement.ListSettlements(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]settlementView, 0, len(settlements))
	for _, s := range settlements {
		views = append(views, newSettlementView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getSettlement(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	s, err := h.settlement.GetSettlement(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementView(s))
}

func (h *handler) closeSettlement(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.settlement.CloseSettlement(
		r.Context(), callerOf(r), key,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) getRoyalty(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	price, err := strconv.ParseUint(r.URL.Query().Get("price"), 10, 64)
	if err != nil {
		h.writeError(w, domain.ErrInvalidAmount)
		return
	}
	split, err := h.router.GetRoyalty(r.Context(), key, price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFeeSplitView(split))
}

func (h *handler) getRoyaltyRule(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rule, err := h.royalties.GetRule(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rule == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			"ROYALTY_NOT_FOUND", "royalty not set",
		})
		return
	}
	writeJSON(w, http.StatusOK, newRoyaltyRuleView(rule))
}

func (h *handler) setRoyalty(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req royaltyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	rule, err := h.royalties.SetRoyalty(
		r.Context(), callerOf(r), key,
		toAddresses(req.Receivers), req.RatiosInBp,
	)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRoyaltyRuleView(rule))
}

func (h *handler) listOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.router.ListOverrides(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]overrideView, 0, len(overrides))
	for _, o := range overrides {
		views = append(views, overrideView{
			Collection: o.Collection.String(),
			Resolver:   o.Resolver.String(),
			Operator:   o.Operator.String(),
			UpdatedAt:  o.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) listResolvers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fromAddresses(h.router.Resolvers()))
}

func (h *handler) overrideResolver(w http.ResponseWriter, r *http.Request) {
	collection := domain.Address(mux.Vars(r)["collection"])
	var req overrideRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.router.OverrideAddress(
		r.Context(), callerOf(r), collection,
		domain.Address(req.Resolver),
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) listOperators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fromAddresses(h.escrow.ListOperators()))
}

func (h *handler) addOperator(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.escrow.AddOperator(
		r.Context(), callerOf(r), domain.Address(req.Address),
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) removeOperator(w http.ResponseWriter, r *http.Request) {
	var req operatorRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.escrow.RemoveOperator(
		r.Context(), callerOf(r), domain.Address(req.Address),
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	var key *domain.AssetKey
	q := r.URL.Query()
	if collection := q.Get("collection"); len(collection) > 0 {
		k := domain.NewAssetKey(domain.Address(collection), q.Get("unit"))
		if err := k.Validate(); err != nil {
			h.writeError(w, err)
			return
		}
		key = &k
	}

	events, err := h.events.ListEvents(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.events.ListWebhooks(r.Context(), r.URL.Query().Get("event"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]webhookView, 0, len(hooks))
	for _, hook := range hooks {
		views = append(views, webhookView{
			hook.Id, hook.Event, hook.Endpoint, hook.IsSecured,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) addWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	id, err := h.events.AddWebhook(r.Context(), pubsub.Webhook{
		Event:    req.Event,
		Endpoint: req.Endpoint,
		Secret:   req.Secret,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.events.RemoveWebhook(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) mintUnit(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req mintUnitRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.registry.Mint(
		r.Context(), key, domain.Address(req.Creator),
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"collection": key.Collection.String(), "unit": key.Unit,
		"owner": req.Creator,
	})
}

func (h *handler) getOwner(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	owner, err := h.registry.OwnerOf(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"collection": key.Collection.String(), "unit": key.Unit,
		"owner": owner.String(),
	})
}

func (h *handler) approveUnit(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req approveUnitRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.registry.Approve(
		r.Context(), callerOf(r), key, domain.Address(req.Spender),
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) approveForAll(w http.ResponseWriter, r *http.Request) {
	collection := domain.Address(mux.Vars(r)["collection"])
	var req approveForAllRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.registry.SetApprovalForAll(
		r.Context(), collection, callerOf(r), domain.Address(req.Operator),
		req.Approved,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) mintFunds(w http.ResponseWriter, r *http.Request) {
	var req mintFundsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ledger.Mint(
		r.Context(), asset, domain.Address(req.To), req.Amount,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) approveFunds(w http.ResponseWriter, r *http.Request) {
	var req approveFundsRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ledger.Approve(
		r.Context(), domain.Address(req.Token), callerOf(r),
		domain.Address(req.Spender), req.Amount,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	owner := domain.Address(mux.Vars(r)["owner"])
	assetStr := r.URL.Query().Get("paymentAsset")
	if len(assetStr) <= 0 {
		assetStr = domain.NativeAsset().String()
	}
	asset, err := domain.ParsePaymentAsset(assetStr)
	if err != nil {
		h.writeError(w, err)
		return
	}
	balance, err := h.ledger.BalanceOf(r.Context(), asset, owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"owner": owner.String(), "paymentAsset": asset.String(),
		"balance": balance,
	})
}

// pushPayment transfers funds to the engine along with the payload to buy or
// bid for the addressed unit.
func (h *handler) pushPayment(w http.ResponseWriter, r *http.Request) {
	key, err := assetKey(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	asset, err := domain.ParsePaymentAsset(req.PaymentAsset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	op := ingress.OpBuy
	if req.Op == ingress.OpBid.String() {
		op = ingress.OpBid
	}

	payload := ingress.EncodePayload(ingress.Command{Op: op, Key: key})
	if err := h.ledger.TransferAndCall(
		r.Context(), asset, callerOf(r), h.engine, req.Amount, payload,
	); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
