package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var (
	errMalformedRequest = domain.NewError(
		domain.KindValue, "MALFORMED_REQUEST", "malformed request body",
	)
	errInvalidRequest = domain.NewError(
		domain.KindValue, "INVALID_REQUEST", "invalid request",
	)
)

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// statusOf maps the kind of err to the response status code.
func statusOf(err error) int {
	if errors.Is(err, errUnauthenticated) {
		return http.StatusUnauthorized
	}
	switch domain.KindOf(err) {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindState:
		if strings.HasSuffix(domain.CodeOf(err), "NOT_FOUND") {
			return http.StatusNotFound
		}
		return http.StatusConflict
	case domain.KindTiming:
		return http.StatusPreconditionFailed
	case domain.KindValue:
		return http.StatusBadRequest
	default:
		if errors.Is(err, pubsub.ErrWebhooksDisabled) {
			return http.StatusNotImplemented
		}
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	if h.failures != nil {
		h.failures.ObserveFailure(err)
	}

	status := statusOf(err)
	code := domain.CodeOf(err)
	if len(code) <= 0 {
		code = "INTERNAL"
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{code, err.Error()})
}

type payoutView struct {
	Collection   string   `json:"collection"`
	Unit         string   `json:"unit"`
	Seller       string   `json:"seller"`
	Buyer        string   `json:"buyer"`
	PaymentAsset string   `json:"paymentAsset"`
	Price        uint64   `json:"price"`
	FeeReceivers []string `json:"feeReceivers"`
	FeeAmounts   []uint64 `json:"feeAmounts"`
	SellerAmount uint64   `json:"sellerAmount"`
}

func newPayoutView(p domain.Payout) payoutView {
	return payoutView{
		Collection:   p.Key.Collection.String(),
		Unit:         p.Key.Unit,
		Seller:       p.Seller.String(),
		Buyer:        p.Buyer.String(),
		PaymentAsset: p.PaymentAsset.String(),
		Price:        p.Price,
		FeeReceivers: fromAddresses(p.FeeReceivers),
		FeeAmounts:   append([]uint64{}, p.FeeAmounts...),
		SellerAmount: p.SellerAmount(),
	}
}

type listingView struct {
	Collection   string `json:"collection"`
	Unit         string `json:"unit"`
	Seller       string `json:"seller"`
	PaymentAsset string `json:"paymentAsset"`
	Price        uint64 `json:"price"`
	PlacedAt     int64  `json:"placedAt"`
}

func newListingView(l *domain.Listing) listingView {
	return listingView{
		Collection:   l.Key.Collection.String(),
		Unit:         l.Key.Unit,
		Seller:       l.Seller.String(),
		PaymentAsset: l.PaymentAsset.String(),
		Price:        l.Price,
		PlacedAt:     l.PlacedAt,
	}
}

type auctionView struct {
	Collection   string `json:"collection"`
	Unit         string `json:"unit"`
	Seller       string `json:"seller"`
	PaymentAsset string `json:"paymentAsset"`
	InitialPrice uint64 `json:"initialPrice"`
	Bidder       string `json:"bidder,omitempty"`
	BidPrice     uint64 `json:"bidPrice"`
	BidAt        int64  `json:"bidAt,omitempty"`
	PlacedAt     int64  `json:"placedAt"`
	Expiration   int64  `json:"expiration"`
}

func newAuctionView(a *domain.Auction) auctionView {
	return auctionView{
		Collection:   a.Key.Collection.String(),
		Unit:         a.Key.Unit,
		Seller:       a.Seller.String(),
		PaymentAsset: a.PaymentAsset.String(),
		InitialPrice: a.InitialPrice,
		Bidder:       a.Bidder.String(),
		BidPrice:     a.BidPrice,
		BidAt:        a.BidAt,
		PlacedAt:     a.PlacedAt,
		Expiration:   a.Expiration,
	}
}

type escrowView struct {
	payoutView
	Expiration int64 `json:"expiration"`
	OpenedAt   int64 `json:"openedAt"`
}

func newEscrowView(e *domain.Escrow) escrowView {
	return escrowView{newPayoutView(e.Payout), e.Expiration, e.OpenedAt}
}

type settlementView struct {
	payoutView
	AddedAt int64 `json:"addedAt"`
}

func newSettlementView(s *domain.Settlement) settlementView {
	return settlementView{newPayoutView(s.Payout), s.AddedAt}
}

type royaltyRuleView struct {
	Collection   string   `json:"collection"`
	Unit         string   `json:"unit"`
	RightsHolder string   `json:"rightsHolder"`
	Receivers    []string `json:"receivers"`
	RatiosInBp   []uint64 `json:"ratiosInBp"`
	UpdatedAt    int64    `json:"updatedAt"`
}

func newRoyaltyRuleView(r *domain.RoyaltyRule) royaltyRuleView {
	return royaltyRuleView{
		Collection:   r.Key.Collection.String(),
		Unit:         r.Key.Unit,
		RightsHolder: r.RightsHolder.String(),
		Receivers:    fromAddresses(r.Receivers),
		RatiosInBp:   append([]uint64{}, r.RatiosInBp...),
		UpdatedAt:    r.UpdatedAt,
	}
}

type feeSplitView struct {
	Receivers []string `json:"receivers"`
	Amounts   []uint64 `json:"amounts"`
	Remainder uint64   `json:"remainder"`
}

func newFeeSplitView(f domain.FeeSplit) feeSplitView {
	return feeSplitView{
		Receivers: fromAddresses(f.Receivers),
		Amounts:   append([]uint64{}, f.Amounts...),
		Remainder: f.Remainder,
	}
}

type overrideView struct {
	Collection string `json:"collection"`
	Resolver   string `json:"resolver"`
	Operator   string `json:"operator"`
	UpdatedAt  int64  `json:"updatedAt"`
}

type eventView struct {
	Id         string            `json:"id"`
	Seq        uint64            `json:"seq"`
	Type       string            `json:"type"`
	Collection string            `json:"collection"`
	Unit       string            `json:"unit,omitempty"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

func newEventView(e domain.Event) eventView {
	return eventView{
		Id:         e.ID,
		Seq:        e.Seq,
		Type:       string(e.Type),
		Collection: e.Key.Collection.String(),
		Unit:       e.Key.Unit,
		Timestamp:  e.Timestamp,
		Attributes: e.Attributes,
	}
}

type webhookView struct {
	Id        string `json:"id"`
	Event     string `json:"event"`
	Endpoint  string `json:"endpoint"`
	IsSecured bool   `json:"isSecured"`
}

func fromAddresses(addrs []domain.Address) []string {
	list := make([]string, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, a.String())
	}
	return list
}
