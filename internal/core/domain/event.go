package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EventType is the kind of an engine event.
type EventType string

const (
	EventSalePlaced         EventType = "SalePlaced"
	EventSaleCancelled      EventType = "SaleCancelled"
	EventSaleMatched        EventType = "SaleMatched"
	EventEscrowOpened       EventType = "EscrowOpened"
	EventEscrowRevoked      EventType = "EscrowRevoked"
	EventEscrowClosed       EventType = "EscrowClosed"
	EventAuctionPlaced      EventType = "AuctionPlaced"
	EventAuctionCancelled   EventType = "AuctionCancelled"
	EventAuctionBid         EventType = "AuctionBid"
	EventAuctionBidRefunded EventType = "AuctionBidRefunded"
	EventAuctionFinalized   EventType = "AuctionFinalized"
	EventSettlementAdded    EventType = "SettlementAdded"
	EventSettlementClosed   EventType = "SettlementClosed"
	EventRoyaltySet         EventType = "RoyaltySet"
	EventRoyaltyOverride    EventType = "RoyaltyOverride"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{
	EventSalePlaced, EventSaleCancelled, EventSaleMatched,
	EventEscrowOpened, EventEscrowRevoked, EventEscrowClosed,
	EventAuctionPlaced, EventAuctionCancelled, EventAuctionBid,
	EventAuctionBidRefunded, EventAuctionFinalized,
	EventSettlementAdded, EventSettlementClosed,
	EventRoyaltySet, EventRoyaltyOverride,
}

// IsValidEventType returns whether t is one of EventTypes.
func IsValidEventType(t EventType) bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Event records a committed state transition for off-system indexers. Seq
// is assigned by the EventRepository.
type Event struct {
	ID         string
	Seq        uint64
	Type       EventType
	Key        AssetKey
	Timestamp  int64
	Attributes map[string]string
}

func newEvent(t EventType, key AssetKey, ts int64) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		Key:        key,
		Timestamp:  ts,
		Attributes: make(map[string]string),
	}
}

func (e Event) with(k, v string) Event {
	e.Attributes[k] = v
	return e
}

func (e Event) withAmount(k string, v uint64) Event {
	return e.with(k, strconv.FormatUint(v, 10))
}

func (e Event) withPayout(p Payout) Event {
	receivers := make([]string, 0, len(p.FeeReceivers))
	for _, r := range p.FeeReceivers {
		receivers = append(receivers, r.String())
	}
	fees := make([]string, 0, len(p.FeeAmounts))
	for _, f := range p.FeeAmounts {
		fees = append(fees, strconv.FormatUint(f, 10))
	}
	return e.
		with("seller", p.Seller.String()).
		with("buyer", p.Buyer.String()).
		with("paymentAsset", p.PaymentAsset.String()).
		withAmount("price", p.Price).
		with("feeReceivers", strings.Join(receivers, ",")).
		with("fees", strings.Join(fees, ","))
}

func NewSalePlacedEvent(l *Listing, ts int64) Event {
	return newEvent(EventSalePlaced, l.Key, ts).
		with("seller", l.Seller.String()).
		with("paymentAsset", l.PaymentAsset.String()).
		withAmount("price", l.Price)
}

func NewSaleCancelledEvent(l *Listing, operator Address, ts int64) Event {
	return newEvent(EventSaleCancelled, l.Key, ts).
		with("seller", l.Seller.String()).
		with("operator", operator.String())
}

func NewSaleMatchedEvent(l *Listing, buyer Address, ts int64) Event {
	return newEvent(EventSaleMatched, l.Key, ts).
		with("seller", l.Seller.String()).
		with("buyer", buyer.String()).
		with("paymentAsset", l.PaymentAsset.String()).
		withAmount("price", l.Price)
}

func NewEscrowOpenedEvent(e *Escrow, ts int64) Event {
	return newEvent(EventEscrowOpened, e.Key, ts).
		withPayout(e.Payout).
		with("expirationTimestamp", strconv.FormatInt(e.Expiration, 10))
}

func NewEscrowRevokedEvent(e *Escrow, operator Address, ts int64) Event {
	return newEvent(EventEscrowRevoked, e.Key, ts).
		withPayout(e.Payout).
		with("operator", operator.String())
}

func NewEscrowClosedEvent(e *Escrow, operator Address, ts int64) Event {
	return newEvent(EventEscrowClosed, e.Key, ts).
		withPayout(e.Payout).
		with("operator", operator.String())
}

func NewAuctionPlacedEvent(a *Auction, ts int64) Event {
	return newEvent(EventAuctionPlaced, a.Key, ts).
		with("seller", a.Seller.String()).
		with("paymentAsset", a.PaymentAsset.String()).
		withAmount("initialPrice", a.InitialPrice).
		with("expirationTimestamp", strconv.FormatInt(a.Expiration, 10))
}

func NewAuctionCancelledEvent(a *Auction, operator Address, ts int64) Event {
	return newEvent(EventAuctionCancelled, a.Key, ts).
		with("seller", a.Seller.String()).
		with("operator", operator.String()).
		with("bidder", a.Bidder.String()).
		withAmount("refunded", a.BidPrice)
}

func NewAuctionBidEvent(a *Auction, ts int64) Event {
	return newEvent(EventAuctionBid, a.Key, ts).
		with("bidder", a.Bidder.String()).
		withAmount("bidPrice", a.BidPrice)
}

func NewAuctionBidRefundedEvent(
	key AssetKey, bidder Address, amount uint64, ts int64,
) Event {
	return newEvent(EventAuctionBidRefunded, key, ts).
		with("bidder", bidder.String()).
		withAmount("amount", amount)
}

func NewAuctionFinalizedEvent(a *Auction, ts int64) Event {
	return newEvent(EventAuctionFinalized, a.Key, ts).
		with("seller", a.Seller.String()).
		with("buyer", a.Bidder.String()).
		with("paymentAsset", a.PaymentAsset.String()).
		withAmount("price", a.BidPrice)
}

func NewSettlementAddedEvent(s *Settlement, ts int64) Event {
	return newEvent(EventSettlementAdded, s.Key, ts).withPayout(s.Payout)
}

func NewSettlementClosedEvent(s *Settlement, operator Address, ts int64) Event {
	return newEvent(EventSettlementClosed, s.Key, ts).
		withPayout(s.Payout).
		with("operator", operator.String())
}

func NewRoyaltySetEvent(r *RoyaltyRule, ts int64) Event {
	receivers := make([]string, 0, len(r.Receivers))
	for _, rc := range r.Receivers {
		receivers = append(receivers, rc.String())
	}
	ratios := make([]string, 0, len(r.RatiosInBp))
	for _, ratio := range r.RatiosInBp {
		ratios = append(ratios, strconv.FormatUint(ratio, 10))
	}
	return newEvent(EventRoyaltySet, r.Key, ts).
		with("rightsHolder", r.RightsHolder.String()).
		with("receivers", strings.Join(receivers, ",")).
		with("ratiosInBp", strings.Join(ratios, ","))
}

func NewRoyaltyOverrideEvent(o *RoyaltyOverride, ts int64) Event {
	key := AssetKey{Collection: o.Collection}
	return newEvent(EventRoyaltyOverride, key, ts).
		with("operator", o.Operator.String()).
		with("nftContract", o.Collection.String()).
		with("royaltyContract", o.Resolver.String())
}

// Amount parses the numeric attribute k of the event.
func (e Event) Amount(k string) (uint64, error) {
	return strconv.ParseUint(e.Attributes[k], 10, 64)
}
