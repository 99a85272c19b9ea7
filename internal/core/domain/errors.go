package domain

import "errors"

// ErrorKind classifies why an operation has been rejected.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors not defined in this package.
	KindUnknown ErrorKind = iota
	// KindAuthorization means the caller is not owner/approver/seller/operator.
	KindAuthorization
	// KindState means the addressed record is missing or already exists.
	KindState
	// KindTiming means the record is not expired yet or already expired.
	KindTiming
	// KindValue means a wrong payment asset, amount or fee configuration.
	KindValue
)

var kindNames = map[ErrorKind]string{
	KindUnknown:       "unknown",
	KindAuthorization: "authorization",
	KindState:         "state",
	KindTiming:        "timing",
	KindValue:         "value",
}

func (k ErrorKind) String() string {
	return kindNames[k]
}

// Error is an engine error with a stable reason code.
type Error struct {
	Kind ErrorKind
	Code string
	msg  string
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{kind, code, msg}
}

// NewError returns a new classified error. Adapters use it so that their
// failures are reported with the same taxonomy as the engine ones.
func NewError(kind ErrorKind, code, msg string) *Error {
	return newError(kind, code, msg)
}

func (e *Error) Error() string {
	return e.msg
}

// KindOf returns the kind of the first *Error found in the chain of err.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the reason code of the first *Error found in the chain of
// err, or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	// Authorization errors.
	ErrNotOwner          = newError(KindAuthorization, "NOT_OWNER", "caller is not owner nor approved")
	ErrNotApproved       = newError(KindAuthorization, "NOT_APPROVED", "engine must be approved first")
	ErrNotAllowed        = newError(KindAuthorization, "NOT_ALLOWED", "caller is not seller nor operator")
	ErrNotOperator       = newError(KindAuthorization, "NOT_OPERATOR", "caller is not an operator")
	ErrNotCreatorOrOwner = newError(KindAuthorization, "NOT_CREATOR_OR_OWNER", "caller is not creator and current owner")
	ErrNotRouterOwner    = newError(KindAuthorization, "NOT_ROUTER_OWNER", "caller is not the royalty router owner")

	// State errors.
	ErrListingNotFound    = newError(KindState, "LISTING_NOT_FOUND", "listing not found")
	ErrAlreadyListed      = newError(KindState, "ALREADY_LISTED", "an order is already placed for the asset")
	ErrAuctionNotFound    = newError(KindState, "AUCTION_NOT_FOUND", "auction not found")
	ErrNoBidder           = newError(KindState, "NO_BIDDER", "auction has no bidder")
	ErrEscrowNotFound     = newError(KindState, "ESCROW_NOT_FOUND", "escrow not found")
	ErrEscrowExists       = newError(KindState, "ESCROW_EXISTS", "escrow already opened for the asset")
	ErrSettlementNotFound = newError(KindState, "SETTLEMENT_NOT_FOUND", "settlement not found")
	ErrSettlementExists   = newError(KindState, "SETTLEMENT_EXISTS", "settlement already added for the asset")
	ErrUnknownResolver    = newError(KindState, "UNKNOWN_RESOLVER", "royalty resolver not registered")
	ErrPaymentNotHeld     = newError(KindState, "PAYMENT_NOT_HELD", "payment is not held by the engine")

	// Timing errors.
	ErrNotExpiredYet     = newError(KindTiming, "NOT_EXPIRED_YET", "expiration not reached yet")
	ErrAlreadyExpired    = newError(KindTiming, "ALREADY_EXPIRED", "already expired")
	ErrInvalidExpiration = newError(KindTiming, "INVALID_EXPIRATION", "expiration must be in the future")

	// Value errors.
	ErrPaymentAssetMismatch    = newError(KindValue, "PAYMENT_ASSET_MISMATCH", "payment asset not matched")
	ErrPriceMismatch           = newError(KindValue, "PRICE_MISMATCH", "price not matched")
	ErrBidTooLow               = newError(KindValue, "BID_TOO_LOW", "lower bid price")
	ErrZeroPrice               = newError(KindValue, "ZERO_PRICE", "price must be greater than zero")
	ErrInvalidRatios           = newError(KindValue, "INVALID_RATIOS", "invalid fee ratios")
	ErrInvalidFees             = newError(KindValue, "INVALID_FEES", "invalid fee amounts")
	ErrUnsupportedPaymentAsset = newError(KindValue, "UNSUPPORTED_PAYMENT_ASSET", "payment asset is neither native nor a supported token")
	ErrMalformedPaymentAsset   = newError(KindValue, "MALFORMED_PAYMENT_ASSET", "malformed payment asset")
	ErrInvalidAssetKey         = newError(KindValue, "INVALID_ASSET_KEY", "asset key must have collection and unit")
	ErrInvalidAmount           = newError(KindValue, "INVALID_AMOUNT", "amount must be greater than zero")
	ErrUnknownCollection       = newError(KindValue, "UNKNOWN_COLLECTION", "collection not handled by this resolver")
	ErrZeroAddress             = newError(KindValue, "ZERO_ADDRESS", "address must not be empty")
)
