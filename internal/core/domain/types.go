package domain

import (
	"fmt"
	"strings"
)

// Address identifies a party or a contract. The empty string is the zero
// address and is used as unset sentinel.
type Address string

// ZeroAddress is the unset value for any Address field.
const ZeroAddress = Address("")

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// AssetKey identifies a single asset unit within a collection. It's the key
// of listings, auctions, escrows, settlements and royalty rules.
type AssetKey struct {
	Collection Address
	Unit       string
}

func NewAssetKey(collection Address, unit string) AssetKey {
	return AssetKey{collection, unit}
}

// String returns the <collection>/<unit> representation of the key.
func (k AssetKey) String() string {
	return fmt.Sprintf("%s/%s", k.Collection, k.Unit)
}

func (k AssetKey) Validate() error {
	if k.Collection.IsZero() {
		return ErrInvalidAssetKey
	}
	if len(k.Unit) <= 0 {
		return ErrInvalidAssetKey
	}
	return nil
}

// ParseAssetKey is the inverse of AssetKey.String.
func ParseAssetKey(str string) (AssetKey, error) {
	i := strings.LastIndex(str, "/")
	if i < 0 {
		return AssetKey{}, ErrInvalidAssetKey
	}
	key := AssetKey{Address(str[:i]), str[i+1:]}
	if err := key.Validate(); err != nil {
		return AssetKey{}, err
	}
	return key, nil
}

// PaymentAssetKind tells whether a payment asset is the native currency or a
// fungible token.
type PaymentAssetKind int

const (
	PaymentAssetNative PaymentAssetKind = iota
	PaymentAssetToken
)

const (
	nativeAssetStr = "native"
	tokenAssetPfx  = "token:"
)

// PaymentAsset is the asset used to pay for a trade. Token is set only for
// PaymentAssetToken kind.
type PaymentAsset struct {
	Kind  PaymentAssetKind
	Token Address
}

func NativeAsset() PaymentAsset {
	return PaymentAsset{Kind: PaymentAssetNative}
}

func TokenAsset(token Address) PaymentAsset {
	return PaymentAsset{Kind: PaymentAssetToken, Token: token}
}

func (p PaymentAsset) IsNative() bool {
	return p.Kind == PaymentAssetNative
}

func (p PaymentAsset) Equal(other PaymentAsset) bool {
	if p.Kind != other.Kind {
		return false
	}
	return p.IsNative() || p.Token == other.Token
}

func (p PaymentAsset) String() string {
	if p.IsNative() {
		return nativeAssetStr
	}
	return tokenAssetPfx + p.Token.String()
}

// ParsePaymentAsset parses either "native" or "token:<address>".
func ParsePaymentAsset(str string) (PaymentAsset, error) {
	if str == nativeAssetStr {
		return NativeAsset(), nil
	}
	if strings.HasPrefix(str, tokenAssetPfx) {
		token := Address(strings.TrimPrefix(str, tokenAssetPfx))
		if !token.IsZero() {
			return TokenAsset(token), nil
		}
	}
	return PaymentAsset{}, fmt.Errorf("%w: %q", ErrMalformedPaymentAsset, str)
}
