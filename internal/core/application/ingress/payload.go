package ingress

import (
	"fmt"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// Op is the operation a pushed payment is meant for.
type Op uint64

const (
	OpUnspecified Op = iota
	OpBuy
	OpBid
)

func (o Op) String() string {
	switch o {
	case OpBuy:
		return "buy"
	case OpBid:
		return "bid"
	default:
		return "unspecified"
	}
}

const (
	fieldOp         protowire.Number = 1
	fieldCollection protowire.Number = 2
	fieldUnit       protowire.Number = 3
)

// Command is the decoded payload attached to a pushed payment.
type Command struct {
	Op  Op
	Key domain.AssetKey
}

// EncodePayload serializes the command with the protobuf wire format, so that
// any protobuf library can produce it.
func EncodePayload(cmd Command) []byte {
	buf := protowire.AppendTag(nil, fieldOp, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(cmd.Op))
	buf = protowire.AppendTag(buf, fieldCollection, protowire.BytesType)
	buf = protowire.AppendString(buf, cmd.Key.Collection.String())
	buf = protowire.AppendTag(buf, fieldUnit, protowire.BytesType)
	buf = protowire.AppendString(buf, cmd.Key.Unit)
	return buf
}

// DecodePayload is the inverse of EncodePayload. Unknown fields are skipped.
func DecodePayload(payload []byte) (*Command, error) {
	if len(payload) <= 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	cmd := &Command{}
	for len(payload) > 0 {
		num, typ, n := protowire.ConsumeTag(payload)
		if n < 0 {
			return nil, fmt.Errorf(
				"%w: %s", ErrMalformedPayload, protowire.ParseError(n),
			)
		}
		payload = payload[n:]

		switch {
		case num == fieldOp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(payload)
			if n < 0 {
				return nil, fmt.Errorf(
					"%w: %s", ErrMalformedPayload, protowire.ParseError(n),
				)
			}
			cmd.Op = Op(v)
			payload = payload[n:]
		case num == fieldCollection && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(payload)
			if n < 0 {
				return nil, fmt.Errorf(
					"%w: %s", ErrMalformedPayload, protowire.ParseError(n),
				)
			}
			cmd.Key.Collection = domain.Address(v)
			payload = payload[n:]
		case num == fieldUnit && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(payload)
			if n < 0 {
				return nil, fmt.Errorf(
					"%w: %s", ErrMalformedPayload, protowire.ParseError(n),
				)
			}
			cmd.Key.Unit = v
			payload = payload[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, payload)
			if n < 0 {
				return nil, fmt.Errorf(
					"%w: %s", ErrMalformedPayload, protowire.ParseError(n),
				)
			}
			payload = payload[n:]
		}
	}

	if cmd.Op != OpBuy && cmd.Op != OpBid {
		return nil, fmt.Errorf("%w: unknown op %d", ErrMalformedPayload, cmd.Op)
	}
	if err := cmd.Key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	return cmd, nil
}
