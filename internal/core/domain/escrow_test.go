package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

func newTestPayout(t *testing.T) domain.Payout {
	split, err := domain.Distribute(
		1000000,
		[]domain.Address{feeReceiver1, feeReceiver2},
		[]uint64{1000, 25000},
	)
	require.NoError(t, err)
	return domain.NewPayout(
		key, seller, bidder1, domain.NativeAsset(), 1000000, split,
	)
}

func TestNewEscrow(t *testing.T) {
	payout := newTestPayout(t)
	require.Equal(t, uint64(740000), payout.SellerAmount())

	escrow, err := domain.NewEscrow(payout, 200, 100)
	require.NoError(t, err)
	require.Equal(t, int64(200), escrow.Expiration)
	require.Equal(t, int64(100), escrow.OpenedAt)

	_, err = domain.NewEscrow(payout, 100, 100)
	require.ErrorIs(t, err, domain.ErrInvalidExpiration)

	payout.FeeAmounts = []uint64{900000, 200000}
	_, err = domain.NewEscrow(payout, 200, 100)
	require.ErrorIs(t, err, domain.ErrInvalidFees)
}

func TestEscrowAuthorization(t *testing.T) {
	escrow, err := domain.NewEscrow(newTestPayout(t), 200, 100)
	require.NoError(t, err)

	tests := []struct {
		name        string
		caller      domain.Address
		isOperator  bool
		now         int64
		expectedErr error
	}{
		{"seller_before_expiration", seller, false, 150, nil},
		{"operator_before_expiration", "operator", true, 199, nil},
		{"buyer", bidder1, false, 150, domain.ErrNotAllowed},
		{"stranger", "stranger", false, 150, domain.ErrNotAllowed},
		{"seller_at_expiration", seller, false, 200, domain.ErrAlreadyExpired},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			err := escrow.CanBeRevokedBy(tt.caller, tt.isOperator, tt.now)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	require.ErrorIs(t, escrow.CanBeClosed(199), domain.ErrNotExpiredYet)
	require.NoError(t, escrow.CanBeClosed(200))
}
