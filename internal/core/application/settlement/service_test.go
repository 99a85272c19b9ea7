package settlement_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/testutil"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

var (
	key      = domain.NewAssetKey("collection", "1")
	seller   = domain.Address("seller")
	bidder   = domain.Address("bidder")
	creator  = domain.Address("creator")
	stranger = domain.Address("stranger")
	usdt     = domain.TokenAsset(testutil.Token)
	price    = uint64(500000)
)

// addSettlement moves the unit and the payment into custody and adds the
// settlement as engine.
func addSettlement(t *testing.T, env *testutil.Env) *domain.Settlement {
	env.MintForSale(t, key, seller)
	require.NoError(t, env.Custody.MoveAsset(env.Ctx, key, testutil.Engine))
	env.Fund(t, usdt, bidder, price)
	require.NoError(t, env.Custody.Deposit(env.Ctx, usdt, bidder, price))

	split, err := domain.Distribute(price, []domain.Address{creator}, []uint64{5000})
	require.NoError(t, err)
	payout := domain.NewPayout(key, seller, bidder, usdt, price, split)

	st, err := env.Settlement.AddSettlement(env.Ctx, testutil.Engine, payout)
	require.NoError(t, err)
	return st
}

func TestAddSettlement(t *testing.T) {
	env := testutil.NewEnv(t)
	st := addSettlement(t, env)

	require.Equal(t, []uint64{25000}, st.FeeAmounts)
	require.Equal(t, uint64(475000), st.SellerAmount())

	got, err := env.Settlement.GetSettlement(env.Ctx, key)
	require.NoError(t, err)
	require.Equal(t, *st, *got)

	list, err := env.Settlement.ListSettlements(env.Ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	tests := []struct {
		name        string
		caller      domain.Address
		payout      domain.Payout
		expectedErr error
	}{
		{
			name:        "not operator",
			caller:      stranger,
			payout:      st.Payout,
			expectedErr: domain.ErrNotOperator,
		},
		{
			name:        "already exists",
			caller:      testutil.Engine,
			payout:      st.Payout,
			expectedErr: domain.ErrSettlementExists,
		},
		{
			name:   "payment not held",
			caller: testutil.Engine,
			payout: domain.NewPayout(
				domain.NewAssetKey("collection", "2"), seller, bidder, usdt,
				price+1, domain.FeeSplit{},
			),
			expectedErr: domain.ErrPaymentNotHeld,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Settlement.AddSettlement(env.Ctx, tt.caller, tt.payout)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestCloseSettlement(t *testing.T) {
	env := testutil.NewEnv(t)
	addSettlement(t, env)

	require.NoError(t, env.Settlement.CloseSettlement(env.Ctx, stranger, key))

	require.Equal(t, bidder, env.Owner(t, key))
	require.Equal(t, uint64(25000), env.Balance(t, usdt, creator))
	require.Equal(t, uint64(475000), env.Balance(t, usdt, seller))
	require.Zero(t, env.Balance(t, usdt, testutil.Engine))
	require.Equal(t, []domain.EventType{
		domain.EventSettlementAdded, domain.EventSettlementClosed,
	}, env.Publisher.Types())

	err := env.Settlement.CloseSettlement(env.Ctx, stranger, key)
	require.ErrorIs(t, err, domain.ErrSettlementNotFound)
	require.Equal(t, domain.KindState, domain.KindOf(err))
	require.Len(t, env.Publisher.Events(), 2)
}
