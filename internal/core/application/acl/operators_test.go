package acl_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/acl"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

func TestOperators(t *testing.T) {
	admin := domain.Address("engine")
	ops := acl.NewOperators(admin, "op1", "")

	require.True(t, ops.IsOperator(admin))
	require.True(t, ops.IsOperator("op1"))
	require.False(t, ops.IsOperator("op2"))
	require.False(t, ops.IsOperator(domain.ZeroAddress))

	err := ops.Add("op1", "op2")
	require.ErrorIs(t, err, acl.ErrNotAdmin)
	require.Equal(t, domain.KindAuthorization, domain.KindOf(err))

	require.NoError(t, ops.Add(admin, "op2"))
	require.True(t, ops.IsOperator("op2"))
	require.Equal(t, []domain.Address{"op1", "op2"}, ops.List())

	require.NoError(t, ops.Remove(admin, "op1"))
	require.False(t, ops.IsOperator("op1"))

	// The admin can't be removed.
	require.NoError(t, ops.Remove(admin, admin))
	require.True(t, ops.IsOperator(admin))
}
