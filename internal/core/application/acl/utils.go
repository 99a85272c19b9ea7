package acl

import (
	"sort"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

func sortAddresses(list []domain.Address) {
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
}
