package ports

import (
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

// RepoManager interface defines the methods for listings, auctions, escrows,
// settlements, royalties and events.
type RepoManager interface {
	ListingRepository() domain.ListingRepository
	AuctionRepository() domain.AuctionRepository
	EscrowRepository() domain.EscrowRepository
	SettlementRepository() domain.SettlementRepository
	RoyaltyRepository() domain.RoyaltyRepository
	EventRepository() domain.EventRepository

	// Transactional returns the participant to be enrolled in a unit of work
	// so that all repositories changes within it are committed or rolled back
	// together.
	Transactional() uow.Transactional

	Close()
}
