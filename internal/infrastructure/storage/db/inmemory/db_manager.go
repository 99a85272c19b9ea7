package inmemory

import (
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/ports"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/journal"
	"github.com/tdex-network/tdex-nft-exchange/internal/storageutil/uow"
)

type RepoManager struct {
	listingRepository    domain.ListingRepository
	auctionRepository    domain.AuctionRepository
	escrowRepository     domain.EscrowRepository
	settlementRepository domain.SettlementRepository
	royaltyRepository    domain.RoyaltyRepository
	eventRepository      domain.EventRepository
}

func NewRepoManager() ports.RepoManager {
	return &RepoManager{
		listingRepository:    NewListingRepositoryImpl(),
		auctionRepository:    NewAuctionRepositoryImpl(),
		escrowRepository:     NewEscrowRepositoryImpl(),
		settlementRepository: NewSettlementRepositoryImpl(),
		royaltyRepository:    NewRoyaltyRepositoryImpl(),
		eventRepository:      NewEventRepositoryImpl(),
	}
}

func (d *RepoManager) ListingRepository() domain.ListingRepository {
	return d.listingRepository
}

func (d *RepoManager) AuctionRepository() domain.AuctionRepository {
	return d.auctionRepository
}

func (d *RepoManager) EscrowRepository() domain.EscrowRepository {
	return d.escrowRepository
}

func (d *RepoManager) SettlementRepository() domain.SettlementRepository {
	return d.settlementRepository
}

func (d *RepoManager) RoyaltyRepository() domain.RoyaltyRepository {
	return d.royaltyRepository
}

func (d *RepoManager) EventRepository() domain.EventRepository {
	return d.eventRepository
}

// Transactional returns the journal shared by every inmemory repository.
func (d *RepoManager) Transactional() uow.Transactional {
	return journal.Journal{}
}

func (d *RepoManager) Close() {}
