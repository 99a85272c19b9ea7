package main

import (
	"github.com/urfave/cli/v2"
)

var auction = cli.Command{
	Name:  "auction",
	Usage: "place, bid for and finalize auctions",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list all the auctions, or the one of the given unit",
			Flags:  []cli.Flag{optionalCollectionFlag, optionalUnitFlag},
			Action: listAuctionsAction,
		},
		{
			Name:   "place",
			Usage:  "place an auction for a unit with an initial price",
			Flags:  keyFlags(paymentAssetFlag, priceFlag),
			Action: placeAuctionAction,
		},
		{
			Name:   "cancel",
			Usage:  "cancel the auction of a unit, refunding the bidder",
			Flags:  keyFlags(),
			Action: cancelAuctionAction,
		},
		{
			Name:   "bid",
			Usage:  "bid for a unit",
			Flags:  keyFlags(paymentAssetFlag, amountFlag),
			Action: bidAction,
		},
		{
			Name:   "finalize",
			Usage:  "finalize an expired auction into a settlement",
			Flags:  keyFlags(),
			Action: finalizeAuctionAction,
		},
	},
}

func listAuctionsAction(ctx *cli.Context) error {
	return listOrGet(ctx, "/v1/auctions", getTradeClient)
}

func placeAuctionAction(ctx *cli.Context) error {
	return postOffer(ctx, "/v1/auctions")
}

func cancelAuctionAction(ctx *cli.Context) error {
	return postAction(ctx, "/v1/auctions"+keyPath(ctx)+"/cancel", getTradeClient)
}

func bidAction(ctx *cli.Context) error {
	return postPayment(ctx, "/v1/auctions"+keyPath(ctx)+"/bid")
}

func finalizeAuctionAction(ctx *cli.Context) error {
	return postAction(ctx, "/v1/auctions"+keyPath(ctx)+"/finalize", getTradeClient)
}
