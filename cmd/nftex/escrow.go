package main

import (
	"github.com/urfave/cli/v2"
)

var (
	escrow = cli.Command{
		Name:  "escrow",
		Usage: "list, revoke and close escrows",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list all the escrows, or the one of the given unit",
				Flags:  []cli.Flag{optionalCollectionFlag, optionalUnitFlag},
				Action: listEscrowsAction,
			},
			{
				Name:   "revoke",
				Usage:  "revoke an escrow before expiration, refunding the buyer",
				Flags:  keyFlags(),
				Action: revokeEscrowAction,
			},
			{
				Name:   "close",
				Usage:  "close an expired escrow, paying seller and fee receivers",
				Flags:  keyFlags(),
				Action: closeEscrowAction,
			},
		},
	}

	settlement = cli.Command{
		Name:  "settlement",
		Usage: "list and close settlements of finalized auctions",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list all the settlements, or the one of the given unit",
				Flags:  []cli.Flag{optionalCollectionFlag, optionalUnitFlag},
				Action: listSettlementsAction,
			},
			{
				Name:   "close",
				Usage:  "close a settlement, delivering the unit and paying out",
				Flags:  keyFlags(),
				Action: closeSettlementAction,
			},
		},
	}
)

func listEscrowsAction(ctx *cli.Context) error {
	return listOrGet(ctx, "/v1/escrows", getTradeClient)
}

func revokeEscrowAction(ctx *cli.Context) error {
	return postAction(ctx, "/v1/escrows"+keyPath(ctx)+"/revoke", getTradeClient)
}

func closeEscrowAction(ctx *cli.Context) error {
	return postAction(ctx, "/v1/escrows"+keyPath(ctx)+"/close", getTradeClient)
}

func listSettlementsAction(ctx *cli.Context) error {
	return listOrGet(ctx, "/v1/settlements", getTradeClient)
}

func closeSettlementAction(ctx *cli.Context) error {
	return postAction(
		ctx, "/v1/settlements"+keyPath(ctx)+"/close", getOperatorClient,
	)
}
