package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	unit = cli.Command{
		Name:  "unit",
		Usage: "mint, approve and inspect asset units",
		Subcommands: []*cli.Command{
			{
				Name:  "owner",
				Usage: "print the owner of a unit",
				Flags: []cli.Flag{collectionFlag, unitFlag},
				Action: func(ctx *cli.Context) error {
					return getAndPrint(getTradeClient, "/v1/units"+keyPath(ctx))
				},
			},
			{
				Name:   "mint",
				Usage: "mint a new unit to the creator, as an operator",
				Flags: keyFlags(&cli.StringFlag{
					Name:     "creator",
					Usage:    "the address the unit is minted to",
					Required: true,
				}),
				Action: mintUnitAction,
			},
			{
				Name:  "approve",
				Usage: "approve a spender, ie. the engine, to move a unit",
				Flags: keyFlags(&cli.StringFlag{
					Name:     "spender",
					Usage: "the approved address, empty to clear the approval",
				}),
				Action: approveUnitAction,
			},
		},
	}

	funds = cli.Command{
		Name:  "funds",
		Usage: "mint, approve, push and inspect payment funds",
		Subcommands: []*cli.Command{
			{
				Name:  "balance",
				Usage: "print the balance of an account",
				Flags: []cli.Flag{
					paymentAssetFlag,
					&cli.StringFlag{Name: "owner", Usage: "the account", Required: true},
				},
				Action: func(ctx *cli.Context) error {
					return getAndPrint(getTradeClient, fmt.Sprintf(
						"/v1/balances/%s?paymentAsset=%s",
						ctx.String("owner"), ctx.String("payment_asset"),
					))
				},
			},
			{
				Name:   "mint",
				Usage: "credit funds to an account, as an operator",
				Flags: []cli.Flag{
					paymentAssetFlag, amountFlag,
					&cli.StringFlag{Name: "to", Usage: "the credited account", Required: true},
				},
				Action: mintFundsAction,
			},
			{
				Name:  "approve",
				Usage: "let the spender, ie. the engine, move tokens of the caller",
				Flags: []cli.Flag{
					amountFlag,
					&cli.StringFlag{Name: "token", Usage: "the token address", Required: true},
					&cli.StringFlag{Name: "spender", Usage: "the spender address", Required: true},
				},
				Action: approveFundsAction,
			},
			{
				Name:  "push",
				Usage: "push funds to the engine to buy or bid for a unit",
				Flags: keyFlags(paymentAssetFlag, amountFlag, &cli.StringFlag{
					Name:  "op",
					Usage: "either buy or bid",
					Value: "buy",
				}),
				Action: pushFundsAction,
			},
		},
	}
)

func mintUnitAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}
	resp, err := client.post(
		"/v1/units"+keyPath(ctx)+"/mint", map[string]string{"creator": ctx.String("creator")},
	)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func approveUnitAction(ctx *cli.Context) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}
	if _, err := client.post("/v1/units"+keyPath(ctx)+"/approve", map[string]string{
		"spender": ctx.String("spender"),
	}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("unit approved")
	return nil
}

func mintFundsAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}
	if _, err := client.post("/v1/funds", map[string]interface{}{
		"to":           ctx.String("to"),
		"paymentAsset": ctx.String("payment_asset"),
		"amount":       ctx.Uint64("amount"),
	}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("funds minted")
	return nil
}

func approveFundsAction(ctx *cli.Context) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}
	if _, err := client.post("/v1/allowances", map[string]interface{}{
		"spender": ctx.String("spender"),
		"token":   ctx.String("token"),
		"amount":  ctx.Uint64("amount"),
	}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("allowance updated")
	return nil
}

func pushFundsAction(ctx *cli.Context) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}
	if _, err := client.post("/v1/transfers"+keyPath(ctx), map[string]interface{}{
		"paymentAsset": ctx.String("payment_asset"),
		"amount":       ctx.Uint64("amount"),
		"op":           ctx.String("op"),
	}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("funds pushed")
	return nil
}
