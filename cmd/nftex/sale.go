package main

import (
	"github.com/urfave/cli/v2"
)

var sale = cli.Command{
	Name:  "sale",
	Usage: "list, cancel and buy fixed-price sales",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "list all the sales, or the one of the given unit",
			Flags:  []cli.Flag{optionalCollectionFlag, optionalUnitFlag},
			Action: listSalesAction,
		},
		{
			Name:   "put",
			Usage:  "put a unit on sale for a fixed price",
			Flags:  keyFlags(paymentAssetFlag, priceFlag),
			Action: putOnSaleAction,
		},
		{
			Name:   "cancel",
			Usage:  "cancel the sale of a unit",
			Flags:  keyFlags(),
			Action: cancelSaleAction,
		},
		{
			Name:   "buy",
			Usage:  "buy a unit paying the listed price",
			Flags:  keyFlags(paymentAssetFlag, amountFlag),
			Action: buyAction,
		},
	},
}

var (
	optionalCollectionFlag = &cli.StringFlag{
		Name:  "collection",
		Usage: "the collection address of the asset unit",
	}
	optionalUnitFlag = &cli.StringFlag{
		Name:  "unit",
		Usage: "the id of the asset unit within the collection",
	}
)

func listSalesAction(ctx *cli.Context) error {
	return listOrGet(ctx, "/v1/sales", getTradeClient)
}

func putOnSaleAction(ctx *cli.Context) error {
	return postOffer(ctx, "/v1/sales")
}

func cancelSaleAction(ctx *cli.Context) error {
	return postAction(ctx, "/v1/sales"+keyPath(ctx)+"/cancel", getTradeClient)
}

func buyAction(ctx *cli.Context) error {
	return postPayment(ctx, "/v1/sales"+keyPath(ctx)+"/buy")
}

// listOrGet prints the whole list at path, or the single record if both
// collection and unit are set.
func listOrGet(
	ctx *cli.Context, path string, getClient func() (*apiClient, error),
) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	if len(ctx.String("collection")) > 0 && len(ctx.String("unit")) > 0 {
		path += keyPath(ctx)
	}
	resp, err := client.get(path)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func postOffer(ctx *cli.Context, path string) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}
	resp, err := client.post(path+keyPath(ctx), map[string]interface{}{
		"paymentAsset": ctx.String("payment_asset"),
		"price":        ctx.Uint64("price"),
	})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func postPayment(ctx *cli.Context, path string) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}
	resp, err := client.post(path, map[string]interface{}{
		"paymentAsset": ctx.String("payment_asset"),
		"amount":       ctx.Uint64("amount"),
	})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

// postAction sends a request with no body, the caller being the subject of
// the token in the local state.
func postAction(
	ctx *cli.Context, path string, getClient func() (*apiClient, error),
) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	resp, err := client.post(path, nil)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}
