package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

var royalty = cli.Command{
	Name:  "royalty",
	Usage: "manage royalty rules and resolvers",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "get the royalty fees due for a unit sold at the given price",
			Flags: []cli.Flag{collectionFlag, unitFlag, priceFlag},
			Action: func(ctx *cli.Context) error {
				return getAndPrint(getTradeClient, fmt.Sprintf(
					"/v1/royalties%s?price=%d", keyPath(ctx), ctx.Uint64("price"),
				))
			},
		},
		{
			Name:  "rule",
			Usage: "get the royalty rule of a unit",
			Flags: []cli.Flag{collectionFlag, unitFlag},
			Action: func(ctx *cli.Context) error {
				return getAndPrint(getTradeClient, "/v1/royalties"+keyPath(ctx)+"/rule")
			},
		},
		{
			Name:  "set",
			Usage: "set the royalty rule of a unit, as its creator and owner",
			Flags: keyFlags(
				&cli.StringSliceFlag{
					Name:  "receiver",
					Usage: "a royalty receiver, repeated for each one",
				},
				&cli.StringSliceFlag{
					Name:  "ratio",
					Usage: "the ratio in basis points of 100000 of each receiver",
				},
			),
			Action: setRoyaltyAction,
		},
		{
			Name:  "resolvers",
			Usage: "list the royalty resolvers registered on the router",
			Action: func(*cli.Context) error {
				return getAndPrint(getOperatorClient, "/v1/royalty/resolvers")
			},
		},
		{
			Name:  "overrides",
			Usage: "list the collections pointed at a royalty resolver",
			Action: func(*cli.Context) error {
				return getAndPrint(getOperatorClient, "/v1/royalty/overrides")
			},
		},
		{
			Name:  "override",
			Usage: "point a collection at a royalty resolver, or reset it",
			Flags: []cli.Flag{
				collectionFlag,
				&cli.StringFlag{
					Name:  "resolver",
					Usage: "the resolver address, empty to reset the collection",
				},
			},
			Action: overrideResolverAction,
		},
	},
}

func setRoyaltyAction(ctx *cli.Context) error {
	client, err := getTradeClient()
	if err != nil {
		return err
	}

	ratios := make([]uint64, 0)
	for _, r := range ctx.StringSlice("ratio") {
		ratio, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ratio %q", r)
		}
		ratios = append(ratios, ratio)
	}

	resp, err := client.post("/v1/royalties"+keyPath(ctx)+"/rule", map[string]interface{}{
		"receivers":  ctx.StringSlice("receiver"),
		"ratiosInBp": ratios,
	})
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}

func overrideResolverAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	path := "/v1/royalty/overrides/" + ctx.String("collection")
	if _, err := client.post(path, map[string]string{
		"resolver": ctx.String("resolver"),
	}); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("royalty resolver updated")
	return nil
}

func getAndPrint(getClient func() (*apiClient, error), path string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	resp, err := client.get(path)
	if err != nil {
		return err
	}
	printRespJSON(resp)
	return nil
}
