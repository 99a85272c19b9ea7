package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var operator = cli.Command{
	Name:  "operator",
	Usage: "list, add or remove engine operators",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list the operators other than the engine admin",
			Action: func(*cli.Context) error {
				return getAndPrint(getOperatorClient, "/v1/operators")
			},
		},
		{
			Name:   "add",
			Usage:  "add an operator, as the engine admin",
			Flags:  []cli.Flag{addressFlag},
			Action: addOperatorAction,
		},
		{
			Name:   "remove",
			Usage:  "remove an operator, as the engine admin",
			Flags:  []cli.Flag{addressFlag},
			Action: removeOperatorAction,
		},
	},
}

var addressFlag = &cli.StringFlag{
	Name:     "address",
	Usage:    "the operator address",
	Required: true,
}

func addOperatorAction(ctx *cli.Context) error {
	return updateOperators(ctx, "/v1/operators", "added")
}

func removeOperatorAction(ctx *cli.Context) error {
	return updateOperators(ctx, "/v1/operators/remove", "removed")
}

func updateOperators(ctx *cli.Context, path, done string) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}
	if _, err := client.post(path, map[string]string{
		"address": ctx.String("address"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("operator %s %s\n", ctx.String("address"), done)
	return nil
}
