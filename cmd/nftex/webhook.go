package main

import (
	"fmt"
	"net/url"

	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"
)

const generatedSecretLen = 32

var (
	webhook = cli.Command{
		Name:  "webhook",
		Usage: "add or remove webhooks",
		Subcommands: []*cli.Command{
			webhookAddCmd, webhookRemoveCmd,
		},
	}
	listwebhooks = cli.Command{
		Name:  "webhooks",
		Usage: "list all webhooks, optionally filtered by target event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "event",
				Usage: "the event type, ie. SaleMatched, or * for those notified for any",
			},
		},
		Action: listWebhooksAction,
	}

	webhookAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add a (secured) webhook endpoint called whenever a target event occurs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint",
				Usage:    "the webhook endpoint to be called whenever the target event occurs",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "event",
				Usage: "the target event type, ie. SaleMatched, or * for any",
				Value: "*",
			},
			&cli.StringFlag{
				Name: "secret",
				Usage: "the eventual secret to use to sign the token for " +
					"authenticating requests to the webhook endpoint",
			},
			&cli.BoolFlag{
				Name:  "gen_secret",
				Usage: "generate a random secret, printed along with the webhook id",
			},
		},
		Action: addWebhookAction,
	}
	webhookRemoveCmd = &cli.Command{
		Name:  "remove",
		Usage: "remove some webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "id of the webhook to remove",
				Required: true,
			},
		},
		Action: removeWebhookAction,
	}
)

func addWebhookAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}

	secret := ctx.String("secret")
	if ctx.Bool("gen_secret") {
		if len(secret) > 0 {
			return fmt.Errorf("secret and gen_secret are mutually exclusive")
		}
		secret = randstr.Hex(generatedSecretLen)
	}

	resp, err := client.post("/v1/webhooks", map[string]string{
		"endpoint": ctx.String("endpoint"),
		"event":    ctx.String("event"),
		"secret":   secret,
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	if ctx.Bool("gen_secret") {
		fmt.Println("secret:", secret)
	}
	return nil
}

func removeWebhookAction(ctx *cli.Context) error {
	client, err := getOperatorClient()
	if err != nil {
		return err
	}
	if _, err := client.delete("/v1/webhooks/" + ctx.String("id")); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("webhook removed")
	return nil
}

func listWebhooksAction(ctx *cli.Context) error {
	path := "/v1/webhooks"
	if event := ctx.String("event"); len(event) > 0 {
		path += "?event=" + url.QueryEscape(event)
	}
	return getAndPrint(getOperatorClient, path)
}
