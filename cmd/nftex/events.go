package main

import (
	"net/url"

	"github.com/urfave/cli/v2"
)

var events = cli.Command{
	Name:  "events",
	Usage: "list the journal of committed events, optionally for a single unit",
	Flags: []cli.Flag{optionalCollectionFlag, optionalUnitFlag},
	Action: func(ctx *cli.Context) error {
		path := "/v1/events"
		if collection := ctx.String("collection"); len(collection) > 0 {
			q := url.Values{}
			q.Set("collection", collection)
			q.Set("unit", ctx.String("unit"))
			path += "?" + q.Encode()
		}
		return getAndPrint(getTradeClient, path)
	},
}
