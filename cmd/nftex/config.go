package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/urfave/cli/v2"
)

var (
	tradeServerFlag = cli.StringFlag{
		Name:  tradeServerKey,
		Usage: "nftexd trade interface address host:port",
		Value: "localhost:9945",
	}

	operatorServerFlag = cli.StringFlag{
		Name:  operatorServerKey,
		Usage: "nftexd operator interface address host:port",
		Value: "localhost:9000",
	}

	stateTokenFlag = cli.StringFlag{
		Name:  tokenKey,
		Usage: "the bearer token authenticating the user",
		Value: "",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the nftex CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&tradeServerFlag,
				&operatorServerFlag,
				&stateTokenFlag,
			},
		},
		{
			Name: "token",
			Usage: "sign a bearer token for the subject address with the daemon " +
				"auth secret and store it in the local state",
			Action: configTokenAction,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret",
					Usage:    "the auth secret of the daemon",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "subject",
					Usage:    "the address acting on behalf of the user",
					Required: true,
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Usage: "the validity of the token, zero for no expiration",
					Value: 24 * time.Hour,
				},
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Println(key + ": " + state[key])
	}

	return nil
}

func configInitAction(c *cli.Context) error {
	return setState(map[string]string{
		tradeServerKey:    c.String(tradeServerKey),
		operatorServerKey: c.String(operatorServerKey),
		tokenKey:          c.String(tokenKey),
	})
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)
	return nil
}

func configTokenAction(c *cli.Context) error {
	token, err := signToken(
		[]byte(c.String("secret")), c.String("subject"), c.Duration("ttl"),
		time.Now(),
	)
	if err != nil {
		return err
	}
	if err := setState(map[string]string{tokenKey: token}); err != nil {
		return err
	}

	fmt.Printf("token for %s has been set\n", c.String("subject"))
	return nil
}

func signToken(
	secret []byte, subject string, ttl time.Duration, now time.Time,
) (string, error) {
	if len(subject) <= 0 {
		return "", errors.New("missing subject")
	}
	claims := jwt.StandardClaims{
		Subject:  subject,
		IssuedAt: now.Unix(),
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
