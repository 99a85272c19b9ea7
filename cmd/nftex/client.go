package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/urfave/cli/v2"
)

const (
	tradeServerKey    = "tradeserver"
	operatorServerKey = "operatorserver"
	tokenKey          = "token"
)

type apiError struct {
	Status int
	Code   string `json:"code"`
	Msg    string `json:"error"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Msg)
}

// apiClient talks to one of the daemon HTTP interfaces. Requests are retried
// only if the daemon could not be reached.
type apiClient struct {
	client  *retryablehttp.Client
	baseUrl string
	token   string
}

// newAPIClient returns a client for the daemon at baseUrl. The token, if not
// empty, is sent as bearer of every request.
func newAPIClient(baseUrl, token string) *apiClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	client.CheckRetry = func(
		_ context.Context, _ *http.Response, err error,
	) (bool, error) {
		return err != nil, nil
	}

	if !strings.HasPrefix(baseUrl, "http://") &&
		!strings.HasPrefix(baseUrl, "https://") {
		baseUrl = "http://" + baseUrl
	}
	return &apiClient{client, strings.TrimSuffix(baseUrl, "/"), token}
}

func (c *apiClient) get(path string) ([]byte, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *apiClient) post(path string, body interface{}) ([]byte, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) delete(path string) ([]byte, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *apiClient) do(method, path string, body interface{}) ([]byte, error) {
	var reqBody interface{}
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := retryablehttp.NewRequest(method, c.baseUrl+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(c.token) > 0 {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		e := &apiError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, e); err != nil {
			e.Msg = string(respBody)
		}
		return nil, e
	}
	return respBody, nil
}

func getTradeClient() (*apiClient, error) {
	return getClient(tradeServerKey)
}

func getOperatorClient() (*apiClient, error) {
	return getClient(operatorServerKey)
}

func getClient(key string) (*apiClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	addr, ok := state[key]
	if !ok || len(addr) <= 0 {
		return nil, fmt.Errorf("set %s with `config set %s`", key, key)
	}
	return newAPIClient(addr, state[tokenKey]), nil
}

// keyPath returns /<collection>/<unit> from the command flags.
func keyPath(ctx *cli.Context) string {
	return fmt.Sprintf("/%s/%s", ctx.String("collection"), ctx.String("unit"))
}

var (
	collectionFlag = &cli.StringFlag{
		Name:     "collection",
		Usage:    "the collection address of the asset unit",
		Required: true,
	}
	unitFlag = &cli.StringFlag{
		Name:     "unit",
		Usage:    "the id of the asset unit within the collection",
		Required: true,
	}
	paymentAssetFlag = &cli.StringFlag{
		Name:  "payment_asset",
		Usage: "either native or token:<address>",
		Value: "native",
	}
	priceFlag = &cli.Uint64Flag{
		Name:     "price",
		Usage:    "the price in the smallest unit of the payment asset",
		Required: true,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "the amount in the smallest unit of the payment asset",
		Required: true,
	}
)

func keyFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{collectionFlag, unitFlag}, extra...)
}
