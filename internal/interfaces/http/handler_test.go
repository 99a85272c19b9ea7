package httpinterface

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/application/testutil"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
	"github.com/tdex-network/tdex-nft-exchange/internal/infrastructure/metrics"
)

const (
	seller = "seller"
	buyer  = "buyer"
)

var testSecret = []byte("test-auth-secret")

type testAPI struct {
	env      *testutil.Env
	trade    *mux.Router
	operator *mux.Router
}

func newTestAPI(t *testing.T) *testAPI {
	env := testutil.NewEnv(t)
	events, err := pubsub.NewService(nil, env.RepoManager.EventRepository())
	require.NoError(t, err)
	collector, err := metrics.NewCollector(nil)
	require.NoError(t, err)

	h := newHandler(ServiceOpts{
		Engine:        testutil.Engine,
		ExchangeSvc:   env.Exchange,
		AuctionSvc:    env.Auction,
		EscrowSvc:     env.Escrow,
		SettlementSvc: env.Settlement,
		RoyaltySvc:    env.Royalty,
		RouterSvc:     env.Router,
		EventsSvc:     events,
		Registry:      env.Assets,
		Ledger:        env.Ledger,
		Operators:     env.Operators,
		AuthSecret:    testSecret,
		Metrics:       collector,
	})
	return &testAPI{
		env:      env,
		trade:    h.NewTradeRouter(),
		operator: h.NewOperatorRouter(collector.Gatherer()),
	}
}

func newToken(t *testing.T, secret []byte, subject string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return token
}

// do sends the request on behalf of caller, or unauthenticated if caller is
// empty.
func do(
	t *testing.T, router http.Handler, method, path, caller string,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if len(caller) > 0 {
		req.Header.Set("Authorization", "Bearer "+newToken(t, testSecret, caller))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSaleFlow(t *testing.T) {
	api := newTestAPI(t)
	engine := testutil.Engine.String()

	rec := do(t, api.operator, http.MethodPost, "/v1/units/nft/1/mint", engine,
		mintUnitRequest{Creator: seller})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, api.trade, http.MethodPost, "/v1/units/nft/1/approve", seller,
		approveUnitRequest{Spender: engine})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, api.trade, http.MethodPost, "/v1/sales/nft/1", seller,
		offerRequest{PaymentAsset: "native", Price: 1000})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, api.trade, http.MethodGet, "/v1/sales", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listings []listingView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listings))
	require.Len(t, listings, 1)
	require.Equal(t, uint64(1000), listings[0].Price)

	rec = do(t, api.operator, http.MethodPost, "/v1/funds", engine,
		mintFundsRequest{To: buyer, PaymentAsset: "native", Amount: 1000})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, api.trade, http.MethodPost, "/v1/sales/nft/1/buy", buyer,
		payRequest{PaymentAsset: "native", Amount: 1000})
	require.Equal(t, http.StatusCreated, rec.Code)
	var escrow escrowView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&escrow))
	require.Equal(t, buyer, escrow.Buyer)
	require.Equal(t, uint64(1000), escrow.SellerAmount)

	rec = do(t, api.trade, http.MethodGet, "/v1/units/nft/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"owner":"seller"`)

	rec = do(t, api.trade, http.MethodGet, "/v1/events?collection=nft&unit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []eventView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 3)
	require.Equal(t, string(domain.EventSalePlaced), events[0].Type)
	require.Equal(t, string(domain.EventSaleMatched), events[1].Type)
	require.Equal(t, string(domain.EventEscrowOpened), events[2].Type)

	rec = do(t, api.operator, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPushPayment(t *testing.T) {
	api := newTestAPI(t)
	key := domain.NewAssetKey("nft", "1")
	api.env.MintForSale(t, key, seller)

	_, err := api.env.Auction.PlaceAuction(
		api.env.Ctx, seller, key, domain.NativeAsset(), 100,
	)
	require.NoError(t, err)
	require.NoError(t, api.env.Ledger.Mint(
		api.env.Ctx, domain.NativeAsset(), buyer, 150,
	))

	rec := do(t, api.trade, http.MethodPost, "/v1/transfers/nft/1", buyer,
		transferRequest{PaymentAsset: "native", Amount: 150, Op: "bid"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, api.trade, http.MethodGet, "/v1/auctions/nft/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var auction auctionView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&auction))
	require.Equal(t, buyer, auction.Bidder)
	require.Equal(t, uint64(150), auction.BidPrice)

	rec = do(t, api.trade, http.MethodGet, "/v1/balances/"+buyer, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"balance":0`)
}

func TestErrors(t *testing.T) {
	api := newTestAPI(t)
	api.env.MintForSale(t, domain.NewAssetKey("nft", "1"), seller)

	tests := []struct {
		name         string
		router       http.Handler
		method       string
		path         string
		caller       string
		body         interface{}
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "not owner",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1",
			caller:       buyer,
			body:         offerRequest{PaymentAsset: "native", Price: 10},
			expectedCode: http.StatusForbidden,
			expectedErr:  domain.ErrNotOwner.Code,
		},
		{
			name:         "listing not found",
			router:       api.trade,
			method:       http.MethodGet,
			path:         "/v1/sales/nft/2",
			expectedCode: http.StatusNotFound,
			expectedErr:  domain.ErrListingNotFound.Code,
		},
		{
			name:         "invalid request",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1",
			caller:       seller,
			body:         offerRequest{PaymentAsset: "btc", Price: 10},
			expectedCode: http.StatusBadRequest,
			expectedErr:  errInvalidRequest.Code,
		},
		{
			name:         "not router owner",
			router:       api.operator,
			method:       http.MethodPost,
			path:         "/v1/royalty/overrides/nft",
			caller:       testutil.Engine.String(),
			body:         overrideRequest{Resolver: testutil.RoyaltyRegistry.String()},
			expectedCode: http.StatusForbidden,
			expectedErr:  domain.ErrNotRouterOwner.Code,
		},
		{
			name:         "webhooks disabled",
			router:       api.operator,
			method:       http.MethodGet,
			path:         "/v1/webhooks",
			caller:       testutil.Engine.String(),
			expectedCode: http.StatusNotImplemented,
			expectedErr:  "INTERNAL",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.router, tt.method, tt.path, tt.caller, tt.body)
			require.Equal(t, tt.expectedCode, rec.Code)
			require.Equal(t, tt.expectedErr, decodeError(t, rec).Code)
		})
	}
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)
	key := domain.NewAssetKey("nft", "1")
	api.env.MintForSale(t, key, seller)
	_, err := api.env.Exchange.PutOnSale(
		api.env.Ctx, seller, key, domain.NativeAsset(), 1000,
	)
	require.NoError(t, err)

	tests := []struct {
		name         string
		router       http.Handler
		method       string
		path         string
		token        string
		body         interface{}
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "missing token",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/cancel",
			expectedCode: http.StatusUnauthorized,
			expectedErr:  errUnauthenticated.Code,
		},
		{
			name:         "token signed with another secret",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/cancel",
			token:        newToken(t, []byte("other-secret"), seller),
			expectedCode: http.StatusUnauthorized,
			expectedErr:  errUnauthenticated.Code,
		},
		{
			name:         "token without subject",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/cancel",
			token:        newToken(t, testSecret, ""),
			expectedCode: http.StatusUnauthorized,
			expectedErr:  errUnauthenticated.Code,
		},
		{
			name:         "expired token",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/cancel",
			token:        expiredToken(t, seller),
			expectedCode: http.StatusUnauthorized,
			expectedErr:  errUnauthenticated.Code,
		},
		{
			name:         "mismatched caller",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/cancel",
			token:        newToken(t, testSecret, buyer),
			expectedCode: http.StatusForbidden,
			expectedErr:  domain.ErrNotAllowed.Code,
		},
		{
			name:         "caller in body",
			router:       api.trade,
			method:       http.MethodPost,
			path:         "/v1/sales/nft/1/buy",
			token:        newToken(t, testSecret, buyer),
			body:         map[string]interface{}{"caller": seller, "paymentAsset": "native", "amount": 1000},
			expectedCode: http.StatusBadRequest,
			expectedErr:  errMalformedRequest.Code,
		},
		{
			name:         "not operator",
			router:       api.operator,
			method:       http.MethodPost,
			path:         "/v1/funds",
			token:        newToken(t, testSecret, buyer),
			body:         mintFundsRequest{To: buyer, PaymentAsset: "native", Amount: 1000},
			expectedCode: http.StatusForbidden,
			expectedErr:  domain.ErrNotOperator.Code,
		},
		{
			name:         "operator read without token",
			router:       api.operator,
			method:       http.MethodGet,
			path:         "/v1/operators",
			expectedCode: http.StatusUnauthorized,
			expectedErr:  errUnauthenticated.Code,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if tt.body != nil {
				require.NoError(t, json.NewEncoder(&buf).Encode(tt.body))
			}
			req := httptest.NewRequest(tt.method, tt.path, &buf)
			if len(tt.token) > 0 {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			tt.router.ServeHTTP(rec, req)

			require.Equal(t, tt.expectedCode, rec.Code)
			require.Equal(t, tt.expectedErr, decodeError(t, rec).Code)
		})
	}

	l, err := api.env.Exchange.GetSale(api.env.Ctx, key)
	require.NoError(t, err)
	require.Equal(t, seller, l.Seller.String())

	balance, err := api.env.Ledger.BalanceOf(api.env.Ctx, domain.NativeAsset(), buyer)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func expiredToken(t *testing.T, subject string) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func TestMalformedBody(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(
		http.MethodPost, "/v1/sales/nft/1", strings.NewReader(`{"price":`),
	)
	req.Header.Set("Authorization", "Bearer "+newToken(t, testSecret, seller))
	rec := httptest.NewRecorder()
	api.trade.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, errMalformedRequest.Code, decodeError(t, rec).Code)
}

func TestOperators(t *testing.T) {
	api := newTestAPI(t)

	rec := do(t, api.operator, http.MethodPost, "/v1/operators",
		testutil.Engine.String(), operatorRequest{Address: "op"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, api.operator, http.MethodPost, "/v1/operators", "op",
		operatorRequest{Address: "other"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, api.operator, http.MethodGet, "/v1/operators", "op", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ops []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ops))
	require.Equal(t, []string{"op"}, ops)
}
