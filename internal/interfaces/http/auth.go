package httpinterface

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

const bearerPrefix = "Bearer "

var errUnauthenticated = domain.NewError(
	domain.KindAuthorization, "UNAUTHENTICATED", "missing or invalid bearer token",
)

// OperatorSet tells whether an address is allowed to use the operator
// interface.
type OperatorSet interface {
	IsOperator(addr domain.Address) bool
}

type callerCtxKey struct{}

// authenticator verifies the HS256 bearer tokens of incoming requests. The
// subject claim of a valid token is the address of the caller.
type authenticator struct {
	secret []byte
}

func (a authenticator) parse(r *http.Request) (domain.Address, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return domain.ZeroAddress, errUnauthenticated
	}

	claims := jwt.StandardClaims{}
	if _, err := jwt.ParseWithClaims(
		strings.TrimPrefix(header, bearerPrefix), &claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf(
					"unexpected signing method %v", token.Header["alg"],
				)
			}
			return a.secret, nil
		},
	); err != nil {
		return domain.ZeroAddress, fmt.Errorf("%w: %s", errUnauthenticated, err)
	}

	caller := domain.Address(claims.Subject)
	if caller.IsZero() {
		return domain.ZeroAddress, fmt.Errorf("%w: missing subject", errUnauthenticated)
	}
	return caller, nil
}

// authenticate requires a valid token for every request but the reads of
// the trade interface, which are public.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		caller, err := h.auth.parse(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// authorizeOperator requires every request to carry the token of an
// operator.
func (h *handler) authorizeOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.auth.parse(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !h.operators.IsOperator(caller) {
			h.writeError(w, domain.ErrNotOperator)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

func withCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

// callerOf returns the authenticated address the request is made by.
func callerOf(r *http.Request) domain.Address {
	caller, _ := r.Context().Value(callerCtxKey{}).(domain.Address)
	return caller
}
